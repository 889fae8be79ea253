package models

type MessageType string

const (
	MessageTypeAdmission MessageType = "ADMISSION"
	MessageTypeTimeout   MessageType = "TIMEOUT"
	MessageTypeStats     MessageType = "STATS"
	MessageTypeSoldOut   MessageType = "SOLD_OUT"
	MessageTypeReconnect MessageType = "RECONNECT"
)

// Message is the tagged envelope carried on the single notification
// channel. Every replica subscribes and routes by Type: ADMISSION and
// TIMEOUT to the participant identified by RequestID, STATS and
// SOLD_OUT to everyone watching MovieID. Timestamp is epoch millis.
type Message struct {
	Type      MessageType `json:"type"`
	Status    string      `json:"status,omitempty"`
	Action    string      `json:"action,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	MovieID   string      `json:"movieId,omitempty"`
	Token     string      `json:"token,omitempty"`

	// STATS fields.
	WaitingCount   int64 `json:"waitingCount,omitempty"`
	ActiveCount    int64 `json:"activeCount,omitempty"`
	ProcessedCount int64 `json:"processedCount,omitempty"`

	// SOLD_OUT field.
	SoldOut bool `json:"soldOut,omitempty"`

	Timestamp int64 `json:"timestamp"`
}
