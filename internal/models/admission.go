package models

type EnterStatus string

const (
	EnterStatusAdmitted       EnterStatus = "ADMITTED"
	EnterStatusWaiting        EnterStatus = "WAITING"
	EnterStatusAlreadyActive  EnterStatus = "ALREADY_ACTIVE"
	EnterStatusAlreadyWaiting EnterStatus = "ALREADY_WAITING"
)

// Admitted reports whether the participant holds an active session after
// the enter call, regardless of whether this call created it.
func (s EnterStatus) Admitted() bool {
	return s == EnterStatusAdmitted || s == EnterStatusAlreadyActive
}

// EnterResult is the outcome of the atomic enter transaction.
// For admitted participants ActiveCount is filled; for waiting ones
// Rank (1-based) and TotalWaiting are filled.
type EnterResult struct {
	Status       EnterStatus `json:"status"`
	ActiveCount  int64       `json:"activeCount,omitempty"`
	Rank         int64       `json:"rank,omitempty"`
	TotalWaiting int64       `json:"totalWaiting,omitempty"`
	Token        string      `json:"token,omitempty"`
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusWaiting  UserStatus = "WAITING"
	UserStatusNotFound UserStatus = "NOT_FOUND"
)

// StatusResult answers a participant's status poll. Rank and
// TotalWaiting are filled only while waiting; Action tells the client
// where to go next.
type StatusResult struct {
	Status       UserStatus `json:"status"`
	Rank         int64      `json:"rank,omitempty"`
	TotalWaiting int64      `json:"totalWaiting,omitempty"`
	Action       string     `json:"action,omitempty"`
}

// Client redirect hints carried on status responses and notifications.
const (
	ActionRedirectToSeats  = "REDIRECT_TO_SEATS"
	ActionRedirectToMovies = "REDIRECT_TO_MOVIES"
)

// QueueStats is one item's aggregate queue snapshot, read by the stats
// broadcaster every cycle.
type QueueStats struct {
	MovieID        string `json:"movieId"`
	WaitingCount   int64  `json:"waitingCount"`
	ActiveCount    int64  `json:"activeCount"`
	ProcessedCount int64  `json:"processedCount"`
}
