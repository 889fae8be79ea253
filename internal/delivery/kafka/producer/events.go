package producer

// Kafka topics carrying admission lifecycle events for downstream
// consumers (analytics, fraud, CRM). Events are best-effort: a publish
// failure is logged and never blocks the request path.
const (
	TopicAdmissionGranted = "admission.granted"
	TopicQueueLeft        = "admission.queue-left"
	TopicBookingCompleted = "booking.completed"
)

type AdmissionGrantedEvent struct {
	MovieID   string `json:"movieId"`
	RequestID string `json:"requestId"`
	Source    string `json:"source"`
	Token     string `json:"token,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type QueueLeftEvent struct {
	MovieID   string `json:"movieId"`
	RequestID string `json:"requestId"`
	Timestamp int64  `json:"timestamp"`
}

type BookingCompletedEvent struct {
	BookingID  string   `json:"bookingId"`
	MovieID    string   `json:"movieId"`
	TheaterID  string   `json:"theaterId"`
	RequestID  string   `json:"requestId"`
	Seats      []string `json:"seats"`
	TotalPrice int64    `json:"totalPrice"`
	SoldOut    bool     `json:"soldOut"`
	Timestamp  int64    `json:"timestamp"`
}
