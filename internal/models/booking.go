package models

import "time"

type SeatLockStatus string

const (
	SeatLockStatusLocked   SeatLockStatus = "LOCKED"
	SeatLockStatusConflict SeatLockStatus = "CONFLICT"
)

// SeatLockResult reports an all-or-nothing multi-seat reservation
// attempt. On conflict ConflictSeats holds exactly the seats that were
// already held; nothing was claimed.
type SeatLockResult struct {
	Status        SeatLockStatus `json:"status"`
	LockedUntil   time.Time      `json:"lockedUntil,omitempty"`
	ConflictSeats []string       `json:"conflictSeats,omitempty"`
}

type BookingStatus string

const (
	BookingStatusCompleted        BookingStatus = "COMPLETED"
	BookingStatusAlreadyCompleted BookingStatus = "ALREADY_COMPLETED"
)

type BookingResult struct {
	Status         BookingStatus `json:"status"`
	BookingID      string        `json:"bookingId,omitempty"`
	CompletedCount int64         `json:"completedCount"`
	RemainingSeats int64         `json:"remainingSeats"`
	SoldOut        bool          `json:"soldOut"`
}

// Booking is the durable record persisted to MySQL after the atomic
// completion, decoupled from the response path.
type Booking struct {
	ID         int64     `json:"-"`
	BookingID  string    `json:"bookingId"`
	MovieID    string    `json:"movieId"`
	TheaterID  string    `json:"theaterId"`
	Seats      []string  `json:"seats"`
	TotalPrice int64     `json:"totalPrice"`
	RequestID  string    `json:"requestId"`
	BookedAt   time.Time `json:"bookedAt"`
}

type Theater struct {
	ID         int64  `json:"-"`
	TheaterID  string `json:"theaterId"`
	Name       string `json:"name"`
	TotalSeats int64  `json:"totalSeats"`
}

// TheaterListing is the browse view for one movie: the catalog joined
// with live availability, plus the movie-level sold-out flag.
type TheaterListing struct {
	MovieID  string         `json:"movieId"`
	SoldOut  bool           `json:"soldOut"`
	Theaters []*TheaterInfo `json:"theaters"`
}

// TheaterInfo is the browse view: catalogue row plus the remaining-seat
// count derived from the booked-seats set.
type TheaterInfo struct {
	TheaterID      string `json:"theaterId"`
	Name           string `json:"name"`
	TotalSeats     int64  `json:"totalSeats"`
	AvailableSeats int64  `json:"availableSeats"`
}
