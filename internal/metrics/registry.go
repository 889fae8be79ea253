package metrics

import "sync"

// Registry holds in-process counters and gauges surfaced by the system
// stats endpoint. Gauges are overwritten by the stats driver each cycle;
// counters only ever grow.
type Registry struct {
	mu sync.Mutex

	waiting map[string]int64
	active  map[string]int64

	admitted  int64
	timedOut  int64
	conflicts int64
	bookings  int64
}

type Snapshot struct {
	WaitingByMovie map[string]int64 `json:"waitingByMovie"`
	ActiveByMovie  map[string]int64 `json:"activeByMovie"`
	TotalWaiting   int64            `json:"totalWaiting"`
	TotalActive    int64            `json:"totalActive"`
	Admitted       int64            `json:"admitted"`
	TimedOut       int64            `json:"timedOut"`
	SeatConflicts  int64            `json:"seatConflicts"`
	Bookings       int64            `json:"bookings"`
}

func NewRegistry() *Registry {
	return &Registry{
		waiting: make(map[string]int64),
		active:  make(map[string]int64),
	}
}

func (r *Registry) SetQueueGauges(movieID string, waiting, active int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waiting[movieID] = waiting
	r.active[movieID] = active
}

func (r *Registry) AddAdmitted(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.admitted += n
}

func (r *Registry) AddTimedOut(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timedOut += n
}

func (r *Registry) IncSeatConflicts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *Registry) IncBookings() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings++
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := Snapshot{
		WaitingByMovie: make(map[string]int64, len(r.waiting)),
		ActiveByMovie:  make(map[string]int64, len(r.active)),
		Admitted:       r.admitted,
		TimedOut:       r.timedOut,
		SeatConflicts:  r.conflicts,
		Bookings:       r.bookings,
	}
	for movie, n := range r.waiting {
		snap.WaitingByMovie[movie] = n
		snap.TotalWaiting += n
	}
	for movie, n := range r.active {
		snap.ActiveByMovie[movie] = n
		snap.TotalActive += n
	}

	return snap
}
