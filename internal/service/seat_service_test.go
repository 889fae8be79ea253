package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/devfong/cinema-gate/config"
	"github.com/devfong/cinema-gate/internal/metrics"
	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// fakeSeatRepo honors the all-or-nothing contract: a request with any
// held seat locks nothing and reports every conflicting seat.
type fakeSeatRepo struct {
	mu      sync.Mutex
	held    map[string]string
	booked  map[string]map[string]struct{}
	soldOut map[string]bool
}

func newFakeSeatRepo() *fakeSeatRepo {
	return &fakeSeatRepo{
		held:    make(map[string]string),
		booked:  make(map[string]map[string]struct{}),
		soldOut: make(map[string]bool),
	}
}

func (f *fakeSeatRepo) key(movieID, theaterID, seatID string) string {
	return movieID + ":" + theaterID + ":" + seatID
}

func (f *fakeSeatRepo) LockSeats(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string, ttl time.Duration) (*models.SeatLockResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var conflicts []string
	for _, seatID := range seatIDs {
		if _, held := f.held[f.key(movieID, theaterID, seatID)]; held {
			conflicts = append(conflicts, seatID)
		}
	}
	if len(conflicts) > 0 {
		return &models.SeatLockResult{Status: models.SeatLockStatusConflict, ConflictSeats: conflicts}, nil
	}

	for _, seatID := range seatIDs {
		f.held[f.key(movieID, theaterID, seatID)] = requestID
	}
	return &models.SeatLockResult{Status: models.SeatLockStatusLocked, LockedUntil: time.Now().Add(ttl)}, nil
}

func (f *fakeSeatRepo) BookedSeatCount(ctx context.Context, movieID, theaterID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.booked[movieID+":"+theaterID])), nil
}

func (f *fakeSeatRepo) IsSoldOut(ctx context.Context, movieID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.soldOut[movieID], nil
}

func (f *fakeSeatRepo) markBooked(movieID, theaterID string, seatIDs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := movieID + ":" + theaterID
	if f.booked[key] == nil {
		f.booked[key] = make(map[string]struct{})
	}
	for _, id := range seatIDs {
		f.booked[key][id] = struct{}{}
	}
}

func newTestSeatService(repo *fakeSeatRepo, reg *metrics.Registry) SeatService {
	cfg := config.SeatConfig{LockTTL: 300 * time.Second, MaxPerRequest: 4}
	return NewSeatService(repo, cfg, reg, logger.InitializeTestZapLogger())
}

func TestSelectSeatsValidation(t *testing.T) {
	svc := newTestSeatService(newFakeSeatRepo(), metrics.NewRegistry())
	ctx := context.Background()

	tests := []struct {
		name      string
		movieID   string
		theaterID string
		requestID string
		seats     []string
		wantErr   error
	}{
		{"missing movie", "", "t1", "u1", []string{"A1"}, ErrMissingMovieID},
		{"missing theater", "m1", "", "u1", []string{"A1"}, ErrMissingTheaterID},
		{"missing request", "m1", "t1", "", []string{"A1"}, ErrMissingRequestID},
		{"no seats", "m1", "t1", "u1", nil, ErrNoSeatsSelected},
		{"too many seats", "m1", "t1", "u1", []string{"A1", "A2", "A3", "A4", "A5"}, ErrTooManySeats},
		{"empty seat id", "m1", "t1", "u1", []string{"A1", ""}, ErrInvalidSeatID},
		{"comma in seat id", "m1", "t1", "u1", []string{"A1,A2"}, ErrInvalidSeatID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SelectSeats(ctx, tt.movieID, tt.theaterID, tt.requestID, tt.seats)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SelectSeats() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSelectSeatsAllOrNothing(t *testing.T) {
	repo := newFakeSeatRepo()
	reg := metrics.NewRegistry()
	svc := newTestSeatService(repo, reg)
	ctx := context.Background()

	res, err := svc.SelectSeats(ctx, "m1", "t1", "u1", []string{"A1", "A2"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.SeatLockStatusLocked {
		t.Fatalf("first lock status = %s, want LOCKED", res.Status)
	}
	if res.LockedUntil.IsZero() {
		t.Error("LOCKED result must carry an expiry")
	}

	// Overlapping request: conflict names exactly the held seat, and the
	// free seat stays free.
	res, err = svc.SelectSeats(ctx, "m1", "t1", "u2", []string{"A2", "A3"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.SeatLockStatusConflict {
		t.Fatalf("overlap status = %s, want CONFLICT", res.Status)
	}
	if len(res.ConflictSeats) != 1 || res.ConflictSeats[0] != "A2" {
		t.Errorf("conflict seats = %v, want [A2]", res.ConflictSeats)
	}

	res, err = svc.SelectSeats(ctx, "m1", "t1", "u2", []string{"A3"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != models.SeatLockStatusLocked {
		t.Errorf("seat A3 should still be lockable after failed batch, got %s", res.Status)
	}

	if snap := reg.Snapshot(); snap.SeatConflicts != 1 {
		t.Errorf("seat conflict counter = %d, want 1", snap.SeatConflicts)
	}
}

func TestSelectSeatsMaxBoundary(t *testing.T) {
	svc := newTestSeatService(newFakeSeatRepo(), metrics.NewRegistry())

	res, err := svc.SelectSeats(context.Background(), "m1", "t1", "u1", []string{"A1", "A2", "A3", "A4"})
	if err != nil {
		t.Fatalf("four seats must be allowed: %v", err)
	}
	if res.Status != models.SeatLockStatusLocked {
		t.Errorf("status = %s, want LOCKED", res.Status)
	}
}
