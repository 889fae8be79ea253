package repository

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

func activateSession(t *testing.T, cli *redis.Client, movieID, requestID string) {
	t.Helper()
	err := cli.ZAdd(context.Background(), "sessions:{"+movieID+"}:active",
		redis.Z{Score: float64(time.Now().UnixMilli()), Member: requestID},
	).Err()
	if err != nil {
		t.Fatalf("seeding active session: %v", err)
	}
}

func TestCompleteBookingIsGuardedByActiveMembership(t *testing.T) {
	_, cli := newTestClient(t)
	repo := NewRedisBookingRepository(cli, logger.InitializeTestZapLogger())
	ctx := context.Background()
	activateSession(t, cli, "m1", "u1")

	res, err := repo.CompleteBooking(ctx, "m1", "t1", "u1", []string{"A1", "A2"}, 6000, time.Hour)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if res.Status != models.BookingStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}
	if res.CompletedCount != 2 || res.RemainingSeats != 5998 || res.SoldOut {
		t.Errorf("result = %+v, want 2 completed, 5998 remaining, not sold out", res)
	}

	seats, err := cli.SMembers(ctx, "booked:{m1}:t1").Result()
	if err != nil {
		t.Fatalf("SMembers: %v", err)
	}
	sort.Strings(seats)
	if len(seats) != 2 || seats[0] != "A1" || seats[1] != "A2" {
		t.Errorf("booked set = %v, want [A1 A2]", seats)
	}

	// The second completion for the same session is a no-op: the seat
	// set and counter stay untouched.
	res, err = repo.CompleteBooking(ctx, "m1", "t1", "u1", []string{"A1", "A2"}, 6000, time.Hour)
	if err != nil {
		t.Fatalf("repeat CompleteBooking: %v", err)
	}
	if res.Status != models.BookingStatusAlreadyCompleted || res.CompletedCount != 2 {
		t.Errorf("repeat result = %+v, want ALREADY_COMPLETED with count 2", res)
	}
}

func TestCompleteBookingFlagsSoldOutWithTTL(t *testing.T) {
	_, cli := newTestClient(t)
	repo := NewRedisBookingRepository(cli, logger.InitializeTestZapLogger())
	ctx := context.Background()
	activateSession(t, cli, "m1", "u1")

	res, err := repo.CompleteBooking(ctx, "m1", "t1", "u1", []string{"A1", "A2"}, 2, time.Hour)
	if err != nil {
		t.Fatalf("CompleteBooking: %v", err)
	}
	if res.Status != models.BookingStatusCompleted || !res.SoldOut {
		t.Fatalf("result = %+v, want COMPLETED and sold out", res)
	}
	if res.RemainingSeats != 0 {
		t.Errorf("RemainingSeats = %d, want 0", res.RemainingSeats)
	}

	ttl, err := cli.TTL(ctx, "sold-out:{m1}").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("sold-out TTL = %v, want within (0, 1h]", ttl)
	}

	res, err = repo.CompleteBooking(ctx, "m1", "t1", "u1", nil, 2, time.Hour)
	if err != nil {
		t.Fatalf("repeat CompleteBooking: %v", err)
	}
	if res.Status != models.BookingStatusAlreadyCompleted || !res.SoldOut {
		t.Errorf("repeat result = %+v, want ALREADY_COMPLETED and sold out", res)
	}
}
