package service

import (
	"context"
	"errors"
	"testing"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

type fakeTheaterStore struct {
	theaters []*models.Theater
}

func (f *fakeTheaterStore) FindAll(ctx context.Context) ([]*models.Theater, error) {
	return f.theaters, nil
}

func (f *fakeTheaterStore) FindByTheaterID(ctx context.Context, theaterID string) (*models.Theater, error) {
	for _, t := range f.theaters {
		if t.TheaterID == theaterID {
			return t, nil
		}
	}
	return nil, errors.New("not found")
}

func TestListForMovieJoinsAvailability(t *testing.T) {
	store := &fakeTheaterStore{theaters: []*models.Theater{
		{TheaterID: "t1", Name: "Main Hall", TotalSeats: 200},
		{TheaterID: "t2", Name: "Annex", TotalSeats: 50},
	}}
	seats := newFakeSeatRepo()
	seats.markBooked("m1", "t1", "A1", "A2", "A3")

	svc := NewTheaterService(store, seats, logger.InitializeTestZapLogger())

	listing, err := svc.ListForMovie(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if listing.SoldOut {
		t.Error("movie should not be sold out")
	}
	if len(listing.Theaters) != 2 {
		t.Fatalf("got %d theaters, want 2", len(listing.Theaters))
	}
	if listing.Theaters[0].AvailableSeats != 197 {
		t.Errorf("t1 available = %d, want 197", listing.Theaters[0].AvailableSeats)
	}
	if listing.Theaters[1].AvailableSeats != 50 {
		t.Errorf("t2 available = %d, want 50", listing.Theaters[1].AvailableSeats)
	}
}

func TestListForMovieReportsSoldOut(t *testing.T) {
	store := &fakeTheaterStore{theaters: []*models.Theater{
		{TheaterID: "t1", Name: "Main Hall", TotalSeats: 200},
	}}
	seats := newFakeSeatRepo()
	seats.soldOut["m1"] = true

	svc := NewTheaterService(store, seats, logger.InitializeTestZapLogger())

	listing, err := svc.ListForMovie(context.Background(), "m1")
	if err != nil {
		t.Fatal(err)
	}
	if !listing.SoldOut {
		t.Error("listing must report sold out")
	}
}

func TestListForMovieRequiresMovieID(t *testing.T) {
	svc := NewTheaterService(&fakeTheaterStore{}, newFakeSeatRepo(), logger.InitializeTestZapLogger())

	if _, err := svc.ListForMovie(context.Background(), ""); !errors.Is(err, ErrMissingMovieID) {
		t.Errorf("got %v, want ErrMissingMovieID", err)
	}
}
