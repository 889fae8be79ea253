package service

import (
	"context"

	"github.com/devfong/cinema-gate/internal/models"
	mysqlrepo "github.com/devfong/cinema-gate/internal/repository/mysql"
	repository "github.com/devfong/cinema-gate/internal/repository/redis"
	"github.com/devfong/cinema-gate/pkg/logger"
)

type TheaterService interface {
	ListForMovie(ctx context.Context, movieID string) (*models.TheaterListing, error)
}

type theaterService struct {
	theaters mysqlrepo.TheaterRepository
	seats    repository.SeatRepository
	l        logger.Logger
}

func NewTheaterService(theaters mysqlrepo.TheaterRepository, seats repository.SeatRepository, l logger.Logger) TheaterService {
	return &theaterService{
		theaters: theaters,
		seats:    seats,
		l:        l,
	}
}

// ListForMovie joins the static theater catalog with live availability
// from the booked-seat sets. An availability read failure degrades to
// the full seat count rather than failing the listing.
func (s *theaterService) ListForMovie(ctx context.Context, movieID string) (*models.TheaterListing, error) {
	if movieID == "" {
		return nil, ErrMissingMovieID
	}

	soldOut, err := s.seats.IsSoldOut(ctx, movieID)
	if err != nil {
		s.l.Warnf(ctx, "theaterService.ListForMovie: sold-out check: %v", err)
		soldOut = false
	}

	theaters, err := s.theaters.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	infos := make([]*models.TheaterInfo, 0, len(theaters))
	for _, t := range theaters {
		booked, err := s.seats.BookedSeatCount(ctx, movieID, t.TheaterID)
		if err != nil {
			s.l.Warnf(ctx, "theaterService.ListForMovie: booked count for %s: %v", t.TheaterID, err)
			booked = 0
		}

		available := t.TotalSeats - booked
		if available < 0 {
			available = 0
		}

		infos = append(infos, &models.TheaterInfo{
			TheaterID:      t.TheaterID,
			Name:           t.Name,
			TotalSeats:     t.TotalSeats,
			AvailableSeats: available,
		})
	}

	return &models.TheaterListing{
		MovieID:  movieID,
		SoldOut:  soldOut,
		Theaters: infos,
	}, nil
}
