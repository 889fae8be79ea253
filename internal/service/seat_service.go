package service

import (
	"context"
	"strings"

	"github.com/devfong/cinema-gate/config"
	"github.com/devfong/cinema-gate/internal/metrics"
	"github.com/devfong/cinema-gate/internal/models"
	repository "github.com/devfong/cinema-gate/internal/repository/redis"
	"github.com/devfong/cinema-gate/pkg/logger"
)

type SeatService interface {
	SelectSeats(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string) (*models.SeatLockResult, error)
}

type seatService struct {
	seats repository.SeatRepository
	cfg   config.SeatConfig
	reg   *metrics.Registry
	l     logger.Logger
}

func NewSeatService(seats repository.SeatRepository, cfg config.SeatConfig, reg *metrics.Registry, l logger.Logger) SeatService {
	return &seatService{
		seats: seats,
		cfg:   cfg,
		reg:   reg,
		l:     l,
	}
}

// Seat ids travel through the completion script as a comma-joined
// list, so the separator and empty ids are rejected up front.
func validSeatID(id string) bool {
	return id != "" && !strings.Contains(id, ",")
}

// SelectSeats locks all requested seats or none. Validation happens
// before touching Redis so malformed requests never consume a script
// round trip.
func (s *seatService) SelectSeats(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string) (*models.SeatLockResult, error) {
	if movieID == "" {
		return nil, ErrMissingMovieID
	}
	if theaterID == "" {
		return nil, ErrMissingTheaterID
	}
	if requestID == "" {
		return nil, ErrMissingRequestID
	}
	if len(seatIDs) == 0 {
		return nil, ErrNoSeatsSelected
	}
	if len(seatIDs) > s.cfg.MaxPerRequest {
		return nil, ErrTooManySeats
	}
	for _, seatID := range seatIDs {
		if !validSeatID(seatID) {
			return nil, ErrInvalidSeatID
		}
	}

	res, err := s.seats.LockSeats(ctx, movieID, theaterID, requestID, seatIDs, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}

	if res.Status == models.SeatLockStatusConflict {
		s.reg.IncSeatConflicts()
		s.l.Infof(ctx, "Seat conflict movie=%s theater=%s seats=%v", movieID, theaterID, res.ConflictSeats)
	}

	return res, nil
}
