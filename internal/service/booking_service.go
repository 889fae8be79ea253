package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devfong/cinema-gate/config"
	"github.com/devfong/cinema-gate/internal/delivery/kafka/producer"
	"github.com/devfong/cinema-gate/internal/metrics"
	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/internal/notification"
	mysqlrepo "github.com/devfong/cinema-gate/internal/repository/mysql"
	repository "github.com/devfong/cinema-gate/internal/repository/redis"
	"github.com/devfong/cinema-gate/pkg/logger"
)

const persistTimeout = 10 * time.Second

type BookingService interface {
	CompleteBooking(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string) (*models.BookingResult, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListBookings(ctx context.Context, requestID string) ([]*models.Booking, error)
}

type bookingService struct {
	bookings repository.BookingRepository
	store    mysqlrepo.BookingRepository
	pub      notification.Publisher
	events   producer.EventProducer
	reg      *metrics.Registry
	cfg      config.BookingConfig
	l        logger.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	store mysqlrepo.BookingRepository,
	pub notification.Publisher,
	events producer.EventProducer,
	reg *metrics.Registry,
	cfg config.BookingConfig,
	l logger.Logger,
) BookingService {
	return &bookingService{
		bookings: bookings,
		store:    store,
		pub:      pub,
		events:   events,
		reg:      reg,
		cfg:      cfg,
		l:        l,
	}
}

// CompleteBooking finalizes the purchase atomically in Redis, then
// persists the record and publishes events off the request path. Redis
// is authoritative: a failed MySQL write is logged, never retried, and
// never unwinds the completed booking.
func (s *bookingService) CompleteBooking(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string) (*models.BookingResult, error) {
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
	for _, seatID := range seatIDs {
		if !validSeatID(seatID) {
			return nil, ErrInvalidSeatID
		}
	}

	res, err := s.bookings.CompleteBooking(ctx, movieID, theaterID, requestID, seatIDs, int64(s.cfg.TotalSeats), s.cfg.SoldOutTTL)
	if err != nil {
		return nil, err
	}

	if res.Status == models.BookingStatusAlreadyCompleted {
		return res, nil
	}

	res.BookingID = "BK-" + uuid.NewString()
	s.reg.IncBookings()

	booking := &models.Booking{
		BookingID:  res.BookingID,
		MovieID:    movieID,
		TheaterID:  theaterID,
		Seats:      seatIDs,
		TotalPrice: int64(len(seatIDs)) * int64(s.cfg.PricePerSeat),
		RequestID:  requestID,
		BookedAt:   time.Now().UTC(),
	}

	// Detach from the request context so a client disconnect does not
	// abort persistence of a booking Redis already committed.
	persistCtx := context.WithoutCancel(ctx)
	go func() {
		pctx, cancel := context.WithTimeout(persistCtx, persistTimeout)
		defer cancel()
		if err := s.store.Insert(pctx, booking); err != nil {
			s.l.Errorf(pctx, "bookingService.CompleteBooking: persist %s: %v", booking.BookingID, err)
		}
	}()

	s.events.Publish(ctx, producer.TopicBookingCompleted, movieID, producer.BookingCompletedEvent{
		BookingID:  booking.BookingID,
		MovieID:    movieID,
		TheaterID:  theaterID,
		RequestID:  requestID,
		Seats:      seatIDs,
		TotalPrice: booking.TotalPrice,
		SoldOut:    res.SoldOut,
		Timestamp:  time.Now().UnixMilli(),
	})

	if res.SoldOut {
		if err := s.pub.PublishSoldOut(ctx, movieID); err != nil {
			s.l.Errorf(ctx, "bookingService.CompleteBooking: sold-out broadcast: %v", err)
		}
	}

	s.l.Infof(ctx, "Booking %s completed movie=%s theater=%s seats=%d", booking.BookingID, movieID, theaterID, len(seatIDs))

	return res, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.store.GetByBookingID(ctx, bookingID)
}

func (s *bookingService) ListBookings(ctx context.Context, requestID string) ([]*models.Booking, error) {
	if requestID == "" {
		return nil, ErrMissingRequestID
	}
	return s.store.ListByRequestID(ctx, requestID)
}
