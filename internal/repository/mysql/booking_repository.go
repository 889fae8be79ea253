package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

var ErrBookingNotFound = errors.New("booking not found")

type BookingRepository interface {
	Insert(ctx context.Context, b *models.Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error)
	ListByRequestID(ctx context.Context, requestID string) ([]*models.Booking, error)
}

type mysqlBookingRepository struct {
	db *sql.DB
	l  logger.Logger
}

func NewMySQLBookingRepository(db *sql.DB, l logger.Logger) BookingRepository {
	return &mysqlBookingRepository{
		db: db,
		l:  l,
	}
}

func (r *mysqlBookingRepository) Insert(ctx context.Context, b *models.Booking) error {
	seats, err := json.Marshal(b.Seats)
	if err != nil {
		return fmt.Errorf("marshal seats: %w", err)
	}

	query := `
		INSERT INTO bookings (booking_id, movie_id, theater_id, seats, total_price, request_id, booked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.ExecContext(ctx, query,
		b.BookingID, b.MovieID, b.TheaterID, seats, b.TotalPrice, b.RequestID, b.BookedAt,
	)
	if err != nil {
		r.l.Errorf(ctx, "mysqlBookingRepository.Insert: %v", err)
		return err
	}

	if id, err := res.LastInsertId(); err == nil {
		b.ID = id
	}

	return nil
}

func (r *mysqlBookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `
		SELECT id, booking_id, movie_id, theater_id, seats, total_price, request_id, booked_at
		FROM bookings
		WHERE booking_id = ?
	`

	b, err := scanBooking(r.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		r.l.Errorf(ctx, "mysqlBookingRepository.GetByBookingID: %v", err)
		return nil, err
	}

	return b, nil
}

func (r *mysqlBookingRepository) ListByRequestID(ctx context.Context, requestID string) ([]*models.Booking, error) {
	query := `
		SELECT id, booking_id, movie_id, theater_id, seats, total_price, request_id, booked_at
		FROM bookings
		WHERE request_id = ?
		ORDER BY booked_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		r.l.Errorf(ctx, "mysqlBookingRepository.ListByRequestID: %v", err)
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			r.l.Errorf(ctx, "mysqlBookingRepository.ListByRequestID: %v", err)
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var seats []byte

	err := row.Scan(&b.ID, &b.BookingID, &b.MovieID, &b.TheaterID, &seats, &b.TotalPrice, &b.RequestID, &b.BookedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(seats, &b.Seats); err != nil {
		return nil, fmt.Errorf("unmarshal seats: %w", err)
	}

	return &b, nil
}
