package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

var ErrTheaterNotFound = errors.New("theater not found")

type TheaterRepository interface {
	FindAll(ctx context.Context) ([]*models.Theater, error)
	FindByTheaterID(ctx context.Context, theaterID string) (*models.Theater, error)
}

type mysqlTheaterRepository struct {
	db *sql.DB
	l  logger.Logger
}

func NewMySQLTheaterRepository(db *sql.DB, l logger.Logger) TheaterRepository {
	return &mysqlTheaterRepository{
		db: db,
		l:  l,
	}
}

func (r *mysqlTheaterRepository) FindAll(ctx context.Context) ([]*models.Theater, error) {
	query := `
		SELECT id, theater_id, name, total_seats
		FROM theaters
		ORDER BY theater_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.l.Errorf(ctx, "mysqlTheaterRepository.FindAll: %v", err)
		return nil, err
	}
	defer rows.Close()

	var theaters []*models.Theater
	for rows.Next() {
		var t models.Theater
		if err := rows.Scan(&t.ID, &t.TheaterID, &t.Name, &t.TotalSeats); err != nil {
			r.l.Errorf(ctx, "mysqlTheaterRepository.FindAll: %v", err)
			return nil, err
		}
		theaters = append(theaters, &t)
	}

	return theaters, rows.Err()
}

func (r *mysqlTheaterRepository) FindByTheaterID(ctx context.Context, theaterID string) (*models.Theater, error) {
	query := `
		SELECT id, theater_id, name, total_seats
		FROM theaters
		WHERE theater_id = ?
	`

	var t models.Theater
	err := r.db.QueryRowContext(ctx, query, theaterID).Scan(&t.ID, &t.TheaterID, &t.Name, &t.TotalSeats)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTheaterNotFound
		}
		r.l.Errorf(ctx, "mysqlTheaterRepository.FindByTheaterID: %v", err)
		return nil, err
	}

	return &t, nil
}
