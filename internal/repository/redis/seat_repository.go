package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

type SeatRepository interface {
	LockSeats(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string, ttl time.Duration) (*models.SeatLockResult, error)
	BookedSeatCount(ctx context.Context, movieID, theaterID string) (int64, error)
	IsSoldOut(ctx context.Context, movieID string) (bool, error)
}

// lockSeatsScript locks every requested seat or none of them. The first
// pass collects conflicts without writing; writes only happen when the
// whole request is clear.
var lockSeatsScript = redis.NewScript(`
	local ttl = tonumber(ARGV[1])
	local holder = ARGV[2]

	local conflicts = {}
	for i = 1, #KEYS do
		if redis.call('EXISTS', KEYS[i]) == 1 then
			table.insert(conflicts, KEYS[i])
		end
	end

	if #conflicts > 0 then
		local result = {0}
		for i = 1, #conflicts do
			table.insert(result, conflicts[i])
		end
		return result
	end

	for i = 1, #KEYS do
		redis.call('SET', KEYS[i], holder, 'EX', ttl)
	end

	return {1}
`)

type redisSeatRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisSeatRepository(cli *redis.Client, l logger.Logger) SeatRepository {
	return &redisSeatRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisSeatRepository) LockSeats(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string, ttl time.Duration) (*models.SeatLockResult, error) {
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = r.seatKey(movieID, theaterID, seatID)
	}

	res, err := lockSeatsScript.Run(ctx, r.cli, keys,
		int64(ttl.Seconds()), requestID,
	).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisSeatRepository.LockSeats: %v", err)
		return nil, err
	}

	fields, ok := res.([]interface{})
	if !ok || len(fields) == 0 {
		return nil, fmt.Errorf("unexpected seat lock script result: %v", res)
	}

	if toInt64(fields[0]) == 1 {
		return &models.SeatLockResult{
			Status:      models.SeatLockStatusLocked,
			LockedUntil: time.Now().Add(ttl),
		}, nil
	}

	conflicts := make([]string, 0, len(fields)-1)
	for _, field := range fields[1:] {
		conflicts = append(conflicts, seatIDFromKey(toString(field)))
	}

	return &models.SeatLockResult{
		Status:        models.SeatLockStatusConflict,
		ConflictSeats: conflicts,
	}, nil
}

func (r *redisSeatRepository) BookedSeatCount(ctx context.Context, movieID, theaterID string) (int64, error) {
	count, err := r.cli.SCard(ctx, r.bookedKey(movieID, theaterID)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		r.l.Errorf(ctx, "redisSeatRepository.BookedSeatCount: %v", err)
		return 0, err
	}

	return count, nil
}

func (r *redisSeatRepository) IsSoldOut(ctx context.Context, movieID string) (bool, error) {
	exists, err := r.cli.Exists(ctx, fmt.Sprintf("sold-out:{%s}", movieID)).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisSeatRepository.IsSoldOut: %v", err)
		return false, err
	}

	return exists > 0, nil
}

func (r *redisSeatRepository) seatKey(movieID, theaterID, seatID string) string {
	return fmt.Sprintf("seat:{%s}:%s:%s", movieID, theaterID, seatID)
}

func (r *redisSeatRepository) bookedKey(movieID, theaterID string) string {
	return fmt.Sprintf("booked:{%s}:%s", movieID, theaterID)
}

// seatIDFromKey recovers the seat id from a lock key of the form
// seat:{movieID}:theaterID:seatID.
func seatIDFromKey(key string) string {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) < 4 {
		return key
	}
	return parts[3]
}
