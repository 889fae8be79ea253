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

type BookingRepository interface {
	CompleteBooking(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string, totalSeats int64, soldOutTTL time.Duration) (*models.BookingResult, error)
}

// completeBookingScript finalizes a booking in one transaction. ZREM on
// the active set is the idempotency guard: the first completion removes
// the member, any repeat sees 0 and short-circuits without touching the
// seat sets or counters.
var completeBookingScript = redis.NewScript(`
	local activeKey = KEYS[1]
	local bookedKey = KEYS[2]
	local completedKey = KEYS[3]
	local soldOutKey = KEYS[4]
	local member = ARGV[1]
	local seatsCsv = ARGV[2]
	local totalSeats = tonumber(ARGV[3])
	local soldOutTTL = tonumber(ARGV[4])

	local removed = redis.call('ZREM', activeKey, member)
	if removed == 0 then
		local completed = tonumber(redis.call('GET', completedKey) or '0')
		local soldOut = redis.call('EXISTS', soldOutKey)
		return {0, 'ALREADY_COMPLETED', completed, soldOut}
	end

	local seatCount = 0
	for seatID in string.gmatch(seatsCsv, '([^,]+)') do
		redis.call('SADD', bookedKey, seatID)
		seatCount = seatCount + 1
	end

	local completed = redis.call('INCRBY', completedKey, seatCount)

	local soldOut = 0
	if completed >= totalSeats then
		redis.call('SET', soldOutKey, '1', 'EX', soldOutTTL)
		soldOut = 1
	end

	return {1, 'COMPLETED', completed, soldOut}
`)

type redisBookingRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisBookingRepository(cli *redis.Client, l logger.Logger) BookingRepository {
	return &redisBookingRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisBookingRepository) CompleteBooking(ctx context.Context, movieID, theaterID, requestID string, seatIDs []string, totalSeats int64, soldOutTTL time.Duration) (*models.BookingResult, error) {
	res, err := completeBookingScript.Run(ctx, r.cli,
		[]string{
			fmt.Sprintf("sessions:{%s}:active", movieID),
			fmt.Sprintf("booked:{%s}:%s", movieID, theaterID),
			r.completedKey(movieID),
			fmt.Sprintf("sold-out:{%s}", movieID),
		},
		requestID,
		strings.Join(seatIDs, ","),
		totalSeats,
		int64(soldOutTTL.Seconds()),
	).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisBookingRepository.CompleteBooking: %v", err)
		return nil, err
	}

	fields, ok := res.([]interface{})
	if !ok || len(fields) < 4 {
		return nil, fmt.Errorf("unexpected booking script result: %v", res)
	}

	completed := toInt64(fields[2])
	out := &models.BookingResult{
		Status:         models.BookingStatus(toString(fields[1])),
		CompletedCount: completed,
		SoldOut:        toInt64(fields[3]) == 1,
	}
	if remaining := totalSeats - completed; remaining > 0 {
		out.RemainingSeats = remaining
	}

	return out, nil
}

func (r *redisBookingRepository) completedKey(movieID string) string {
	return fmt.Sprintf("booking:completed:{%s}", movieID)
}
