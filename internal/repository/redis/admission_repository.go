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

// Registry sets for dynamic movie discovery: every periodic driver asks
// these instead of a hardcoded movie list.
const (
	activeMoviesKey  = "active_movies"
	waitingMoviesKey = "waiting_movies"
)

// AdmissionRepository is the queue state store. Read methods degrade:
// a transient store error is logged and reported as the zero value
// (absent member, -1 rank, zero count) so status polls and driver
// cycles skip instead of fail. Write methods propagate errors.
type AdmissionRepository interface {
	Enter(ctx context.Context, movieID, requestID string, maxSessions int64) (*models.EnterResult, error)
	Promote(ctx context.Context, movieID string, count int64) ([]string, error)
	Leave(ctx context.Context, movieID, requestID string) error
	RemoveFromActive(ctx context.Context, movieID, requestID string) (bool, error)
	IsActive(ctx context.Context, movieID, requestID string) (bool, error)
	WaitingRank(ctx context.Context, movieID, requestID string) (int64, error)
	ActiveCount(ctx context.Context, movieID string) (int64, error)
	WaitingCount(ctx context.Context, movieID string) (int64, error)
	ProcessedCount(ctx context.Context, movieID string) (int64, error)
	FindExpiredActive(ctx context.Context, movieID string, timeout time.Duration) ([]string, error)
	RemoveActiveMembers(ctx context.Context, movieID string, requestIDs []string) error
	TrackedMovies(ctx context.Context) ([]string, error)
}

// enterScript checks the active cardinality against the capacity and
// either admits immediately or appends to the waiting queue, in one
// server-side transaction. Both keys share the {movieID} hash tag so the
// script stays single-slot under cluster mode.
var enterScript = redis.NewScript(`
	local activeKey = KEYS[1]
	local waitingKey = KEYS[2]
	local maxSessions = tonumber(ARGV[1])
	local member = ARGV[2]
	local now = tonumber(ARGV[3])

	local existingScore = redis.call('ZSCORE', activeKey, member)
	if existingScore then
		return {1, 'ALREADY_ACTIVE', redis.call('ZCARD', activeKey), 0}
	end

	local waitingScore = redis.call('ZSCORE', waitingKey, member)
	if waitingScore then
		local rank = redis.call('ZRANK', waitingKey, member)
		local totalWaiting = redis.call('ZCARD', waitingKey)
		return {2, 'ALREADY_WAITING', rank + 1, totalWaiting}
	end

	local activeCount = redis.call('ZCARD', activeKey)

	if activeCount < maxSessions then
		redis.call('ZADD', activeKey, now, member)
		return {1, 'ADMITTED', activeCount + 1, 0}
	else
		redis.call('ZADD', waitingKey, now, member)
		local rank = redis.call('ZRANK', waitingKey, member)
		local totalWaiting = redis.call('ZCARD', waitingKey)
		return {2, 'WAITING', rank + 1, totalWaiting}
	end
`)

// promoteScript pops up to count waiters in FIFO order into the active
// set and bumps the processed counter by the number actually moved.
var promoteScript = redis.NewScript(`
	local waitingKey = KEYS[1]
	local activeKey = KEYS[2]
	local countKey = KEYS[3]
	local count = tonumber(ARGV[1])
	local now = tonumber(ARGV[2])

	local waiting = redis.call('ZRANGE', waitingKey, 0, count - 1)
	local admitted = {}

	for i = 1, #waiting do
		local member = waiting[i]
		redis.call('ZREM', waitingKey, member)
		redis.call('ZADD', activeKey, now, member)
		table.insert(admitted, member)
	end

	if #admitted > 0 then
		redis.call('INCRBY', countKey, #admitted)
	end

	return admitted
`)

type redisAdmissionRepository struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisAdmissionRepository(cli *redis.Client, l logger.Logger) AdmissionRepository {
	return &redisAdmissionRepository{
		cli: cli,
		l:   l,
	}
}

func (r *redisAdmissionRepository) Enter(ctx context.Context, movieID, requestID string, maxSessions int64) (*models.EnterResult, error) {
	activeKey := r.activeKey(movieID)
	waitingKey := r.waitingKey(movieID)

	r.ensureKeyType(ctx, activeKey, "zset")
	r.ensureKeyType(ctx, waitingKey, "zset")

	now := time.Now().UnixMilli()

	res, err := enterScript.Run(ctx, r.cli,
		[]string{activeKey, waitingKey},
		maxSessions, requestID, now,
	).Result()
	if err != nil {
		if isWrongTypeErr(err) {
			// Self-heal: drop the malformed keys so the next attempt
			// starts clean. This call still fails.
			r.cli.Del(ctx, activeKey, waitingKey)
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.Enter: %v", err)
		return nil, err
	}

	fields, ok := res.([]interface{})
	if !ok || len(fields) < 4 {
		return nil, fmt.Errorf("unexpected enter script result: %v", res)
	}

	status := models.EnterStatus(toString(fields[1]))
	out := &models.EnterResult{Status: status}
	switch status {
	case models.EnterStatusAdmitted, models.EnterStatusAlreadyActive:
		out.ActiveCount = toInt64(fields[2])
	default:
		out.Rank = toInt64(fields[2])
		out.TotalWaiting = toInt64(fields[3])
	}

	// Registry upkeep is opportunistic, outside the transaction.
	pipe := r.cli.Pipeline()
	pipe.SAdd(ctx, activeMoviesKey, movieID)
	if status == models.EnterStatusWaiting || status == models.EnterStatusAlreadyWaiting {
		pipe.SAdd(ctx, waitingMoviesKey, movieID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Warnf(ctx, "redisAdmissionRepository.Enter: registry update failed: %v", err)
	}

	return out, nil
}

func (r *redisAdmissionRepository) Promote(ctx context.Context, movieID string, count int64) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	activeKey := r.activeKey(movieID)
	waitingKey := r.waitingKey(movieID)

	r.ensureKeyType(ctx, activeKey, "zset")
	r.ensureKeyType(ctx, waitingKey, "zset")

	now := time.Now().UnixMilli()

	res, err := promoteScript.Run(ctx, r.cli,
		[]string{waitingKey, activeKey, r.processedKey(movieID)},
		count, now,
	).Result()
	if err != nil {
		if isWrongTypeErr(err) {
			r.cli.Del(ctx, activeKey, waitingKey)
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.Promote: %v", err)
		return nil, err
	}

	admitted := toStrings(res)
	if len(admitted) == 0 {
		return nil, nil
	}

	// Drop the movie from the waiting registry once its queue drains.
	remaining, err := r.cli.ZCard(ctx, waitingKey).Result()
	if err == nil && remaining == 0 {
		if err := r.cli.SRem(ctx, waitingMoviesKey, movieID).Err(); err != nil {
			r.l.Warnf(ctx, "redisAdmissionRepository.Promote: registry cleanup failed: %v", err)
		}
	}

	r.l.Debugf(ctx, "Promoted %d waiters for movie %s", len(admitted), movieID)

	return admitted, nil
}

// Leave removes the participant from both sets. Removing an absent
// member is a successful no-op, so leave is idempotent.
func (r *redisAdmissionRepository) Leave(ctx context.Context, movieID, requestID string) error {
	pipe := r.cli.Pipeline()
	pipe.ZRem(ctx, r.activeKey(movieID), requestID)
	pipe.ZRem(ctx, r.waitingKey(movieID), requestID)

	if _, err := pipe.Exec(ctx); err != nil {
		r.l.Errorf(ctx, "redisAdmissionRepository.Leave: %v", err)
		return err
	}

	return nil
}

func (r *redisAdmissionRepository) RemoveFromActive(ctx context.Context, movieID, requestID string) (bool, error) {
	key := r.activeKey(movieID)
	r.ensureKeyType(ctx, key, "zset")

	removed, err := r.cli.ZRem(ctx, key, requestID).Result()
	if err != nil {
		if isWrongTypeErr(err) {
			r.cli.Del(ctx, key)
			return false, nil
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.RemoveFromActive: %v", err)
		return false, err
	}

	return removed > 0, nil
}

func (r *redisAdmissionRepository) IsActive(ctx context.Context, movieID, requestID string) (bool, error) {
	key := r.activeKey(movieID)
	r.ensureKeyType(ctx, key, "zset")

	if err := r.cli.ZScore(ctx, key, requestID).Err(); err != nil {
		if err == redis.Nil {
			return false, nil
		}
		if isWrongTypeErr(err) {
			r.cli.Del(ctx, key)
			return false, nil
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.IsActive: %v", err)
		return false, nil
	}

	return true, nil
}

// WaitingRank returns the 1-based queue position, or -1 when the
// participant is not waiting.
func (r *redisAdmissionRepository) WaitingRank(ctx context.Context, movieID, requestID string) (int64, error) {
	key := r.waitingKey(movieID)
	r.ensureKeyType(ctx, key, "zset")

	rank, err := r.cli.ZRank(ctx, key, requestID).Result()
	if err != nil {
		if err == redis.Nil {
			return -1, nil
		}
		if isWrongTypeErr(err) {
			r.cli.Del(ctx, key)
			return -1, nil
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.WaitingRank: %v", err)
		return -1, nil
	}

	return rank + 1, nil
}

func (r *redisAdmissionRepository) ActiveCount(ctx context.Context, movieID string) (int64, error) {
	return r.cardOf(ctx, r.activeKey(movieID), "ActiveCount")
}

func (r *redisAdmissionRepository) WaitingCount(ctx context.Context, movieID string) (int64, error) {
	return r.cardOf(ctx, r.waitingKey(movieID), "WaitingCount")
}

func (r *redisAdmissionRepository) ProcessedCount(ctx context.Context, movieID string) (int64, error) {
	val, err := r.cli.Get(ctx, r.processedKey(movieID)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.ProcessedCount: %v", err)
		return 0, nil
	}

	return val, nil
}

// FindExpiredActive scans for active members admitted before now-timeout.
// Read-only: removal happens separately and is not atomic with this scan.
func (r *redisAdmissionRepository) FindExpiredActive(ctx context.Context, movieID string, timeout time.Duration) ([]string, error) {
	key := r.activeKey(movieID)
	r.ensureKeyType(ctx, key, "zset")

	threshold := time.Now().Add(-timeout).UnixMilli()

	members, err := r.cli.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", threshold),
	}).Result()
	if err != nil {
		if isWrongTypeErr(err) {
			r.cli.Del(ctx, key)
			return nil, nil
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.FindExpiredActive: %v", err)
		return nil, nil
	}

	return members, nil
}

func (r *redisAdmissionRepository) RemoveActiveMembers(ctx context.Context, movieID string, requestIDs []string) error {
	if len(requestIDs) == 0 {
		return nil
	}

	members := make([]interface{}, len(requestIDs))
	for i, id := range requestIDs {
		members[i] = id
	}

	if err := r.cli.ZRem(ctx, r.activeKey(movieID), members...).Err(); err != nil {
		r.l.Errorf(ctx, "redisAdmissionRepository.RemoveActiveMembers: %v", err)
		return err
	}

	return nil
}

// TrackedMovies returns the union of the active and waiting registries,
// the dynamic replacement for a hardcoded movie list.
func (r *redisAdmissionRepository) TrackedMovies(ctx context.Context) ([]string, error) {
	movies, err := r.cli.SUnion(ctx, activeMoviesKey, waitingMoviesKey).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisAdmissionRepository.TrackedMovies: %v", err)
		return nil, err
	}

	return movies, nil
}

func (r *redisAdmissionRepository) cardOf(ctx context.Context, key, op string) (int64, error) {
	r.ensureKeyType(ctx, key, "zset")

	count, err := r.cli.ZCard(ctx, key).Result()
	if err != nil {
		if isWrongTypeErr(err) {
			r.cli.Del(ctx, key)
			return 0, nil
		}
		r.l.Errorf(ctx, "redisAdmissionRepository.%s: %v", op, err)
		return 0, nil
	}

	return count, nil
}

// ensureKeyType deletes a key that unexpectedly holds the wrong shape so
// it is recreated cleanly on next use. Trades one-time loss of that
// key's state for self-healing.
func (r *redisAdmissionRepository) ensureKeyType(ctx context.Context, key, want string) {
	actual, err := r.cli.Type(ctx, key).Result()
	if err != nil {
		return
	}
	if actual != "none" && actual != want {
		r.l.Warnf(ctx, "Key type mismatch (want %s, got %s), deleting key %s", want, actual, key)
		r.cli.Del(ctx, key)
	}
}

func isWrongTypeErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "WRONGTYPE") || strings.Contains(msg, "CROSSSLOT")
}

// Hash tag {movieID} keeps every same-movie key in one cluster slot so
// the Lua transactions stay valid under cluster mode.
func (r *redisAdmissionRepository) activeKey(movieID string) string {
	return fmt.Sprintf("sessions:{%s}:active", movieID)
}

func (r *redisAdmissionRepository) waitingKey(movieID string) string {
	return fmt.Sprintf("sessions:{%s}:waiting", movieID)
}

func (r *redisAdmissionRepository) processedKey(movieID string) string {
	return fmt.Sprintf("processed:{%s}", movieID)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case string:
		var out int64
		fmt.Sscanf(n, "%d", &out)
		return out
	default:
		return 0
	}
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
