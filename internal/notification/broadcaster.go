package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// Channel is the single pub/sub channel every replica publishes to and
// subscribes from. Routing happens on the consumer side by message type.
const Channel = "queue:notifications"

// Publisher fans admission lifecycle events out to every replica.
type Publisher interface {
	PublishAdmission(ctx context.Context, movieID, requestID, token string) error
	PublishTimeout(ctx context.Context, movieID, requestID string) error
	PublishStats(ctx context.Context, stats models.QueueStats) error
	PublishSoldOut(ctx context.Context, movieID string) error
}

type redisBroadcaster struct {
	cli *redis.Client
	l   logger.Logger
}

func NewRedisBroadcaster(cli *redis.Client, l logger.Logger) Publisher {
	return &redisBroadcaster{
		cli: cli,
		l:   l,
	}
}

func (b *redisBroadcaster) PublishAdmission(ctx context.Context, movieID, requestID, token string) error {
	return b.publish(ctx, models.Message{
		Type:      models.MessageTypeAdmission,
		Status:    string(models.EnterStatusAdmitted),
		Action:    models.ActionRedirectToSeats,
		MovieID:   movieID,
		RequestID: requestID,
		Token:     token,
	})
}

func (b *redisBroadcaster) PublishTimeout(ctx context.Context, movieID, requestID string) error {
	return b.publish(ctx, models.Message{
		Type:      models.MessageTypeTimeout,
		Action:    models.ActionRedirectToMovies,
		MovieID:   movieID,
		RequestID: requestID,
	})
}

func (b *redisBroadcaster) PublishStats(ctx context.Context, stats models.QueueStats) error {
	return b.publish(ctx, models.Message{
		Type:           models.MessageTypeStats,
		MovieID:        stats.MovieID,
		WaitingCount:   stats.WaitingCount,
		ActiveCount:    stats.ActiveCount,
		ProcessedCount: stats.ProcessedCount,
	})
}

func (b *redisBroadcaster) PublishSoldOut(ctx context.Context, movieID string) error {
	return b.publish(ctx, models.Message{
		Type:    models.MessageTypeSoldOut,
		MovieID: movieID,
		SoldOut: true,
	})
}

func (b *redisBroadcaster) publish(ctx context.Context, msg models.Message) error {
	msg.Timestamp = time.Now().UnixMilli()

	payload, err := json.Marshal(msg)
	if err != nil {
		b.l.Errorf(ctx, "redisBroadcaster.publish: marshal: %v", err)
		return err
	}

	if err := b.cli.Publish(ctx, Channel, payload).Err(); err != nil {
		b.l.Errorf(ctx, "redisBroadcaster.publish: %v", err)
		return err
	}

	return nil
}
