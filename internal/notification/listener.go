package notification

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

// Listener consumes the shared pub/sub channel and routes each message
// to this replica's hub. Direct message types route by requestId, movie
// scoped types by movieId. Messages with an unknown type or a missing
// correlation field are dropped with a warning, never an error.
type Listener struct {
	cli *redis.Client
	hub *Hub
	l   logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewListener(cli *redis.Client, hub *Hub, l logger.Logger) *Listener {
	return &Listener{
		cli: cli,
		hub: hub,
		l:   l,
	}
}

func (li *Listener) Start(ctx context.Context) {
	ctx, li.cancel = context.WithCancel(ctx)
	sub := li.cli.Subscribe(ctx, Channel)

	li.wg.Add(1)
	go func() {
		defer li.wg.Done()
		defer sub.Close()

		li.l.Infof(ctx, "Notification listener subscribed to %s", Channel)

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				li.route(ctx, []byte(raw.Payload))
			}
		}
	}()
}

func (li *Listener) Stop() {
	if li.cancel != nil {
		li.cancel()
	}
	li.wg.Wait()
}

func (li *Listener) route(ctx context.Context, payload []byte) {
	var msg models.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		li.l.Warnf(ctx, "Dropping malformed notification: %v", err)
		return
	}

	switch msg.Type {
	case models.MessageTypeAdmission, models.MessageTypeTimeout:
		if msg.RequestID == "" {
			li.l.Warnf(ctx, "Dropping %s notification without requestId", msg.Type)
			return
		}
		li.hub.SendToParticipant(ctx, msg.RequestID, msg)
	case models.MessageTypeStats, models.MessageTypeSoldOut:
		if msg.MovieID == "" {
			li.l.Warnf(ctx, "Dropping %s notification without movieId", msg.Type)
			return
		}
		li.hub.SendToMovie(ctx, msg.MovieID, msg)
	default:
		li.l.Warnf(ctx, "Dropping notification with unknown type %q", msg.Type)
	}
}
