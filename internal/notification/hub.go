package notification

import (
	"context"
	"sync"
	"time"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

const subscriberBuffer = 16

// Hub tracks the streaming subscribers connected to this replica. The
// pub/sub listener hands decoded messages to the hub, which delivers
// them to whichever subscribers this replica happens to hold. Sends are
// non-blocking: a subscriber that cannot keep up loses messages rather
// than stalling the fan-out.
type Hub struct {
	mu           sync.Mutex
	participants map[string]map[chan models.Message]struct{}
	movies       map[string]map[chan models.Message]struct{}
	l            logger.Logger
}

func NewHub(l logger.Logger) *Hub {
	return &Hub{
		participants: make(map[string]map[chan models.Message]struct{}),
		movies:       make(map[string]map[chan models.Message]struct{}),
		l:            l,
	}
}

// Subscribe registers a subscriber for one participant's direct messages
// and one movie's broadcasts. The returned cancel func must be called
// when the connection closes.
func (h *Hub) Subscribe(requestID, movieID string) (<-chan models.Message, func()) {
	ch := make(chan models.Message, subscriberBuffer)

	h.mu.Lock()
	addSubscriber(h.participants, requestID, ch)
	addSubscriber(h.movies, movieID, ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		removeSubscriber(h.participants, requestID, ch)
		removeSubscriber(h.movies, movieID, ch)
		h.mu.Unlock()
	}

	return ch, cancel
}

func (h *Hub) SendToParticipant(ctx context.Context, requestID string, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.participants[requestID] {
		h.deliver(ctx, ch, msg)
	}
}

func (h *Hub) SendToMovie(ctx context.Context, movieID string, msg models.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.movies[movieID] {
		h.deliver(ctx, ch, msg)
	}
}

// SubscriberCount reports how many subscribers this replica holds.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := 0
	for _, subs := range h.participants {
		count += len(subs)
	}
	return count
}

// DrainAll tells every subscriber to reconnect and closes their
// channels. Called during shutdown so clients fail over to another
// replica instead of hanging on a dead stream.
func (h *Hub) DrainAll(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	drained := 0
	seen := make(map[chan models.Message]struct{})
	for _, subs := range h.participants {
		for ch := range subs {
			seen[ch] = struct{}{}
		}
	}
	for _, subs := range h.movies {
		for ch := range subs {
			seen[ch] = struct{}{}
		}
	}

	hint := models.Message{
		Type:      models.MessageTypeReconnect,
		Timestamp: time.Now().UnixMilli(),
	}
	for ch := range seen {
		select {
		case ch <- hint:
		default:
		}
		close(ch)
		drained++
	}

	h.participants = make(map[string]map[chan models.Message]struct{})
	h.movies = make(map[string]map[chan models.Message]struct{})

	if drained > 0 {
		h.l.Infof(ctx, "Drained %d streaming subscribers", drained)
	}
}

func (h *Hub) deliver(ctx context.Context, ch chan models.Message, msg models.Message) {
	select {
	case ch <- msg:
	default:
		h.l.Warnf(ctx, "Dropping %s message for slow subscriber", msg.Type)
	}
}

func addSubscriber(m map[string]map[chan models.Message]struct{}, key string, ch chan models.Message) {
	subs, ok := m[key]
	if !ok {
		subs = make(map[chan models.Message]struct{})
		m[key] = subs
	}
	subs[ch] = struct{}{}
}

func removeSubscriber(m map[string]map[chan models.Message]struct{}, key string, ch chan models.Message) {
	subs, ok := m[key]
	if !ok {
		return
	}
	delete(subs, ch)
	if len(subs) == 0 {
		delete(m, key)
	}
}
