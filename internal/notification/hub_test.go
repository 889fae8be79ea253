package notification

import (
	"context"
	"testing"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

func TestHubRoutesDirectAndBroadcast(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	ctx := context.Background()

	ch1, cancel1 := hub.Subscribe("u1", "m1")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("u2", "m1")
	defer cancel2()

	hub.SendToParticipant(ctx, "u1", models.Message{Type: models.MessageTypeAdmission, RequestID: "u1"})

	select {
	case msg := <-ch1:
		if msg.Type != models.MessageTypeAdmission {
			t.Errorf("u1 got %s, want ADMISSION", msg.Type)
		}
	default:
		t.Fatal("u1 received nothing")
	}
	select {
	case msg := <-ch2:
		t.Fatalf("u2 received %s meant for u1", msg.Type)
	default:
	}

	hub.SendToMovie(ctx, "m1", models.Message{Type: models.MessageTypeStats, MovieID: "m1"})

	for name, ch := range map[string]<-chan models.Message{"u1": ch1, "u2": ch2} {
		select {
		case msg := <-ch:
			if msg.Type != models.MessageTypeStats {
				t.Errorf("%s got %s, want STATS", name, msg.Type)
			}
		default:
			t.Errorf("%s missed the broadcast", name)
		}
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	ctx := context.Background()

	ch, cancel := hub.Subscribe("u1", "m1")
	cancel()

	hub.SendToParticipant(ctx, "u1", models.Message{Type: models.MessageTypeAdmission})
	hub.SendToMovie(ctx, "m1", models.Message{Type: models.MessageTypeStats})

	select {
	case msg := <-ch:
		t.Fatalf("received %s after unsubscribe", msg.Type)
	default:
	}

	if n := hub.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d after unsubscribe, want 0", n)
	}
}

func TestHubSlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	ctx := context.Background()

	_, cancel := hub.Subscribe("u1", "m1")
	defer cancel()

	// Overflow the buffer; sends must drop, not block.
	for i := 0; i < subscriberBuffer*2; i++ {
		hub.SendToMovie(ctx, "m1", models.Message{Type: models.MessageTypeStats})
	}
}

func TestHubDrainAllSendsReconnectAndCloses(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	ctx := context.Background()

	ch, cancel := hub.Subscribe("u1", "m1")
	defer cancel()

	hub.DrainAll(ctx)

	msg, ok := <-ch
	if !ok {
		t.Fatal("channel closed before reconnect hint")
	}
	if msg.Type != models.MessageTypeReconnect {
		t.Errorf("drain message = %s, want RECONNECT", msg.Type)
	}

	if _, ok := <-ch; ok {
		t.Error("channel still open after drain")
	}

	if n := hub.SubscriberCount(); n != 0 {
		t.Errorf("subscriber count = %d after drain, want 0", n)
	}
}
