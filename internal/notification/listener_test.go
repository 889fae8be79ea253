package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/pkg/logger"
)

func newRoutingFixture(t *testing.T) (*Listener, <-chan models.Message, func()) {
	t.Helper()
	hub := NewHub(logger.InitializeTestZapLogger())
	li := &Listener{hub: hub, l: logger.InitializeTestZapLogger()}
	ch, cancel := hub.Subscribe("u1", "m1")
	return li, ch, cancel
}

func mustMarshal(t *testing.T, msg models.Message) []byte {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	return payload
}

func TestListenerRoutesByType(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
	}{
		{"admission to participant", models.Message{Type: models.MessageTypeAdmission, RequestID: "u1", MovieID: "m1"}},
		{"timeout to participant", models.Message{Type: models.MessageTypeTimeout, RequestID: "u1", MovieID: "m1"}},
		{"stats to movie watchers", models.Message{Type: models.MessageTypeStats, MovieID: "m1"}},
		{"sold out to movie watchers", models.Message{Type: models.MessageTypeSoldOut, MovieID: "m1", SoldOut: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li, ch, cancel := newRoutingFixture(t)
			defer cancel()

			li.route(context.Background(), mustMarshal(t, tt.msg))

			select {
			case got := <-ch:
				if got.Type != tt.msg.Type {
					t.Errorf("delivered type = %s, want %s", got.Type, tt.msg.Type)
				}
			default:
				t.Fatal("message was not delivered")
			}
		})
	}
}

func TestListenerDropsBadMessages(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"malformed json", []byte("{not json")},
		{"unknown type", []byte(`{"type":"MYSTERY","movieId":"m1","requestId":"u1"}`)},
		{"admission without requestId", []byte(`{"type":"ADMISSION","movieId":"m1"}`)},
		{"timeout without requestId", []byte(`{"type":"TIMEOUT","movieId":"m1"}`)},
		{"stats without movieId", []byte(`{"type":"STATS"}`)},
		{"sold out without movieId", []byte(`{"type":"SOLD_OUT"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			li, ch, cancel := newRoutingFixture(t)
			defer cancel()

			li.route(context.Background(), tt.payload)

			select {
			case got := <-ch:
				t.Fatalf("bad payload was delivered as %s", got.Type)
			default:
			}
		})
	}
}

func TestListenerRoutesToOtherParticipantsOnly(t *testing.T) {
	hub := NewHub(logger.InitializeTestZapLogger())
	li := &Listener{hub: hub, l: logger.InitializeTestZapLogger()}

	chA, cancelA := hub.Subscribe("uA", "m1")
	defer cancelA()
	chB, cancelB := hub.Subscribe("uB", "m2")
	defer cancelB()

	li.route(context.Background(), mustMarshal(t, models.Message{
		Type: models.MessageTypeAdmission, RequestID: "uA", MovieID: "m1",
	}))

	select {
	case <-chA:
	default:
		t.Error("uA missed their admission")
	}
	select {
	case <-chB:
		t.Error("uB received uA's admission")
	default:
	}
}
