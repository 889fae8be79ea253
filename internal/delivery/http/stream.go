package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devfong/cinema-gate/internal/models"
)

// Stream serves the live notification feed over Server-Sent Events.
// The subscriber receives the participant's direct messages and the
// movie's broadcasts until the client disconnects or the hub drains.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	movieID := r.URL.Query().Get("movieId")
	requestID := r.URL.Query().Get("requestId")
	if movieID == "" || requestID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "movieId and requestId are required"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.hub.Subscribe(requestID, movieID)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, msg); err != nil {
				return
			}
			flusher.Flush()
			if msg.Type == models.MessageTypeReconnect {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, msg models.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, payload)
	return err
}
