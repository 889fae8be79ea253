package ticket

import (
	"bytes"
	"testing"
	"time"

	"github.com/devfong/cinema-gate/internal/models"
)

func TestRenderProducesPDF(t *testing.T) {
	booking := &models.Booking{
		BookingID:  "BK-test-1234",
		MovieID:    "m1",
		TheaterID:  "t1",
		Seats:      []string{"A1", "A2"},
		TotalPrice: 30000,
		RequestID:  "u1",
		BookedAt:   time.Date(2026, 8, 1, 19, 30, 0, 0, time.UTC),
	}

	pdf, err := Render(booking)
	if err != nil {
		t.Fatal(err)
	}
	if len(pdf) == 0 {
		t.Fatal("empty output")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Errorf("output does not start with %%PDF header")
	}
}
