package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Long-lived connection, must not inherit the request timeout.
	r.Get("/admission/stream", h.Stream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/healthz", h.Healthz)

		r.Route("/admission", func(r chi.Router) {
			r.Post("/enter", h.Enter)
			r.Post("/leave", h.Leave)
			r.Get("/status", h.Status)
			r.Post("/complete", h.CompleteBooking)
			r.Get("/system/config", h.SystemConfig)
			r.Get("/system/stats", h.SystemStats)
		})

		r.Get("/theaters/{movieID}", h.Theaters)

		r.Post("/seats/select", h.SelectSeats)

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", h.ListBookings)
			r.Get("/{bookingID}/ticket", h.Ticket)
		})
	})

	return r
}
