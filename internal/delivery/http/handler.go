package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/devfong/cinema-gate/internal/metrics"
	"github.com/devfong/cinema-gate/internal/models"
	"github.com/devfong/cinema-gate/internal/notification"
	mysqlrepo "github.com/devfong/cinema-gate/internal/repository/mysql"
	"github.com/devfong/cinema-gate/internal/scheduler"
	"github.com/devfong/cinema-gate/internal/service"
	"github.com/devfong/cinema-gate/pkg/logger"
	"github.com/devfong/cinema-gate/pkg/ticket"
)

type Handler struct {
	admission service.AdmissionService
	seats     service.SeatService
	bookings  service.BookingService
	theaters  service.TheaterService
	hub       *notification.Hub
	reg       *metrics.Registry
	drivers   []*scheduler.Driver
	validate  *validator.Validate
	l         logger.Logger
}

func NewHandler(
	admission service.AdmissionService,
	seats service.SeatService,
	bookings service.BookingService,
	theaters service.TheaterService,
	hub *notification.Hub,
	reg *metrics.Registry,
	drivers []*scheduler.Driver,
	l logger.Logger,
) *Handler {
	return &Handler{
		admission: admission,
		seats:     seats,
		bookings:  bookings,
		theaters:  theaters,
		hub:       hub,
		reg:       reg,
		drivers:   drivers,
		validate:  validator.New(),
		l:         l,
	}
}

type enterRequest struct {
	MovieID   string `json:"movieId" validate:"required"`
	RequestID string `json:"requestId" validate:"required"`
}

func (h *Handler) Enter(w http.ResponseWriter, r *http.Request) {
	var req enterRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.admission.Enter(r.Context(), req.MovieID, req.RequestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if !res.Status.Admitted() {
		status = http.StatusAccepted
	}
	h.writeJSON(w, status, res)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	var req enterRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.admission.Leave(r.Context(), req.MovieID, req.RequestID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "LEFT"})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	movieID := r.URL.Query().Get("movieId")
	requestID := r.URL.Query().Get("requestId")

	res, err := h.admission.Status(r.Context(), movieID, requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SystemConfig(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.admission.SystemConfig(r.Context()))
}

func (h *Handler) SystemStats(w http.ResponseWriter, r *http.Request) {
	processors := make([]scheduler.DriverStatus, 0, len(h.drivers))
	for _, d := range h.drivers {
		processors = append(processors, d.Status())
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"metrics":     h.reg.Snapshot(),
		"processors":  processors,
		"subscribers": h.hub.SubscriberCount(),
	})
}

type selectSeatsRequest struct {
	MovieID   string   `json:"movieId" validate:"required"`
	TheaterID string   `json:"theaterId" validate:"required"`
	RequestID string   `json:"requestId" validate:"required"`
	Seats     []string `json:"seats" validate:"required,min=1,dive,required"`
}

func (h *Handler) SelectSeats(w http.ResponseWriter, r *http.Request) {
	var req selectSeatsRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.seats.SelectSeats(r.Context(), req.MovieID, req.TheaterID, req.RequestID, req.Seats)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Status == models.SeatLockStatusConflict {
		status = http.StatusConflict
	}
	h.writeJSON(w, status, res)
}

type completeBookingRequest struct {
	MovieID   string   `json:"movieId" validate:"required"`
	TheaterID string   `json:"theaterId" validate:"required"`
	RequestID string   `json:"requestId" validate:"required"`
	Seats     []string `json:"seats" validate:"required,min=1,dive,required"`
}

func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	var req completeBookingRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.bookings.CompleteBooking(r.Context(), req.MovieID, req.TheaterID, req.RequestID, req.Seats)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("requestId")

	bookings, err := h.bookings.ListBookings(r.Context(), requestID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}

	h.writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) Ticket(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	booking, err := h.bookings.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pdf, err := ticket.Render(booking)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+booking.BookingID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handler) Theaters(w http.ResponseWriter, r *http.Request) {
	movieID := chi.URLParam(r, "movieID")

	listing, err := h.theaters.ListForMovie(r.Context(), movieID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if listing.Theaters == nil {
		listing.Theaters = []*models.TheaterInfo{}
	}

	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrMissingMovieID),
		errors.Is(err, service.ErrMissingRequestID),
		errors.Is(err, service.ErrMissingTheaterID),
		errors.Is(err, service.ErrNoSeatsSelected),
		errors.Is(err, service.ErrTooManySeats),
		errors.Is(err, service.ErrInvalidSeatID):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, mysqlrepo.ErrBookingNotFound),
		errors.Is(err, mysqlrepo.ErrTheaterNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.l.Errorf(r.Context(), "http: %s %s: %v", r.Method, r.URL.Path, err)
		h.writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}

	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.l.Errorf(context.Background(), "http: encode response: %v", err)
	}
}
