package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ngophungianghi/careai-server/internal/http/middleware"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// Handler exposes the booking lifecycle over HTTP. Every endpoint requires
// an authenticated actor; role gating happens inside the engine.
type Handler struct {
	engine *Engine
	logger *logging.Logger
}

func NewHandler(engine *Engine, logger *logging.Logger) *Handler {
	if engine == nil {
		panic("booking: engine required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

func actorFromRequest(r *http.Request) (Actor, string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return Actor{}, "", false
	}
	return Actor{
		Role:     Role(claims.Role),
		Phone:    claims.Subject,
		DoctorID: claims.DoctorID,
	}, claims.FullName, true
}

// Create handles POST /bookings.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, fullName, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "missing authorization", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	b, err := h.engine.Create(r.Context(), req, actor, fullName)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(b)
}

// List handles GET /bookings, scoped to the actor's role.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "missing authorization", http.StatusUnauthorized)
		return
	}

	bookings, err := h.engine.ListFor(r.Context(), actor)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

// Get handles GET /bookings/{bookingID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "missing authorization", http.StatusUnauthorized)
		return
	}

	b, err := h.engine.Get(r.Context(), chi.URLParam(r, "bookingID"), actor)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

// Cancel handles POST /bookings/{bookingID}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusCancelled)
}

// Confirm handles POST /bookings/{bookingID}/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusConfirmed)
}

// Complete handles POST /bookings/{bookingID}/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, StatusCompleted)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, target Status) {
	actor, _, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "missing authorization", http.StatusUnauthorized)
		return
	}

	b, err := h.engine.Transition(r.Context(), chi.URLParam(r, "bookingID"), target, actor)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b)
}

type availabilityResponse struct {
	DoctorID      string   `json:"doctor_id"`
	Date          string   `json:"date"`
	OccupiedTimes []string `json:"occupied_times"`
}

// Availability handles GET /doctors/{doctorID}/availability?date=YYYY-MM-DD.
// It is public: patients consult it before logging in to book.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}

	occupied, err := h.engine.OccupiedTimes(r.Context(), doctorID, date)
	if err != nil {
		h.logger.Error("availability lookup failed", "doctor_id", doctorID, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(availabilityResponse{
		DoctorID:      doctorID,
		Date:          date,
		OccupiedTimes: occupied,
	})
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSlot):
		http.Error(w, "this doctor has no such opening", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrSlotAlreadyBooked):
		http.Error(w, "slot already booked, please pick another time", http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "action not permitted for this booking", http.StatusForbidden)
	case errors.Is(err, ErrOrphanedDoctor):
		http.Error(w, "this doctor is no longer available for booking", http.StatusGone)
	case errors.Is(err, ErrBookingNotFound):
		http.Error(w, "booking not found", http.StatusNotFound)
	default:
		h.logger.Error("booking operation failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
