package clinic

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ngophungianghi/careai-server/internal/media"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

const maxPortraitBytes = 5 << 20

// Handler exposes the doctor directory. Read endpoints are public; mutation
// endpoints are mounted behind admin auth by the router.
type Handler struct {
	repo      Repository
	portraits media.PortraitStore
	logger    *logging.Logger
}

func NewHandler(repo Repository, portraits media.PortraitStore, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("clinic: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, portraits: portraits, logger: logger}
}

// List handles GET /doctors. An optional specialty query filters the roster.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var (
		doctors []*Doctor
		err     error
	)
	if name := r.URL.Query().Get("specialty"); name != "" {
		specialty, ok := ParseSpecialty(name)
		if !ok {
			// Unknown specialty is an empty roster, not an error.
			writeJSON(w, http.StatusOK, []*Doctor{})
			return
		}
		doctors, err = h.repo.ListBySpecialty(r.Context(), specialty)
	} else {
		doctors, err = h.repo.List(r.Context())
	}
	if err != nil {
		h.logger.Error("list doctors failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

// Get handles GET /doctors/{doctorID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("get doctor failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// SpecialtyList handles GET /specialties.
func (h *Handler) SpecialtyList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Specialties)
}

// Create handles POST /admin/doctors.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var d Doctor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.repo.Create(r.Context(), &d)
	if err != nil {
		if errors.Is(err, ErrInvalidDoctor) {
			http.Error(w, "name and a known specialty are required", http.StatusBadRequest)
			return
		}
		h.logger.Error("create doctor failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("doctor created", "doctor_id", created.ID, "specialty", created.Specialty)
	writeJSON(w, http.StatusCreated, created)
}

// Update handles PUT /admin/doctors/{doctorID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var d Doctor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d.ID = chi.URLParam(r, "doctorID")

	if err := h.repo.Update(r.Context(), &d); err != nil {
		switch {
		case errors.Is(err, ErrDoctorNotFound):
			http.Error(w, "doctor not found", http.StatusNotFound)
		case errors.Is(err, ErrInvalidDoctor):
			http.Error(w, "name and a known specialty are required", http.StatusBadRequest)
		default:
			h.logger.Error("update doctor failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, &d)
}

// Delete handles DELETE /admin/doctors/{doctorID}. Existing bookings keep
// their snapshot fields and are not touched.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "doctorID")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete doctor failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("doctor deleted", "doctor_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type slotRequest struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// AddSlot handles POST /admin/doctors/{doctorID}/slots. Declaring the same
// cell twice is a no-op.
func (h *Handler) AddSlot(w http.ResponseWriter, r *http.Request) {
	h.toggleSlot(w, r, true)
}

// RemoveSlot handles DELETE /admin/doctors/{doctorID}/slots.
func (h *Handler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	h.toggleSlot(w, r, false)
}

func (h *Handler) toggleSlot(w http.ResponseWriter, r *http.Request, add bool) {
	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	slot := Slot{Date: req.Date, Time: req.Time}
	if !slot.Valid() {
		http.Error(w, "date must be YYYY-MM-DD and time a clinic hour", http.StatusBadRequest)
		return
	}

	d, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load doctor failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if add {
		d.AddSlot(slot)
	} else {
		d.RemoveSlot(slot)
	}

	if err := h.repo.Update(r.Context(), d); err != nil {
		h.logger.Error("update slots failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UploadPortrait handles POST /admin/doctors/{doctorID}/portrait. The raw
// image body is stored and the doctor's image URL updated.
func (h *Handler) UploadPortrait(w http.ResponseWriter, r *http.Request) {
	if h.portraits == nil {
		http.Error(w, "portrait storage not configured", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "doctorID")
	d, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			http.Error(w, "doctor not found", http.StatusNotFound)
			return
		}
		h.logger.Error("load doctor failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxPortraitBytes+1))
	if err != nil {
		http.Error(w, "failed to read image", http.StatusBadRequest)
		return
	}
	if len(data) == 0 {
		http.Error(w, "empty image", http.StatusBadRequest)
		return
	}
	if len(data) > maxPortraitBytes {
		http.Error(w, "image too large", http.StatusRequestEntityTooLarge)
		return
	}

	url, err := h.portraits.Put(r.Context(), id, r.Header.Get("Content-Type"), data)
	if err != nil {
		h.logger.Error("portrait upload failed", "doctor_id", id, "error", err)
		http.Error(w, "portrait upload failed", http.StatusBadGateway)
		return
	}

	d.Image = url
	if err := h.repo.Update(r.Context(), d); err != nil {
		h.logger.Error("persist portrait url failed", "doctor_id", id, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"image": url})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
