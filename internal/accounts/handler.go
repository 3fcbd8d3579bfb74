package accounts

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler constructs an accounts handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("accounts: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingPhone), errors.Is(err, ErrMissingName), errors.Is(err, ErrWeakPassword):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrUserExists):
			http.Error(w, "phone number already registered", http.StatusConflict)
		default:
			h.logger.Error("register failed", "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(u)
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, u, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, "invalid phone or password", http.StatusUnauthorized)
			return
		}
		h.logger.Error("login failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loginResponse{Token: token, User: u})
}

type elevateRequest struct {
	Phone    string `json:"phone"`
	DoctorID string `json:"doctor_id"`
}

// Elevate handles POST /admin/accounts/elevate. The router guards it with
// the admin role.
func (h *Handler) Elevate(w http.ResponseWriter, r *http.Request) {
	var req elevateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone == "" || req.DoctorID == "" {
		http.Error(w, "phone and doctor_id are required", http.StatusBadRequest)
		return
	}

	u, err := h.service.ElevateToDoctor(r.Context(), req.Phone, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "account not found", http.StatusNotFound)
			return
		}
		h.logger.Error("elevate failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}
