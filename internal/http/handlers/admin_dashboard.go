package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// AdminDashboardHandler serves the clinic overview for the admin console.
// It reads aggregates straight off the relational store via database/sql;
// the dashboard tolerates missing tables by reporting zeros.
type AdminDashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewAdminDashboardHandler creates a new admin dashboard handler.
func NewAdminDashboardHandler(db *sql.DB, logger *logging.Logger) *AdminDashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminDashboardHandler{db: db, logger: logger}
}

// DashboardOverviewResponse contains the main dashboard metrics.
type DashboardOverviewResponse struct {
	GeneratedAt string           `json:"generated_at"`
	Bookings    BookingOverview  `json:"bookings"`
	Doctors     DoctorOverview   `json:"doctors"`
	Patients    PatientOverview  `json:"patients"`
	Specialties []SpecialtyCount `json:"top_specialties"`
}

// BookingOverview counts bookings by lifecycle state.
type BookingOverview struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Today     int `json:"today"`
}

// DoctorOverview counts the doctor roster.
type DoctorOverview struct {
	Total int `json:"total"`
}

// PatientOverview counts registered patient accounts.
type PatientOverview struct {
	Total int `json:"total"`
}

// SpecialtyCount is one row of the most-booked specialties.
type SpecialtyCount struct {
	Specialty string `json:"specialty"`
	Count     int    `json:"count"`
}

// GetDashboardOverview returns the clinic overview.
// GET /admin/dashboard
func (h *AdminDashboardHandler) GetDashboardOverview(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		http.Error(w, "dashboard requires a database", http.StatusServiceUnavailable)
		return
	}

	dashboard := DashboardOverviewResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}

	ctx := r.Context()
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings`,
	).Scan(&dashboard.Bookings.Total)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = 'pending'`,
	).Scan(&dashboard.Bookings.Pending)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = 'confirmed'`,
	).Scan(&dashboard.Bookings.Confirmed)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = 'completed'`,
	).Scan(&dashboard.Bookings.Completed)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE status = 'cancelled'`,
	).Scan(&dashboard.Bookings.Cancelled)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE booking_date = CURRENT_DATE`,
	).Scan(&dashboard.Bookings.Today)

	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM doctors`,
	).Scan(&dashboard.Doctors.Total)
	h.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'patient'`,
	).Scan(&dashboard.Patients.Total)

	rows, err := h.db.QueryContext(ctx, `
		SELECT specialty, COUNT(*) AS c
		FROM bookings
		GROUP BY specialty
		ORDER BY c DESC
		LIMIT 5
	`)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var sc SpecialtyCount
			if err := rows.Scan(&sc.Specialty, &sc.Count); err == nil {
				dashboard.Specialties = append(dashboard.Specialties, sc)
			}
		}
	} else {
		h.logger.Error("dashboard specialty query failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboard)
}
