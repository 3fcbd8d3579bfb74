package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ngophungianghi/careai-server/internal/accounts"
	"github.com/ngophungianghi/careai-server/internal/booking"
	"github.com/ngophungianghi/careai-server/internal/clinic"
	"github.com/ngophungianghi/careai-server/internal/http/handlers"
	httpmiddleware "github.com/ngophungianghi/careai-server/internal/http/middleware"
	"github.com/ngophungianghi/careai-server/internal/triage"
	"github.com/ngophungianghi/careai-server/internal/webchat"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	AccountsService *accounts.Service
	AccountsHandler *accounts.Handler
	ClinicHandler   *clinic.Handler
	BookingHandler  *booking.Handler
	TriageHandler   *triage.Handler
	WebchatHandler  *webchat.Handler
	AdminDashboard  *handlers.AdminDashboardHandler

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Post("/auth/register", cfg.AccountsHandler.Register)
		public.Post("/auth/login", cfg.AccountsHandler.Login)

		public.Get("/doctors", cfg.ClinicHandler.List)
		public.Get("/doctors/{doctorID}", cfg.ClinicHandler.Get)
		public.Get("/doctors/{doctorID}/availability", cfg.BookingHandler.Availability)
		public.Get("/specialties", cfg.ClinicHandler.SpecialtyList)

		if cfg.TriageHandler != nil {
			public.Route("/triage/sessions", func(r chi.Router) {
				r.Post("/", cfg.TriageHandler.StartSession)
				r.Get("/{sessionID}", cfg.TriageHandler.GetSession)
				r.Post("/{sessionID}/messages", cfg.TriageHandler.SendMessage)
			})
		}
		if cfg.WebchatHandler != nil {
			public.Handle("/webchat/ws", cfg.WebchatHandler.WebSocketServer())
		}
	})

	// Authenticated endpoints. Role gating on bookings happens inside the
	// engine's transition table.
	r.Group(func(authed chi.Router) {
		authed.Use(httpmiddleware.Authenticate(cfg.AccountsService))

		authed.Route("/bookings", func(r chi.Router) {
			r.Post("/", cfg.BookingHandler.Create)
			r.Get("/", cfg.BookingHandler.List)
			r.Get("/{bookingID}", cfg.BookingHandler.Get)
			r.Post("/{bookingID}/cancel", cfg.BookingHandler.Cancel)
			r.Post("/{bookingID}/confirm", cfg.BookingHandler.Confirm)
			r.Post("/{bookingID}/complete", cfg.BookingHandler.Complete)
		})
	})

	// Admin console.
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(httpmiddleware.Authenticate(cfg.AccountsService))
		admin.Use(httpmiddleware.RequireRole(accounts.RoleAdmin))

		admin.Post("/doctors", cfg.ClinicHandler.Create)
		admin.Put("/doctors/{doctorID}", cfg.ClinicHandler.Update)
		admin.Delete("/doctors/{doctorID}", cfg.ClinicHandler.Delete)
		admin.Post("/doctors/{doctorID}/slots", cfg.ClinicHandler.AddSlot)
		admin.Delete("/doctors/{doctorID}/slots", cfg.ClinicHandler.RemoveSlot)
		admin.Post("/doctors/{doctorID}/portrait", cfg.ClinicHandler.UploadPortrait)

		admin.Post("/accounts/elevate", cfg.AccountsHandler.Elevate)

		if cfg.AdminDashboard != nil {
			admin.Get("/dashboard", cfg.AdminDashboard.GetDashboardOverview)
		}
	})

	return r
}
