package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
	"github.com/clinicware/clinic-appointment-service/internal/clinic"
	"github.com/clinicware/clinic-appointment-service/internal/notify"
)

type RouterConfig struct {
	Service   *clinic.Service
	Publisher notify.Publisher
	Verifier  *auth.Verifier
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Logger    *zap.Logger
	Env       string
	Version   string
	RateLimit int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimit > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	}

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	h := NewHandlers(cfg.Service, cfg.Publisher)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(cfg.Verifier))

		r.Route("/patient", func(r chi.Router) {
			r.Use(RequireRole(auth.RolePatient))
			r.Post("/appointments", h.RequestAppointment)
			r.Get("/appointments", h.ListOwnAppointments)
			r.Get("/appointments/{id}", h.GetAppointment)
			r.Delete("/appointments/{id}", h.DeleteAppointment)
			r.Get("/appointments/{id}/bill", h.GetBill)
			r.Post("/appointments/{id}/pay", h.PayBill)
			r.Get("/appointments/{id}/report", h.GetReport)
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Use(RequireRole(auth.RoleScheduler))
			r.Get("/appointments/pending", h.ListPendingAppointments)
			r.Get("/appointments/{id}", h.GetAppointment)
			r.Post("/appointments/{id}/decide", h.DecideAppointment)
			r.Get("/appointments/{id}/report", h.GetReport)
			r.Get("/patients/{subject}/appointments", h.ListPatientAppointments)
			r.Get("/report-categories", h.ListReportCategories)
			r.Get("/reports", h.ListReportsByCategory)
		})

		r.Route("/doctor", func(r chi.Router) {
			r.Use(RequireRole(auth.RoleDoctor))
			r.Get("/appointments/approved", h.ListApprovedAppointments)
			r.Get("/appointments/{id}", h.GetAppointment)
			r.Post("/appointments/{id}/report", h.CreateReport)
			r.Post("/appointments/{id}/cancel", h.CancelAppointment)
			r.Get("/appointments/{id}/report", h.GetReport)
		})

		r.Route("/receptionist", func(r chi.Router) {
			r.Use(RequireRole(auth.RoleReceptionist))
			r.Get("/appointments", h.ListBillingWorklist)
			r.Get("/appointments/{id}/billing-sheet", h.GetBillingSheet)
			r.Post("/appointments/{id}/bill", h.CreateBill)
			r.Get("/appointments/{id}/bill", h.GetBill)
			r.Post("/appointments/{id}/payment-reminder", h.SendPaymentReminder)
		})
	})

	return r
}
