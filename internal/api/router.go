package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fxanimal/dentists/internal/metrics"
)

type RouterConfig struct {
	Service   ClinicService
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	JWTSecret string
	Env       string
	Version   string
	Logger    zerolog.Logger
	Metrics   *metrics.ClinicMetrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(MetricsMiddleware(cfg.Metrics))

	// Ops endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Public surface
		r.Get("/slots", availableSlotsHandler(cfg.Service))
		r.Get("/dentists", dentistsHandler(cfg.Service))
		r.Get("/clinic", clinicInfoHandler(cfg.Service))
		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments", patientAppointmentsHandler(cfg.Service))

		// Admin surface: one auth chain for the whole group instead of
		// per-handler role checks.
		r.Route("/admin", func(r chi.Router) {
			r.Use(BearerAuth(cfg.JWTSecret, cfg.Service))
			r.Use(RequireAdmin)

			r.Get("/appointments/today", todayAppointmentsHandler(cfg.Service))
			r.Get("/appointments/pending", pendingAppointmentsHandler(cfg.Service))
			r.Get("/appointments/{id}", appointmentDetailsHandler(cfg.Service))
			r.Put("/appointments/{id}/status", updateAppointmentStatusHandler(cfg.Service))

			r.Get("/dentists", adminDentistsHandler(cfg.Service))
			r.Post("/dentists", createDentistHandler(cfg.Service))
			r.Get("/dentists/{id}", getDentistHandler(cfg.Service))
		})
	})

	return r
}
