package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/carebridge/healthcare-portal/internal/appointment"
	"github.com/carebridge/healthcare-portal/internal/assistant"
	"github.com/carebridge/healthcare-portal/internal/docstore"
	"github.com/carebridge/healthcare-portal/internal/identity"
	"github.com/carebridge/healthcare-portal/internal/medhistory"
	"github.com/carebridge/healthcare-portal/internal/prescription"
	redisclient "github.com/carebridge/healthcare-portal/internal/redis"
	"github.com/carebridge/healthcare-portal/internal/user"
)

type RouterConfig struct {
	Users         *user.Service
	Appointments  *appointment.Service
	Prescriptions *prescription.Service
	Histories     *medhistory.Service
	Assistant     *assistant.Client

	Provider  identity.Provider
	Store     docstore.Store
	RoleCache redisclient.RoleCache

	Logger  zerolog.Logger
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/auth/signup", signupHandler(cfg.Users, cfg.Provider))
	r.Post("/auth/login", loginHandler(cfg.Provider, cfg.Store, cfg.Users))

	auth := NewAuthenticator(cfg.Provider, cfg.Store, cfg.RoleCache, cfg.Logger)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/auth/logout", logoutHandler(cfg.Provider, cfg.RoleCache))
		r.Get("/auth/me", meHandler(cfg.Users))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", listUsersHandler(cfg.Users))
			r.Post("/", createUserHandler(cfg.Users))
			r.Get("/{id}", getUserHandler(cfg.Users))
			r.Patch("/{id}", updateUserHandler(cfg.Users))
			r.Post("/{id}/activate", setUserActiveHandler(cfg.Users, true))
			r.Post("/{id}/deactivate", setUserActiveHandler(cfg.Users, false))
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", createAppointmentHandler(cfg.Appointments))
			r.Get("/", listAppointmentsHandler(cfg.Appointments))
			r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
			r.Patch("/{id}", updateAppointmentHandler(cfg.Appointments))
			r.Post("/{id}/cancel", cancelAppointmentHandler(cfg.Appointments))
		})

		r.Route("/prescriptions", func(r chi.Router) {
			r.Post("/", createPrescriptionHandler(cfg.Prescriptions))
			r.Get("/", listPrescriptionsHandler(cfg.Prescriptions))
			r.Patch("/{id}", updatePrescriptionHandler(cfg.Prescriptions))
			r.Delete("/{id}", deletePrescriptionHandler(cfg.Prescriptions))
		})

		r.Route("/patients/{id}/medical-history", func(r chi.Router) {
			r.Get("/", getMedicalHistoryHandler(cfg.Histories))
			r.Put("/", saveMedicalHistoryHandler(cfg.Histories))
			r.Post("/{section}", addMedicalHistoryItemHandler(cfg.Histories))
			r.Delete("/{section}/{itemId}", removeMedicalHistoryItemHandler(cfg.Histories))
		})

		r.Route("/medical-history", func(r chi.Router) {
			r.Get("/", listMedicalHistoriesHandler(cfg.Histories))
			r.Get("/search", searchMedicalHistoriesHandler(cfg.Histories))
		})

		r.Post("/assistant/chat", chatHandler(cfg.Assistant))
	})

	return r
}
