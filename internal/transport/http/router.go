// Package httptransport is the thin HTTP layer. It delegates to the auth
// service and keeps transport concerns (cookies, envelopes, redirects) out
// of business logic.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lobby/internal/auth/models"
	authservice "lobby/internal/auth/service"
	"lobby/internal/auth/session"
	"lobby/internal/platform/metrics"
	"lobby/internal/platform/middleware"
)

// AuthService is the interface the handlers require from the service layer.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Logout(ctx context.Context, sess *models.Session)
	UpdateProfile(ctx context.Context, sess *models.Session, req models.UpdateProfileRequest) (*authservice.ReauthOutcome, error)
	UpdatePassword(ctx context.Context, sess *models.Session, req models.UpdatePasswordRequest) (*authservice.ReauthOutcome, error)
	UpdateTokens(ctx context.Context, sess *models.Session, req models.UpdateTokensRequest) (*models.Session, error)
	ListUsers(ctx context.Context, sess *models.Session) ([]models.User, error)
}

// HealthChecker reports readiness of an optional dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler wires the gateway's routes.
type Handler struct {
	logger   *slog.Logger
	metrics  *metrics.Metrics
	sessions *session.Manager
	guard    *middleware.Guard
	auth     AuthService
	redis    HealthChecker
	registry *prometheus.Registry
}

func NewHandler(
	auth AuthService,
	sessions *session.Manager,
	guard *middleware.Guard,
	logger *slog.Logger,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	redis HealthChecker,
) *Handler {
	return &Handler{
		logger:   logger,
		metrics:  m,
		sessions: sessions,
		guard:    guard,
		auth:     auth,
		redis:    redis,
		registry: registry,
	}
}

// NewRouter assembles the full route tree.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(h.metrics))

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{}))
	r.Get(middleware.LoginRoute, h.handleLoginPage)

	// Public auth surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)
	})

	// Authenticated API surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireSession(h.guard, h.logger))
		r.Get("/auth/session", h.handleSession)
		r.Post("/api/auth/update-jwt", h.handleUpdateJWT)
		r.Patch("/account/me", h.handleUpdateProfile)
		r.Patch("/account/me/password", h.handleUpdatePassword)
		// JSON flavor of the listing for client-side table refreshes.
		r.With(middleware.RequireRole(models.RoleAdmin, h.logger)).Get("/api/users", h.handleListUsers)
	})

	// Protected page surface: absent sessions redirect, they never 200.
	// The user listing is additionally role-gated; a failed gate renders
	// exactly like a missing session.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePage(h.guard))
		r.Get("/dashboard", h.handleDashboard)
		r.With(middleware.RequireRolePage(models.RoleAdmin)).Get("/users", h.handleListUsers)
	})

	return r
}
