package middleware

import (
	"log/slog"
	"net/http"

	"lobby/internal/auth/models"
	"lobby/internal/auth/session"
	"lobby/internal/auth/store/revocation"
	"lobby/internal/platform/metrics"
	dErrors "lobby/pkg/domain-errors"
	"lobby/pkg/platform/httputil"
	"lobby/pkg/requestcontext"
)

// LoginRoute is where unauthenticated page requests are sent.
const LoginRoute = "/login"

// Result is the guard's tagged decision. Callers match on Authorized rather
// than relying on a side-effecting redirect aborting control flow.
type Result struct {
	Authorized bool
	Session    *models.Session
	Reason     string
}

// Guard resolves the session for a request: cookie decode, revocation check,
// and sliding renewal. It is read-side only from the caller's perspective;
// the one write it performs is reissuing the cookie when the renewal window
// has elapsed.
type Guard struct {
	sessions    *session.Manager
	revocations revocation.Store
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewGuard(sessions *session.Manager, revocations revocation.Store, m *metrics.Metrics, logger *slog.Logger) *Guard {
	return &Guard{
		sessions:    sessions,
		revocations: revocations,
		metrics:     m,
		logger:      logger,
	}
}

// Authorize decides whether the request carries a usable session. A session
// that decodes but has been revoked (or cannot be checked) is treated
// identically to "never logged in". No protected work may happen before
// this decision.
func (g *Guard) Authorize(w http.ResponseWriter, r *http.Request) Result {
	ctx := r.Context()

	s, err := g.sessions.Read(r)
	if err != nil {
		return Result{Reason: "no session"}
	}
	if !s.Usable() {
		return Result{Reason: "session has no bearer token"}
	}

	now := requestcontext.Now(ctx)

	revoked, err := g.revocations.IsRevoked(ctx, s.ID, now)
	if err != nil {
		// Fail closed: an unverifiable session is no session.
		g.logger.ErrorContext(ctx, "revocation check failed",
			"session_id", s.ID,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return Result{Reason: "revocation check failed"}
	}
	if revoked {
		return Result{Reason: "session revoked"}
	}

	if g.sessions.Codec().ShouldRenew(s, now) {
		renewed := g.sessions.Codec().Renew(s, now)
		if err := g.sessions.Write(w, renewed); err != nil {
			g.logger.ErrorContext(ctx, "session renewal failed",
				"session_id", s.ID,
				"error", err,
			)
		} else {
			s = renewed
			if g.metrics != nil {
				g.metrics.SessionRenewals.Inc()
			}
		}
	}

	return Result{Authorized: true, Session: s}
}

// RequireSession is the API-route guard: unauthorized requests get a 401
// envelope, authorized ones proceed with the session in context.
func RequireSession(guard *Guard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := guard.Authorize(w, r)
			if !res.Authorized {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access",
					"reason", res.Reason,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated"))
				return
			}
			ctx := requestcontext.WithSession(r.Context(), res.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePage is the page-route guard: unauthorized requests get an HTTP
// redirect to the login route before any protected content is produced.
func RequirePage(guard *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := guard.Authorize(w, r)
			if !res.Authorized {
				http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
				return
			}
			ctx := requestcontext.WithSession(r.Context(), res.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRolePage is the page variant of the role gate: a failed gate
// redirects to the login route exactly like a missing session would, so the
// response never hints that the page exists for someone else.
func RequireRolePage(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := requestcontext.Session(r.Context())
			if s == nil || !s.Principal.HasRole(role) {
				http.Redirect(w, r, LoginRoute, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on a role from the closed enumeration. A failed
// gate is indistinguishable from being unauthenticated: no partial admin
// data, no role disclosure.
func RequireRole(role models.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s := requestcontext.Session(ctx)
			if s == nil || !s.Principal.HasRole(role) {
				logger.WarnContext(ctx, "role gate failed",
					"required_role", string(role),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
