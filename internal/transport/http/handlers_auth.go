package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"

	"lobby/internal/auth/models"
	"lobby/internal/platform/middleware"
	dErrors "lobby/pkg/domain-errors"
	"lobby/pkg/platform/httputil"
	"lobby/pkg/requestcontext"
)

// sessionView is what authenticated callers see of their own session. The
// bearer and refresh tokens never leave the signed cookie.
type sessionView struct {
	User      models.Principal `json:"user"`
	IssuedAt  string           `json:"issued_at"`
	RenewedAt string           `json:"renewed_at"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := validateLoginRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	sess, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	if err := h.sessions.Write(w, sess); err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session cookie",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sessionView{
		User:      sess.Principal,
		IssuedAt:  sess.IssuedAt.UTC().Format(timeLayout),
		RenewedAt: sess.RenewedAt.UTC().Format(timeLayout),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Logout works with or without a live session; the cookie is cleared
	// either way and the browser lands on the login page.
	if res := h.guard.Authorize(w, r); res.Authorized {
		h.auth.Logout(r.Context(), res.Session)
	}
	h.sessions.Clear(w)
	http.Redirect(w, r, middleware.LoginRoute, http.StatusSeeOther)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := requestcontext.Session(r.Context())
	httputil.WriteJSON(w, http.StatusOK, sessionView{
		User:      sess.Principal,
		IssuedAt:  sess.IssuedAt.UTC().Format(timeLayout),
		RenewedAt: sess.RenewedAt.UTC().Format(timeLayout),
	})
}

// handleLoginPage is the redirect target for anonymous requests. The real
// dashboard serves its own login UI; the gateway only needs the route to
// exist so redirects resolve.
func (h *Handler) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("<!doctype html><title>Sign in</title><p>Please sign in.</p>"))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := requestcontext.Session(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"user":  sess.Principal,
		"admin": sess.Principal.HasRole(models.RoleAdmin),
	})
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func validateLoginRequest(req models.LoginRequest) error {
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	if !govalidator.StringLength(req.Password, "8", "128") {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	return nil
}
