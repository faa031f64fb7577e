// Package service orchestrates the session lifecycle: credential exchange,
// session issuance, credential-changing mutations with forced re-auth, and
// the role-gated proxy operations.
package service

import (
	"context"
	"log/slog"
	"time"

	"lobby/internal/auth/backend"
	"lobby/internal/auth/models"
	"lobby/internal/auth/session"
	"lobby/internal/auth/store/revocation"
	"lobby/internal/platform/metrics"
	dErrors "lobby/pkg/domain-errors"
	"lobby/pkg/platform/audit"
)

// Backend is the outbound API surface the service depends on.
type Backend interface {
	Login(ctx context.Context, email, password string) (models.LoginResult, error)
	UpdateProfile(ctx context.Context, bearer string, req models.UpdateProfileRequest) (*backend.MutationResult, error)
	UpdatePassword(ctx context.Context, bearer string, req models.UpdatePasswordRequest) (*backend.MutationResult, error)
	ListUsers(ctx context.Context, bearer string) ([]models.User, error)
}

// Auditor is the slice of the audit publisher the service uses.
type Auditor interface {
	Publish(event audit.Event)
}

// Service implements the session gateway's business rules.
type Service struct {
	backend     Backend
	revocations revocation.Store
	maxAge      time.Duration
	reauthGrace time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor Auditor
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditor(a Auditor) Option {
	return func(s *Service) { s.auditor = a }
}

// WithClock pins the service clock; tests use it to cross the reauth grace.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(b Backend, revocations revocation.Store, maxAge, reauthGrace time.Duration, opts ...Option) *Service {
	s := &Service{
		backend:     b,
		revocations: revocations,
		maxAge:      maxAge,
		reauthGrace: reauthGrace,
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login exchanges credentials and mints a fresh session. The uniform
// invalid-credentials failure from the backend client passes through
// untouched so the form shows one generic error regardless of which field
// was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*models.Session, error) {
	res, err := s.backend.Login(ctx, email, password)
	if err != nil {
		if s.metrics != nil {
			s.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		s.audit(audit.NewEvent(audit.KindLoginFailed, "", ""))
		return nil, err
	}

	sess := session.NewSession(res, s.now())

	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	s.audit(audit.NewEvent(audit.KindLogin, sess.Principal.ID, sess.ID))

	return sess, nil
}

// Logout records the sign-out. Cookie clearing is the transport's job.
func (s *Service) Logout(ctx context.Context, sess *models.Session) {
	_ = ctx
	if sess != nil {
		s.audit(audit.NewEvent(audit.KindLogout, sess.Principal.ID, sess.ID))
	}
}

// ReauthOutcome describes a successful credential-changing mutation. The
// session enters pending-reauth: it stays valid for ReauthAfter so the user
// can read the notification, then the revocation activates and the next
// request lands on the login page.
type ReauthOutcome struct {
	Message        string
	ReauthRequired bool
	ReauthAfter    time.Duration
	RotatedToken   string
}

// UpdateProfile proxies a username/email change. On success the current
// session is scheduled for revocation rather than silently swapping in the
// rotated token: every page rerenders with a clean session after re-login.
func (s *Service) UpdateProfile(ctx context.Context, sess *models.Session, req models.UpdateProfileRequest) (*ReauthOutcome, error) {
	if !sess.Usable() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
	}
	if req.Username == nil && req.Email == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "Nothing to update")
	}

	res, err := s.backend.UpdateProfile(ctx, sess.BearerToken, req)
	if err != nil {
		return nil, err
	}
	return s.scheduleReauth(ctx, sess, res, "Profile updated, please log in again.")
}

// UpdatePassword proxies a password change with the same forced re-auth
// policy as profile updates.
func (s *Service) UpdatePassword(ctx context.Context, sess *models.Session, req models.UpdatePasswordRequest) (*ReauthOutcome, error) {
	if !sess.Usable() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
	}

	res, err := s.backend.UpdatePassword(ctx, sess.BearerToken, req)
	if err != nil {
		return nil, err
	}
	return s.scheduleReauth(ctx, sess, res, "Password updated, please log in again.")
}

func (s *Service) scheduleReauth(ctx context.Context, sess *models.Session, res *backend.MutationResult, fallbackMsg string) (*ReauthOutcome, error) {
	now := s.now()
	effectiveAt := now.Add(s.reauthGrace)
	// TTL covers the grace plus the longest the old artifact could still
	// verify; after that the denylist entry is dead weight and may lapse.
	ttl := s.reauthGrace + s.maxAge

	if err := s.revocations.Revoke(ctx, sess.ID, effectiveAt, ttl); err != nil {
		// The credential change already happened backend-side. Surface the
		// failure loudly but still tell the client to re-auth.
		s.logger.ErrorContext(ctx, "failed to schedule session revocation",
			"session_id", sess.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
	}

	if s.metrics != nil {
		s.metrics.ForcedLogouts.Inc()
	}
	event := audit.NewEvent(audit.KindCredentialChange, sess.Principal.ID, sess.ID)
	s.audit(event)
	s.audit(audit.NewEvent(audit.KindForcedLogout, sess.Principal.ID, sess.ID))

	message := fallbackMsg
	if res != nil && res.Message != "" {
		message = res.Message
	}
	outcome := &ReauthOutcome{
		Message:        message,
		ReauthRequired: true,
		ReauthAfter:    s.reauthGrace,
	}
	if res != nil {
		outcome.RotatedToken = res.Token
	}
	return outcome, nil
}

// UpdateTokens swaps the backend tokens on the session. The returned session
// must be re-signed into a fresh cookie by the transport; that explicit
// re-issue is what makes the mutation durable in the browser.
func (s *Service) UpdateTokens(ctx context.Context, sess *models.Session, req models.UpdateTokensRequest) (*models.Session, error) {
	_ = ctx
	if !sess.Usable() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
	}
	if req.Token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "token is required")
	}

	updated := *sess
	updated.BearerToken = req.Token
	updated.RefreshToken = req.RefreshToken
	return &updated, nil
}

// ListUsers proxies the admin-only user listing. The transport layer gates
// the route; the service checks again so no caller can bypass the gate.
func (s *Service) ListUsers(ctx context.Context, sess *models.Session) ([]models.User, error) {
	if !sess.Usable() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
	}
	if !sess.Principal.HasRole(models.RoleAdmin) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
	}
	return s.backend.ListUsers(ctx, sess.BearerToken)
}

func (s *Service) audit(event audit.Event) {
	if s.auditor != nil {
		s.auditor.Publish(event)
	}
}
