package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby/internal/auth/models"
	"lobby/internal/auth/session"
	"lobby/internal/auth/store/revocation"
	"lobby/internal/platform/metrics"
	"lobby/pkg/requestcontext"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newGuard(t *testing.T) (*Guard, *session.Manager, *revocation.MemoryStore) {
	t.Helper()
	codec := session.NewCodec(testSecret, 72*time.Hour, 24*time.Hour)
	mgr := session.NewManager(codec, "lobby_session", false, 72*time.Hour)
	store := revocation.NewMemoryStore()
	m := metrics.New(prometheus.NewRegistry())
	return NewGuard(mgr, store, m, discardLogger()), mgr, store
}

func testResult() models.LoginResult {
	return models.LoginResult{
		Principal: models.Principal{
			ID:       "1",
			Username: "user",
			Email:    "user@example.com",
			Roles:    []string{"USER"},
		},
		BearerToken: "abc123",
	}
}

func requestWithSession(t *testing.T, mgr *session.Manager, sess *models.Session, now time.Time) *http.Request {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, mgr.Write(rr, sess))
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookies[0])
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

func TestAuthorizeWithoutCookie(t *testing.T) {
	guard, _, _ := newGuard(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	res := guard.Authorize(httptest.NewRecorder(), req)

	assert.False(t, res.Authorized)
	assert.Nil(t, res.Session)
}

func TestAuthorizeValidSession(t *testing.T) {
	guard, mgr, _ := newGuard(t)
	now := time.Now()
	sess := session.NewSession(testResult(), now)

	rr := httptest.NewRecorder()
	res := guard.Authorize(rr, requestWithSession(t, mgr, sess, now))

	require.True(t, res.Authorized)
	assert.Equal(t, sess.ID, res.Session.ID)
	assert.Empty(t, rr.Result().Cookies(), "inside the renewal window no cookie is reissued")
}

func TestAuthorizeRenewsStaleSession(t *testing.T) {
	guard, mgr, _ := newGuard(t)
	start := time.Now().Add(-25 * time.Hour)
	sess := session.NewSession(testResult(), start)
	now := time.Now()

	rr := httptest.NewRecorder()
	res := guard.Authorize(rr, requestWithSession(t, mgr, sess, now))

	require.True(t, res.Authorized)
	assert.Equal(t, sess.ID, res.Session.ID, "renewal keeps the session identity")
	assert.WithinDuration(t, now, res.Session.RenewedAt, time.Second)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1, "renewal must reissue the cookie")

	renewed, err := mgr.Codec().Decode(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, renewed.ID)
	assert.WithinDuration(t, now, renewed.RenewedAt, time.Second)
}

func TestAuthorizeRevokedSession(t *testing.T) {
	guard, mgr, store := newGuard(t)
	now := time.Now()
	sess := session.NewSession(testResult(), now)

	require.NoError(t, store.Revoke(context.Background(), sess.ID, now, time.Hour))

	res := guard.Authorize(httptest.NewRecorder(), requestWithSession(t, mgr, sess, now))
	assert.False(t, res.Authorized)
}

func TestAuthorizePendingRevocationStillPasses(t *testing.T) {
	guard, mgr, store := newGuard(t)
	now := time.Now()
	grace := 3500 * time.Millisecond
	sess := session.NewSession(testResult(), now)

	require.NoError(t, store.Revoke(context.Background(), sess.ID, now.Add(grace), time.Hour))

	res := guard.Authorize(httptest.NewRecorder(), requestWithSession(t, mgr, sess, now.Add(time.Second)))
	assert.True(t, res.Authorized, "grace window: the session still verifies")

	res = guard.Authorize(httptest.NewRecorder(), requestWithSession(t, mgr, sess, now.Add(grace)))
	assert.False(t, res.Authorized, "grace elapsed: the revocation is live")
}

type erroringStore struct{}

func (erroringStore) Revoke(context.Context, string, time.Time, time.Duration) error {
	return errors.New("store down")
}

func (erroringStore) IsRevoked(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("store down")
}

func TestAuthorizeFailsClosedOnStoreError(t *testing.T) {
	codec := session.NewCodec(testSecret, 72*time.Hour, 24*time.Hour)
	mgr := session.NewManager(codec, "lobby_session", false, 72*time.Hour)
	guard := NewGuard(mgr, erroringStore{}, metrics.New(prometheus.NewRegistry()), discardLogger())

	now := time.Now()
	sess := session.NewSession(testResult(), now)

	res := guard.Authorize(httptest.NewRecorder(), requestWithSession(t, mgr, sess, now))
	assert.False(t, res.Authorized, "an unverifiable session is no session")
}

func TestRequireRoleUnknownRoleNeverGates(t *testing.T) {
	// Even when the principal lists the string, a role outside the closed
	// enumeration opens nothing.
	sess := &models.Session{
		ID:          "sess-1",
		Principal:   models.Principal{ID: "1", Roles: []string{"AUDITOR"}},
		BearerToken: "abc123",
	}

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("gate must not open for an unknown role")
	})
	handler := RequireRole(models.Role("AUDITOR"), discardLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req = req.WithContext(requestcontext.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRolePageRedirects(t *testing.T) {
	sess := &models.Session{
		ID:          "sess-1",
		Principal:   models.Principal{ID: "1", Roles: []string{"USER"}},
		BearerToken: "abc123",
	}

	handler := RequireRolePage(models.RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("gate must not open without the role")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(requestcontext.WithSession(req.Context(), sess))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, LoginRoute, rr.Header().Get("Location"))
}
