package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lobby/internal/auth/backend"
	"lobby/internal/auth/models"
	"lobby/internal/auth/store/revocation"
	dErrors "lobby/pkg/domain-errors"
	"lobby/pkg/platform/audit"
)

type fakeBackend struct {
	loginResult    models.LoginResult
	loginErr       error
	mutationResult *backend.MutationResult
	mutationErr    error
	users          []models.User
	usersErr       error

	loginCalls    int
	profileCalls  int
	passwordCalls int
	listCalls     int
	lastBearer    string
}

func (f *fakeBackend) Login(_ context.Context, _, _ string) (models.LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeBackend) UpdateProfile(_ context.Context, bearer string, _ models.UpdateProfileRequest) (*backend.MutationResult, error) {
	f.profileCalls++
	f.lastBearer = bearer
	return f.mutationResult, f.mutationErr
}

func (f *fakeBackend) UpdatePassword(_ context.Context, bearer string, _ models.UpdatePasswordRequest) (*backend.MutationResult, error) {
	f.passwordCalls++
	f.lastBearer = bearer
	return f.mutationResult, f.mutationErr
}

func (f *fakeBackend) ListUsers(_ context.Context, bearer string) ([]models.User, error) {
	f.listCalls++
	f.lastBearer = bearer
	return f.users, f.usersErr
}

type fakeAuditor struct {
	events []audit.Event
}

func (f *fakeAuditor) Publish(event audit.Event) {
	f.events = append(f.events, event)
}

func (f *fakeAuditor) kinds() []audit.Kind {
	out := make([]audit.Kind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Kind)
	}
	return out
}

func validLogin() models.LoginResult {
	return models.LoginResult{
		Principal: models.Principal{
			ID:       "1",
			Username: "user",
			Email:    "user@example.com",
			Roles:    []string{"USER"},
		},
		BearerToken:  "abc123",
		RefreshToken: "r1",
	}
}

func adminSession() *models.Session {
	return &models.Session{
		ID: "sess-admin",
		Principal: models.Principal{
			ID:       "9",
			Username: "boss",
			Email:    "boss@example.com",
			Roles:    []string{"ADMIN", "USER"},
		},
		BearerToken: "admin-token",
		IssuedAt:    time.Now(),
		RenewedAt:   time.Now(),
	}
}

func userSession() *models.Session {
	return &models.Session{
		ID: "sess-user",
		Principal: models.Principal{
			ID:       "1",
			Username: "user",
			Email:    "user@example.com",
			Roles:    []string{"USER"},
		},
		BearerToken: "abc123",
		IssuedAt:    time.Now(),
		RenewedAt:   time.Now(),
	}
}

const (
	maxAge = 72 * time.Hour
	grace  = 3500 * time.Millisecond
)

func TestLoginMintsSession(t *testing.T) {
	fb := &fakeBackend{loginResult: validLogin()}
	auditor := &fakeAuditor{}
	svc := New(fb, revocation.NewMemoryStore(), maxAge, grace, WithAuditor(auditor))

	sess, err := svc.Login(context.Background(), "user@example.com", "validpass123")
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "user", sess.Principal.Username)
	assert.Equal(t, []string{"USER"}, sess.Principal.Roles)
	assert.Equal(t, "abc123", sess.BearerToken)
	assert.True(t, sess.Usable())
	assert.Equal(t, []audit.Kind{audit.KindLogin}, auditor.kinds())
}

func TestLoginFailurePassesThrough(t *testing.T) {
	fb := &fakeBackend{loginErr: dErrors.New(dErrors.CodeInvalidCredentials, "Invalid email or password")}
	auditor := &fakeAuditor{}
	svc := New(fb, revocation.NewMemoryStore(), maxAge, grace, WithAuditor(auditor))

	_, err := svc.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredentials))
	assert.Equal(t, []audit.Kind{audit.KindLoginFailed}, auditor.kinds())
}

func TestUpdatePasswordSchedulesReauth(t *testing.T) {
	now := time.Now()
	fb := &fakeBackend{mutationResult: &backend.MutationResult{Token: "rotated-1", Message: "Password updated"}}
	auditor := &fakeAuditor{}
	revocations := revocation.NewMemoryStore()
	svc := New(fb, revocations, maxAge, grace,
		WithAuditor(auditor),
		WithClock(func() time.Time { return now }),
	)

	sess := userSession()
	outcome, err := svc.UpdatePassword(context.Background(), sess, models.UpdatePasswordRequest{
		CurrentPassword: "oldpass123", Password: "newpass123", PasswordConfirm: "newpass123",
	})
	require.NoError(t, err)

	assert.True(t, outcome.ReauthRequired)
	assert.Equal(t, grace, outcome.ReauthAfter)
	assert.Equal(t, "Password updated", outcome.Message)
	assert.Equal(t, "rotated-1", outcome.RotatedToken)
	assert.Equal(t, "abc123", fb.lastBearer)

	// The session stays usable during the grace window, then flips.
	revoked, err := revocations.IsRevoked(context.Background(), sess.ID, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, revoked, "pending-reauth: still authenticated inside the grace window")

	revoked, err = revocations.IsRevoked(context.Background(), sess.ID, now.Add(grace))
	require.NoError(t, err)
	assert.True(t, revoked, "grace elapsed: forced back to anonymous")

	assert.Equal(t, []audit.Kind{audit.KindCredentialChange, audit.KindForcedLogout}, auditor.kinds())
}

func TestUpdatePasswordFailureDoesNotRevoke(t *testing.T) {
	fb := &fakeBackend{mutationErr: dErrors.New(dErrors.CodeUnauthorized, "Session invalid, please log in again.")}
	auditor := &fakeAuditor{}
	revocations := revocation.NewMemoryStore()
	svc := New(fb, revocations, maxAge, grace, WithAuditor(auditor))

	sess := userSession()
	_, err := svc.UpdatePassword(context.Background(), sess, models.UpdatePasswordRequest{
		CurrentPassword: "bad", Password: "newpass123", PasswordConfirm: "newpass123",
	})
	require.Error(t, err)

	revoked, revErr := revocations.IsRevoked(context.Background(), sess.ID, time.Now().Add(time.Hour))
	require.NoError(t, revErr)
	assert.False(t, revoked, "a failed mutation must never force a sign-out")
	assert.Empty(t, auditor.kinds())
}

func TestUpdateProfileSchedulesReauth(t *testing.T) {
	fb := &fakeBackend{mutationResult: &backend.MutationResult{}}
	revocations := revocation.NewMemoryStore()
	svc := New(fb, revocations, maxAge, grace)

	username := "newname"
	sess := userSession()
	outcome, err := svc.UpdateProfile(context.Background(), sess, models.UpdateProfileRequest{Username: &username})
	require.NoError(t, err)
	assert.True(t, outcome.ReauthRequired)
	assert.Equal(t, "Profile updated, please log in again.", outcome.Message)
}

func TestUpdateProfileRejectsEmptyRequest(t *testing.T) {
	fb := &fakeBackend{}
	svc := New(fb, revocation.NewMemoryStore(), maxAge, grace)

	_, err := svc.UpdateProfile(context.Background(), userSession(), models.UpdateProfileRequest{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	assert.Zero(t, fb.profileCalls)
}

func TestUpdateTokensSwapsTokens(t *testing.T) {
	svc := New(&fakeBackend{}, revocation.NewMemoryStore(), maxAge, grace)

	sess := userSession()
	updated, err := svc.UpdateTokens(context.Background(), sess, models.UpdateTokensRequest{
		Token: "new-token", RefreshToken: "new-refresh",
	})
	require.NoError(t, err)

	assert.Equal(t, "new-token", updated.BearerToken)
	assert.Equal(t, "new-refresh", updated.RefreshToken)
	assert.Equal(t, sess.ID, updated.ID, "session identity survives the token swap")
	assert.Equal(t, "abc123", sess.BearerToken, "original session value object is not mutated")
}

func TestUpdateTokensRequiresToken(t *testing.T) {
	svc := New(&fakeBackend{}, revocation.NewMemoryStore(), maxAge, grace)

	_, err := svc.UpdateTokens(context.Background(), userSession(), models.UpdateTokensRequest{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestListUsersRequiresAdmin(t *testing.T) {
	fb := &fakeBackend{users: []models.User{{ID: "1", Username: "user"}}}
	svc := New(fb, revocation.NewMemoryStore(), maxAge, grace)

	_, err := svc.ListUsers(context.Background(), userSession())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Zero(t, fb.listCalls, "the gate decision precedes any backend call")

	users, err := svc.ListUsers(context.Background(), adminSession())
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "admin-token", fb.lastBearer)
}

func TestUnusableSessionRejectedEverywhere(t *testing.T) {
	fb := &fakeBackend{}
	svc := New(fb, revocation.NewMemoryStore(), maxAge, grace)
	bare := &models.Session{ID: "sess-x", Principal: models.Principal{ID: "1", Roles: []string{"ADMIN"}}}

	_, err := svc.ListUsers(context.Background(), bare)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.UpdatePassword(context.Background(), bare, models.UpdatePasswordRequest{})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.UpdateTokens(context.Background(), bare, models.UpdateTokensRequest{Token: "x"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	assert.Zero(t, fb.listCalls+fb.passwordCalls)
}
