// Package backend is the gateway's client for the identity/analytics API.
// It owns the credential exchange and every authorized outbound call: bearer
// attachment, cache suppression, and translation of backend error bodies
// into typed, displayable failures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"lobby/internal/auth/models"
	"lobby/internal/platform/metrics"
	dErrors "lobby/pkg/domain-errors"
)

const (
	loginPath    = "/auth/login"
	mePath       = "/users/me"
	passwordPath = "/users/me/password"
	usersPath    = "/users"
)

// Client calls the backend API. All methods are safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("lobby/internal/auth/backend"),
	}
}

// loginResponse accepts both response shapes the backend has shipped: the
// nested {"user":{...},"token":...} form and the flat one.
type loginResponse struct {
	User         *models.Principal `json:"user"`
	ID           string            `json:"id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Roles        []string          `json:"roles"`
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
}

// Login exchanges credentials for a principal and bearer token. Every
// non-success status collapses into one uniform invalid-credentials failure
// so callers cannot distinguish which field was wrong.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	body, status, err := c.do(ctx, http.MethodPost, loginPath, "", models.LoginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return models.LoginResult{}, err
	}
	if status < 200 || status >= 300 {
		return models.LoginResult{}, dErrors.New(dErrors.CodeInvalidCredentials, "Invalid email or password")
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.LoginResult{}, dErrors.Wrap(err, dErrors.CodeBackendRejected, "Login response could not be read")
	}

	principal := models.Principal{
		ID:       resp.ID,
		Username: resp.Username,
		Email:    resp.Email,
		Roles:    resp.Roles,
	}
	if resp.User != nil {
		principal = *resp.User
	}

	if principal.ID == "" || resp.Token == "" || len(principal.Roles) == 0 {
		return models.LoginResult{}, dErrors.New(dErrors.CodeBackendRejected, "Login response was incomplete")
	}

	return models.LoginResult{
		Principal:    principal,
		BearerToken:  resp.Token,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// MutationResult is the parsed body of a credential-mutating call. The
// backend rotates the bearer token on identity changes; the caller decides
// whether to swap it into the session or force a re-login.
type MutationResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
}

// UpdateProfile patches username/email for the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, bearer string, req models.UpdateProfileRequest) (*MutationResult, error) {
	return c.mutate(ctx, mePath, bearer, req)
}

// UpdatePassword changes the authenticated user's password.
func (c *Client) UpdatePassword(ctx context.Context, bearer string, req models.UpdatePasswordRequest) (*MutationResult, error) {
	return c.mutate(ctx, passwordPath, bearer, req)
}

func (c *Client) mutate(ctx context.Context, path, bearer string, reqBody any) (*MutationResult, error) {
	if bearer == "" {
		return nil, errUnauthenticated()
	}
	body, status, err := c.do(ctx, http.MethodPatch, path, bearer, reqBody)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, rejection(status, body)
	}

	var res MutationResult
	if len(body) > 0 {
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeBackendRejected, "Response could not be read")
		}
	}
	return &res, nil
}

// ListUsers fetches the full user listing. The role gate lives with the
// caller; this method only requires a resolvable bearer token.
func (c *Client) ListUsers(ctx context.Context, bearer string) ([]models.User, error) {
	if bearer == "" {
		return nil, errUnauthenticated()
	}
	body, status, err := c.do(ctx, http.MethodGet, usersPath, bearer, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, rejection(status, body)
	}

	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBackendRejected, "User listing could not be read")
	}
	return users, nil
}

// do performs one backend call and returns the raw body and status. Network
// failures are wrapped; HTTP-level rejection is left to the caller since the
// login path treats it differently from authorized calls.
func (c *Client) do(ctx context.Context, method, path, bearer string, reqBody any) ([]byte, int, error) {
	ctx, span := c.tracer.Start(ctx, "backend"+path, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	var bodyReader io.Reader
	if reqBody != nil {
		encoded, err := json.Marshal(reqBody)
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "internal error")
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	// Every call must reflect current backend state.
	req.Header.Set("Cache-Control", "no-store")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "backend call failed",
			"method", method,
			"path", path,
			"error", err,
		)
		if ctx.Err() != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeTimeout, "The server took too long to respond")
		}
		return nil, 0, dErrors.Wrap(err, dErrors.CodeBackendRejected, "The server could not be reached")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeBackendRejected, "Response could not be read")
	}

	if c.metrics != nil {
		c.metrics.BackendRequests.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()
		c.metrics.BackendLatency.Observe(time.Since(start).Seconds())
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return body, resp.StatusCode, nil
}

// rejection converts a non-2xx authorized response into a typed failure. The
// JSON body's "message" field wins when present; otherwise the message falls
// back to one keyed off the status. 403 always means the session went stale.
func rejection(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &parsed)

	if status == http.StatusForbidden {
		return dErrors.New(dErrors.CodeUnauthorized, "Session invalid, please log in again.")
	}

	message := parsed.Message
	if message == "" {
		message = fallbackMessage(status)
	}

	switch status {
	case http.StatusBadRequest:
		return dErrors.New(dErrors.CodeBadRequest, message)
	case http.StatusUnauthorized:
		return dErrors.New(dErrors.CodeUnauthorized, message)
	case http.StatusNotFound:
		return dErrors.New(dErrors.CodeNotFound, message)
	case http.StatusConflict:
		return dErrors.New(dErrors.CodeConflict, message)
	default:
		return dErrors.New(dErrors.CodeBackendRejected, message)
	}
}

func fallbackMessage(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "Not authenticated"
	case status == http.StatusNotFound:
		return "Not found"
	case status >= 500:
		return "The server could not process the request"
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}

func errUnauthenticated() error {
	return dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
}
