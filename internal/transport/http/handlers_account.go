package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/asaskevich/govalidator"

	"lobby/internal/auth/models"
	authservice "lobby/internal/auth/service"
	dErrors "lobby/pkg/domain-errors"
	"lobby/pkg/platform/httputil"
	"lobby/pkg/requestcontext"
)

// reauthResponse tells the client the change took and when to force the
// sign-out redirect. The delay exists so the user can read the notification.
type reauthResponse struct {
	Message        string `json:"message"`
	ReauthRequired bool   `json:"reauth_required"`
	ReauthAfterMS  int64  `json:"reauth_after_ms"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := requestcontext.Session(ctx)

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := validateProfileRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.auth.UpdateProfile(ctx, sess, req)
	if err != nil {
		h.logger.WarnContext(ctx, "profile update failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.writeReauth(w, outcome)
}

func (h *Handler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := requestcontext.Session(ctx)

	var req models.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := validatePasswordRequest(req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.auth.UpdatePassword(ctx, sess, req)
	if err != nil {
		h.logger.WarnContext(ctx, "password update failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	h.writeReauth(w, outcome)
}

func (h *Handler) writeReauth(w http.ResponseWriter, outcome *authservice.ReauthOutcome) {
	httputil.WriteJSON(w, http.StatusOK, reauthResponse{
		Message:        outcome.Message,
		ReauthRequired: outcome.ReauthRequired,
		ReauthAfterMS:  outcome.ReauthAfter.Milliseconds(),
	})
}

// Local validation runs before any network call so field-level problems
// never reach the backend.
func validateProfileRequest(req models.UpdateProfileRequest) error {
	if req.Username == nil && req.Email == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "nothing to update")
	}
	if req.Username != nil && !govalidator.StringLength(*req.Username, "3", "60") {
		return dErrors.New(dErrors.CodeInvalidInput, "username must be between 3 and 60 characters")
	}
	if req.Email != nil && !govalidator.IsEmail(*req.Email) {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid email")
	}
	return nil
}

func validatePasswordRequest(req models.UpdatePasswordRequest) error {
	if req.CurrentPassword == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "current password is required")
	}
	if !govalidator.StringLength(req.Password, "8", "128") {
		return dErrors.New(dErrors.CodeInvalidInput, "password must be at least 8 characters")
	}
	if req.Password != req.PasswordConfirm {
		return dErrors.New(dErrors.CodeInvalidInput, "passwords do not match")
	}
	return nil
}
