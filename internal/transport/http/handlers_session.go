package httptransport

import (
	"encoding/json"
	"net/http"

	"lobby/internal/auth/models"
	dErrors "lobby/pkg/domain-errors"
	"lobby/pkg/platform/httputil"
	"lobby/pkg/requestcontext"
)

// handleUpdateJWT overwrites the session's backend tokens after a backend
// operation issued new ones. The swapped session is re-signed and set as a
// fresh cookie in the same response — without that explicit re-issue the
// browser would keep presenting the old artifact.
func (h *Handler) handleUpdateJWT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := requestcontext.Session(ctx)

	var req models.UpdateTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.auth.UpdateTokens(ctx, sess, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.sessions.Write(w, updated); err != nil {
		h.logger.ErrorContext(ctx, "failed to reissue session cookie",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
