package httptransport

import (
	"context"
	"net/http"
	"time"

	"lobby/pkg/platform/httputil"
	"lobby/pkg/requestcontext"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := requestcontext.Session(ctx)

	users, err := h.auth.ListUsers(ctx, sess)
	if err != nil {
		h.logger.WarnContext(ctx, "user listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	// User listings must always reflect current backend state.
	w.Header().Set("Cache-Control", "no-store")
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Health(ctx); err != nil {
			status["redis"] = "unavailable"
			httputil.WriteJSON(w, http.StatusServiceUnavailable, status)
			return
		}
		status["redis"] = "ok"
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
