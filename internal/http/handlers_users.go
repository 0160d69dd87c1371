package httpx

import (
	"log/slog"
	"net/http"

	"github.com/clycites/clygate/internal/ports"
)

// UserHandlers serves the cached user records behind the session and
// role middleware.
type UserHandlers struct {
	Repo   ports.UserRepository
	Logger *slog.Logger
}

func (h *UserHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Profile returns the user placed in context by RequireSession.
// GET /api/profile.
func (h *UserHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		WriteEnvelopeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	WriteEnvelope(w, http.StatusOK, user)
}

// ListUsers returns every cached user record.
// GET /api/admin/users, admin role required.
func (h *UserHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repo.List(r.Context())
	if err != nil {
		h.logger().ErrorContext(r.Context(), "list users failed", "error", err)
		WriteEnvelopeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	WriteEnvelope(w, http.StatusOK, users)
}
