package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/service"
)

// AdminHandler serves the moderation endpoints. The router only lets admin
// tokens through; the service checks the stored role again.
type AdminHandler struct {
	svc    *service.AdminService
	logger *slog.Logger
}

func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// HandleStats returns dashboard counters.
//
// HTTP: GET /api/admin/stats
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HTTP: GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	users, err := h.svc.ListUsers(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleSetRole moves a user to another role.
//
// HTTP: PUT /api/admin/users/{id}/role
func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid role JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	u, err := h.svc.SetRole(r.Context(), callerID, chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// HandleDeleteUser removes an account and everything it published.
//
// HTTP: DELETE /api/admin/users/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.DeleteUser(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPosts returns every post without visibility filtering.
//
// HTTP: GET /api/admin/posts
func (h *AdminHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	posts, err := h.svc.ListPosts(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HTTP: DELETE /api/admin/posts/{id}
func (h *AdminHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.DeletePost(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
