package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/service"
)

type CommentHandler struct {
	svc    *service.CommentService
	logger *slog.Logger
}

func NewCommentHandler(svc *service.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

type addCommentRequest struct {
	Comment string `json:"comment"`
}

// HandleList returns the comments under a post the caller can see.
//
// HTTP: GET /api/posts/{id}/comments
// Auth: optional
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	cs, err := h.svc.List(r.Context(), viewerID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

// HandleAdd comments on a post as the caller.
//
// HTTP: POST /api/posts/{id}/comments
func (h *CommentHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req addCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid comment JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	c, err := h.svc.Add(r.Context(), userID, chi.URLParam(r, "id"), req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
