package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/watizat/connect/internal/auth"
	"github.com/watizat/connect/internal/service"
)

type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

type sendMessageRequest struct {
	ToUserID string `json:"to_user_id"`
	Message  string `json:"message"`
}

// HandleCanChat reports whether the caller may open a conversation with
// the user in the path. A deny is a 200 with can_chat=false.
//
// HTTP: GET /api/can-chat/{userId}
func (h *ChatHandler) HandleCanChat(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	d, err := h.svc.CanChat(r.Context(), callerID, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleSend stores a direct message from the caller.
//
// HTTP: POST /api/messages
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	var req sendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid message JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	msg, err := h.svc.Send(r.Context(), callerID, req.ToUserID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// HandleConversation lists the messages between the caller and a user.
//
// HTTP: GET /api/messages/{userId}
func (h *ChatHandler) HandleConversation(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context())

	msgs, err := h.svc.Conversation(r.Context(), callerID, chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
