package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/service"
)

// MessageHandler handles direct message endpoints.
type MessageHandler struct {
	service *service.ConversationService
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.ConversationService) *MessageHandler {
	return &MessageHandler{
		service: svc,
	}
}

// Conversations handles GET /api/v1/messages/conversations
func (h *MessageHandler) Conversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch conversations")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Conversation handles GET /api/v1/messages/conversations/{id}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.Messages(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// With handles GET /api/v1/messages?with=<subject>
func (h *MessageHandler) With(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.service.With(ctx, middleware.GetUserID(ctx), r.URL.Query().Get("with"))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SendDirectMessageRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Send(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to send message")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":       "Message sent successfully",
		"directMessage": msg,
	})
}

// MarkRead handles PUT /api/v1/messages/read
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.MarkReadRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.MarkRead(ctx, middleware.GetUserID(ctx), req.ConversationID); err != nil {
		writeServiceError(w, r, err, "failed to mark messages as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Messages marked as read",
	})
}
