package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/service"
)

// ChatHandler handles AI legal-assistant chat sessions.
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{
		service: svc,
	}
}

// Create handles POST /api/v1/chats
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// The body is optional; a missing title gets the default.
	var req model.CreateChatRequest
	if err := middleware.DecodeJSON(r, &req); err != nil && !errors.Is(err, middleware.ErrEmptyBody) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.service.Create(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to create chat")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// List handles GET /api/v1/chats
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chats, err := h.service.List(ctx, middleware.GetUserID(ctx))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch chats")
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

// Get handles GET /api/v1/chats/{id}
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	c, err := h.service.Get(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch chat")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Rename handles PATCH /api/v1/chats/{id}
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.UpdateChatRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.service.Rename(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to update chat")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/chats/{id}
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.service.Delete(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, "failed to delete chat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Messages handles GET /api/v1/chats/{id}/messages
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	msgs, err := h.service.Messages(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// Append handles POST /api/v1/chats/{id}/messages
func (h *ChatHandler) Append(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.AppendChatMessageRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.Append(ctx, middleware.GetUserID(ctx), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeServiceError(w, r, err, "failed to save message")
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
