package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/middleware"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/internal/service"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

const heartbeatInterval = 30 * time.Second

// DirectMessageFeed delivers direct messages addressed to a receiver as
// they are published.
type DirectMessageFeed interface {
	SubscribeDirectMessages(ctx context.Context, receiverID string, fn func(model.DirectMessage)) (func(), error)
}

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	chats *service.ChatService
	feed  DirectMessageFeed
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(chats *service.ChatService, feed DirectMessageFeed) *StreamHandler {
	return &StreamHandler{
		chats: chats,
		feed:  feed,
	}
}

// Messages handles GET /api/v1/messages/stream
// It pushes every direct message addressed to the caller until the client
// goes away.
func (h *StreamHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	log := logger.FromContext(ctx)

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	incoming := make(chan model.DirectMessage, 16)
	stop, err := h.feed.SubscribeDirectMessages(ctx, userID, func(m model.DirectMessage) {
		select {
		case incoming <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		log.Error("failed to subscribe to direct messages", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "live updates unavailable")
		return
	}
	defer stop()

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	metrics.SSEOpened("messages")
	defer metrics.SSEClosed("messages")

	sendSSEEvent(w, flusher, model.EventConnected, map[string]string{
		"user_id": userID,
	})

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("SSE client disconnected")
			return

		case m := <-incoming:
			if err := sendSSEEvent(w, flusher, model.EventDirectMessage, m); err != nil {
				log.Warn("failed to write direct message event", zap.Error(err))
				return
			}

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, model.EventHeartbeat, &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

// Chat handles POST /api/v1/chats/{id}/stream
// This endpoint accepts a message and streams the assistant reply.
func (h *StreamHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	chatID := chi.URLParam(r, "id")

	var req model.SendChatMessageRequest
	if err := middleware.DecodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Ownership is checked before the stream opens so a bad id is a plain 404.
	if _, err := h.chats.Get(ctx, userID, chatID); err != nil {
		writeServiceError(w, r, err, "failed to fetch chat")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	setSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	metrics.SSEOpened("chat")
	defer metrics.SSEClosed("chat")

	userMsg, assistantMsg, resp, err := h.chats.SendWithStream(ctx, userID, chatID, &req,
		func(token string, index int) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return sendSSEEvent(w, flusher, model.EventToken, &model.TokenEvent{
				Token: token,
				Index: index,
			})
		},
	)

	if userMsg != nil {
		sendSSEEvent(w, flusher, model.EventUserMessage, userMsg)
	}

	if err != nil {
		code, message := "stream_error", "failed to generate response"
		if errors.Is(err, service.ErrValidation) {
			code, message = "invalid_request", clientMessage(err)
		}
		sendSSEEvent(w, flusher, model.EventError, &model.ErrorEvent{
			Code:    code,
			Message: message,
		})
		return
	}

	if assistantMsg != nil {
		sendSSEEvent(w, flusher, model.EventMessageComplete, &model.MessageCompleteEvent{
			Message:    *assistantMsg,
			Model:      resp.Model,
			TokensIn:   resp.TokensIn,
			TokensOut:  resp.TokensOut,
			LatencyMs:  resp.LatencyMs,
			StopReason: resp.StopReason,
		})
	}

	sendSSEEvent(w, flusher, model.EventDone, map[string]bool{"success": true})
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event model.EventType, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
