package model

import (
	"time"
)

// EventType names a server-sent event.
type EventType string

const (
	EventConnected       EventType = "connected"
	EventToken           EventType = "token"
	EventUserMessage     EventType = "user_message"
	EventMessageComplete EventType = "message_complete"
	EventDirectMessage   EventType = "direct_message"
	EventHeartbeat       EventType = "heartbeat"
	EventError           EventType = "error"
	EventDone            EventType = "done"
)

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// MessageCompleteEvent carries the stored assistant reply.
type MessageCompleteEvent struct {
	Message    ChatMessage `json:"message"`
	Model      string      `json:"model,omitempty"`
	TokensIn   int         `json:"tokensIn,omitempty"`
	TokensOut  int         `json:"tokensOut,omitempty"`
	LatencyMs  int64       `json:"latencyMs,omitempty"`
	StopReason string      `json:"stopReason,omitempty"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent represents a heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
