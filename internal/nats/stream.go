package nats

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/model"
)

const (
	// StreamName is the name of the direct-message stream.
	StreamName = "DIRECT_MESSAGES"

	// SubjectPrefix is the prefix for all direct-message subjects.
	SubjectPrefix = "dm"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the direct-message stream exists. The database is
// the system of record so the stream only keeps a short window.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Live delivery of direct messages to receivers",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	m.client.logger.Info("created stream", zap.String("stream", StreamName))
	return nil
}

// subjectToken encodes an identity so it is a single valid subject token.
func subjectToken(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// MessageSubject returns the subject a message is published on.
func MessageSubject(receiverID, conversationID string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(receiverID), subjectToken(conversationID))
}

// ReceiverFilter returns the filter subject for every message to receiverID.
func ReceiverFilter(receiverID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, subjectToken(receiverID))
}

// PublishDirectMessage publishes a stored message for live delivery.
func (m *StreamManager) PublishDirectMessage(ctx context.Context, msg *model.DirectMessage) (uint64, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, MessageSubject(msg.ReceiverID, msg.ConversationID), data,
		jetstream.WithMsgID(msg.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish message: %w", err)
	}

	return ack.Sequence, nil
}

// SubscribeDirectMessages delivers every message published to receiverID
// from now on until ctx is done or the returned stop function is called.
func (m *StreamManager) SubscribeDirectMessages(ctx context.Context, receiverID string, fn func(model.DirectMessage)) (func(), error) {
	consumer, err := m.client.JetStream().OrderedConsumer(ctx, StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{ReceiverFilter(receiverID)},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var dm model.DirectMessage
		if err := json.Unmarshal(msg.Data(), &dm); err != nil {
			m.client.logger.Warn("dropping malformed message",
				zap.String("subject", msg.Subject()), zap.Error(err))
			return
		}
		fn(dm)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	return cc.Stop, nil
}

// StreamStats reports the stored message count and byte size of the stream.
func (m *StreamManager) StreamStats(ctx context.Context) (msgs, bytes uint64, err error) {
	stream, err := m.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get stream info: %w", err)
	}
	return info.State.Msgs, info.State.Bytes, nil
}
