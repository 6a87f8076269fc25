// Package kafka produces notification messages to the push-gateway topic.
// The gateway service downstream owns the actual device transport; from the
// engine's perspective it is a reliable black-box sender.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-alert-engine/internal/config"
	"github.com/couchcryptid/storm-alert-engine/internal/domain"
)

// Dispatcher publishes composed notification payloads for a set of devices.
type Dispatcher struct {
	writer  *kafkago.Writer
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher creates a Kafka producer for the configured notifications topic.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) *Dispatcher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaNotificationsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Dispatcher{writer: w, timeout: cfg.DispatchTimeout, logger: logger}
}

// gatewayMessage is the wire format the push gateway consumes: one payload
// fanned out to every listed device token.
type gatewayMessage struct {
	MessageID    string         `json:"message_id"`
	DeviceTokens []string       `json:"device_tokens"`
	Payload      domain.Payload `json:"payload"`
	QueuedAt     time.Time      `json:"queued_at"`
}

// Send publishes one gateway message covering all of the user's devices.
// The write is bounded by the dispatch timeout; a timed-out send is a
// dispatch failure for this sweep, retried naturally on the next one.
func (d *Dispatcher) Send(ctx context.Context, devices []domain.Device, payload domain.Payload) error {
	if len(devices) == 0 {
		return fmt.Errorf("no devices to dispatch to")
	}

	msg, err := serializeGatewayMessage(devices, payload)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.writer.WriteMessages(sendCtx, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (d *Dispatcher) Close() error {
	return d.writer.Close()
}

// serializeGatewayMessage marshals a payload and device set into a Kafka
// message. The message id gives the gateway a handle for tracing and its own
// idempotency; the tag header lets it collapse stacked notifications without
// deserializing the body.
func serializeGatewayMessage(devices []domain.Device, payload domain.Payload) (kafkago.Message, error) {
	tokens := make([]string, len(devices))
	for i, dev := range devices {
		tokens[i] = dev.Token
	}

	msg := gatewayMessage{
		MessageID:    uuid.NewString(),
		DeviceTokens: tokens,
		Payload:      payload,
		QueuedAt:     time.Now().UTC(),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}

	return kafkago.Message{
		Key:   []byte(msg.MessageID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "title", Value: []byte(payload.Title)},
			{Key: "tag", Value: []byte(payload.Tag)},
		},
	}, nil
}
