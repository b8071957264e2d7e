package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/andrevalim/pixhub/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

// envelope is the wire shape of a mirrored event.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// KafkaMirror wraps an inner bus and additionally publishes every
// emitted event to a Kafka topic per event type, so external consumers
// (reporting, anti-fraud) see the same stream the in-process handlers
// do. Mirror failures are logged and never block the inner dispatch.
type KafkaMirror struct {
	inner       eventbus.Bus
	writer      *kafka.Writer
	topicPrefix string
	logger      *slog.Logger
}

// NewKafkaMirror creates a mirror over the inner bus. brokers is a
// comma-separated list.
func NewKafkaMirror(inner eventbus.Bus, brokers, topicPrefix string, logger *slog.Logger) (*KafkaMirror, error) {
	parsed := parseBrokers(brokers)
	if len(parsed) == 0 {
		return nil, fmt.Errorf("kafka mirror: brokers are required")
	}
	if strings.TrimSpace(topicPrefix) == "" {
		topicPrefix = "pixhub.events"
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(parsed...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}

	return &KafkaMirror{
		inner:       inner,
		writer:      writer,
		topicPrefix: topicPrefix,
		logger:      logger.With("bus", "kafka-mirror"),
	}, nil
}

// Register delegates to the inner bus; the mirror has no consumers.
func (m *KafkaMirror) Register(eventType string, handler eventbus.HandlerFunc) {
	m.inner.Register(eventType, handler)
}

// Emit publishes the envelope to Kafka and then dispatches in-process.
func (m *KafkaMirror) Emit(ctx context.Context, event eventbus.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("marshalling event for mirror", "type", event.Type(), "error", err)
		return m.inner.Emit(ctx, event)
	}
	env, err := json.Marshal(envelope{Type: event.Type(), Payload: payload})
	if err != nil {
		m.logger.Error("marshalling envelope", "type", event.Type(), "error", err)
		return m.inner.Emit(ctx, event)
	}

	msg := kafka.Message{
		Topic: m.topicFor(event.Type()),
		Key:   []byte(event.Type()),
		Value: env,
		Time:  time.Now(),
	}
	if err := m.writer.WriteMessages(ctx, msg); err != nil {
		m.logger.Error("mirroring event to kafka", "type", event.Type(), "error", err)
	}

	return m.inner.Emit(ctx, event)
}

// Close flushes and closes the Kafka writer.
func (m *KafkaMirror) Close() error {
	return m.writer.Close()
}

func (m *KafkaMirror) topicFor(eventType string) string {
	return fmt.Sprintf("%s.%s", m.topicPrefix, strings.ToLower(eventType))
}

func parseBrokers(brokers string) []string {
	parts := strings.Split(brokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ eventbus.Bus = (*KafkaMirror)(nil)
