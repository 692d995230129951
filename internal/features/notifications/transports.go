package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"freight-booking/internal/core/config"
	"freight-booking/internal/core/httpclient"
	"freight-booking/internal/core/logger"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrNoBrokers is returned when the kafka transport is selected without brokers.
var ErrNoBrokers = errors.New("notifications: kafka transport requires at least one broker")

// NewTransport builds the transport selected in cfg.
func NewTransport(cfg config.NotificationConfig) (Transport, error) {
	switch cfg.Transport {
	case "log", "":
		return NewLogTransport(logger.Named("notifications.log")), nil
	case "webhook":
		return NewWebhookTransport(cfg.WebhookURL, httpclient.NewClient(10*time.Second)), nil
	case "kafka":
		brokers := cfg.Brokers()
		if len(brokers) == 0 {
			return nil, ErrNoBrokers
		}
		return NewKafkaTransport(brokers, cfg.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("notifications: unsupported transport %q", cfg.Transport)
	}
}

// LogTransport writes messages to the logger instead of sending them.
type LogTransport struct {
	log *zap.Logger
}

// NewLogTransport creates a LogTransport.
func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.log.Info("notification",
		zap.String("id", msg.ID),
		zap.String("template", msg.Template),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// WebhookTransport posts messages as JSON to a relay endpoint.
type WebhookTransport struct {
	url    string
	client *http.Client
}

// NewWebhookTransport creates a WebhookTransport.
func NewWebhookTransport(url string, client *http.Client) *WebhookTransport {
	return &WebhookTransport{url: url, client: client}
}

func (t *WebhookTransport) Name() string { return "webhook" }

func (t *WebhookTransport) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("webhook: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.ID)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// messageWriter is the part of *kafka.Writer the transport uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaTransport publishes messages to a topic for an external mailer to consume.
type KafkaTransport struct {
	writer messageWriter
	topic  string
}

// NewKafkaTransport creates a KafkaTransport writing to topic.
func NewKafkaTransport(brokers []string, topic string) *KafkaTransport {
	return &KafkaTransport{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

func (t *KafkaTransport) Name() string { return "kafka" }

func (t *KafkaTransport) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("kafka: marshal message: %w", err)
	}
	err = t.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.ID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "template", Value: []byte(msg.Template)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka: write to %s: %w", t.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (t *KafkaTransport) Close() error {
	return t.writer.Close()
}
