package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freight-booking/internal/core/config"
	"freight-booking/internal/core/httpclient"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleMessage() Message {
	return Message{
		ID:       "job-7",
		Template: TemplateQuoteReady,
		From:     "ops@example.com",
		To:       "ada@example.com",
		Subject:  "Your freight quote q-1",
		Body:     "Hello",
	}
}

func TestLogTransport_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tr := NewLogTransport(zap.New(core))

	require.NoError(t, tr.Send(context.Background(), sampleMessage()))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "notification", entry.Message)
	assert.Equal(t, "ada@example.com", entry.ContextMap()["to"])
	assert.Equal(t, "log", tr.Name())
}

func TestWebhookTransport_Send(t *testing.T) {
	var got Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "job-7", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, httpclient.UserAgent, r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	tr := NewWebhookTransport(server.URL, httpclient.NewClient(time.Second))
	require.NoError(t, tr.Send(context.Background(), sampleMessage()))
	assert.Equal(t, sampleMessage(), got)
}

func TestWebhookTransport_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	tr := NewWebhookTransport(server.URL, httpclient.NewClient(time.Second))
	err := tr.Send(context.Background(), sampleMessage())
	assert.EqualError(t, err, "webhook: unexpected status 502")
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaTransport_Send(t *testing.T) {
	w := &fakeWriter{}
	tr := &KafkaTransport{writer: w, topic: "notifications.email"}

	require.NoError(t, tr.Send(context.Background(), sampleMessage()))
	require.Len(t, w.messages, 1)
	assert.Equal(t, "job-7", string(w.messages[0].Key))

	var decoded Message
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &decoded))
	assert.Equal(t, "Your freight quote q-1", decoded.Subject)
	assert.Equal(t, []byte(TemplateQuoteReady), w.messages[0].Headers[0].Value)

	w.err = errors.New("leader not available")
	assert.ErrorContains(t, tr.Send(context.Background(), sampleMessage()), "kafka: write to notifications.email")

	require.NoError(t, tr.Close())
	assert.True(t, w.closed)
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.NotificationConfig
		want    string
		wantErr bool
	}{
		{name: "Log", cfg: config.NotificationConfig{Transport: "log"}, want: "log"},
		{name: "Webhook", cfg: config.NotificationConfig{Transport: "webhook", WebhookURL: "http://relay"}, want: "webhook"},
		{name: "Kafka", cfg: config.NotificationConfig{Transport: "kafka", KafkaBrokers: "k1:9092", KafkaTopic: "t"}, want: "kafka"},
		{name: "KafkaWithoutBrokers", cfg: config.NotificationConfig{Transport: "kafka"}, wantErr: true},
		{name: "Unknown", cfg: config.NotificationConfig{Transport: "sms"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransport(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Name())
		})
	}
}
