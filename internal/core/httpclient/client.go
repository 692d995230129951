package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"freight-booking/internal/core/logger"
	"freight-booking/internal/core/metrics"

	"go.uber.org/zap"
)

// UserAgent is sent on every outbound request that does not set its own.
const UserAgent = "freight-booking/1.0"

// LoggingRoundTripper logs and counts outbound requests.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request, logging its outcome and recording it by host.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.Named("httpclient").With(
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()),
	)

	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", UserAgent)
	}

	start := time.Now()
	resp, err := lrt.Proxied.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		metrics.OutboundRequestsTotal.WithLabelValues(req.URL.Host, "error").Inc()
		log.Warn("outbound request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}

	metrics.OutboundRequestsTotal.WithLabelValues(req.URL.Host, statusClass(resp.StatusCode)).Inc()
	log.Debug("outbound request completed",
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return resp, nil
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
		},
		Timeout: timeout,
	}
}
