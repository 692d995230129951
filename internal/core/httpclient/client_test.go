package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freight-booking/internal/core/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRoundTripper(t *testing.T) {
	var gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	require.NoError(t, logger.Init("development", "debug"))

	client := NewClient(time.Second)
	resp, err := client.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, UserAgent, gotAgent)
}

func TestLoggingRoundTripper_KeepsCallerAgent(t *testing.T) {
	var gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "relay-probe")

	resp, err := NewClient(time.Second).Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "relay-probe", gotAgent)
}

func TestLoggingRoundTripper_Error(t *testing.T) {
	client := NewClient(time.Second)
	_, err := client.Get("http://127.0.0.1:1")
	require.Error(t, err)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "5xx", statusClass(503))
}
