package icn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		StatusCodes: map[int]struct{}{http.StatusServiceUnavailable: {}},
	}
}

func TestClientFetchRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(sampleExport))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithMinInterval(0), WithRetryConfig(fastRetry()))
	snap, err := client.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
	assert.NotEmpty(t, snap.Digest)
	assert.Equal(t, srv.URL, snap.Origin)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientFetchGivesUp(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{name: "retryable", status: http.StatusServiceUnavailable, wantCalls: 3},
		{name: "not retryable", status: http.StatusNotFound, wantCalls: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, WithMinInterval(0), WithRetryConfig(fastRetry()))
			_, _, err := client.Fetch(context.Background())
			require.Error(t, err)
			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, "nope", statusErr.Body)
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClientFetchNotArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "maintenance"}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL, WithMinInterval(0)).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotArray)
}

func TestClientRequiresURL(t *testing.T) {
	_, _, err := NewClient("  ").Fetch(context.Background())
	assert.Error(t, err)

	var nilClient *Client
	_, _, err = nilClient.Fetch(context.Background())
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := StaticSource(nil).Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
