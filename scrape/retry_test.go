package scrape_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	prgihttp "github.com/fwojciec/prgi/http"
	"github.com/fwojciec/prgi/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"too many requests", &prgihttp.StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"bad gateway", &prgihttp.StatusError{StatusCode: http.StatusBadGateway}, true},
		{"not found", &prgihttp.StatusError{StatusCode: http.StatusNotFound}, false},
		{"wrapped status", fmt.Errorf("page 3: %w", &prgihttp.StatusError{StatusCode: http.StatusServiceUnavailable}), true},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scrape.Retryable(tt.err))
		})
	}
}

func TestDefaultRetryDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, scrape.DefaultRetryDelays())
}

func TestFetchWithRetry(t *testing.T) {
	t.Parallel()

	delays := []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}
	unavailable := &prgihttp.StatusError{StatusCode: http.StatusServiceUnavailable}

	t.Run("returns first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			return "<html></html>", nil
		}

		html, err := scrape.FetchWithRetry(context.Background(), "u", fetch, nil, delays)

		require.NoError(t, err)
		assert.Equal(t, "<html></html>", html)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries temporary failures until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			if calls < 3 {
				return "", unavailable
			}
			return "ok", nil
		}

		html, err := scrape.FetchWithRetry(context.Background(), "u", fetch, nil, delays)

		require.NoError(t, err)
		assert.Equal(t, "ok", html)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after all attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			return "", unavailable
		}

		_, err := scrape.FetchWithRetry(context.Background(), "u", fetch, nil, delays)

		require.ErrorIs(t, err, unavailable)
		assert.Equal(t, len(delays)+1, calls)
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			return "", &prgihttp.StatusError{StatusCode: http.StatusNotFound}
		}

		_, err := scrape.FetchWithRetry(context.Background(), "u", fetch, nil, delays)

		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is canceled during backoff", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			cancel()
			return "", unavailable
		}

		_, err := scrape.FetchWithRetry(ctx, "u", fetch, nil, []time.Duration{time.Hour})

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
