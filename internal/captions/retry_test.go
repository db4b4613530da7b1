package captions

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequesterGet(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		wantBody  string
		wantErr   error
		wantHits  int
		wantRetry int
	}{
		{name: "ok first try", statuses: []int{200}, wantBody: "ok", wantHits: 1},
		{name: "recovers after 503", statuses: []int{503, 200}, wantBody: "ok", wantHits: 2, wantRetry: 1},
		{name: "404 is not retried", statuses: []int{404}, wantErr: ErrNotFound, wantHits: 1},
		{name: "gives up after bounded retries", statuses: []int{500, 502, 429, 200}, wantErr: ErrTransient, wantHits: 3, wantRetry: 2},
		{name: "403 is retried", statuses: []int{403, 403, 200}, wantBody: "ok", wantHits: 3, wantRetry: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits hitCounter
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				n := hits.add("get")
				w.WriteHeader(tt.statuses[n-1])
				_, _ = w.Write([]byte("ok"))
			})

			retries := 0
			body, err := testRequester(srv.Client(), time.Second).Get(context.Background(), srv.URL, nil, func(int, error) { retries++ })
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
			}
			assert.Equal(t, tt.wantHits, hits.get("get"))
			assert.Equal(t, tt.wantRetry, retries)
		})
	}
}

func TestRequesterNegativeAttemptsStillCalls(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  error
		wantHits int
	}{
		{name: "success", status: http.StatusOK, wantHits: 1},
		{name: "failure is reported", status: http.StatusBadGateway, wantErr: ErrTransient, wantHits: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits hitCounter
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				hits.add("get")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("ok"))
			})

			r := NewRequester(srv.Client(), time.Second, RetryPolicy{Attempts: -1, Backoff: time.Millisecond})
			assert.Equal(t, 0, r.Retry.Attempts)
			// Exported fields can bypass NewRequester.
			r.Retry.Attempts = -3

			body, err := r.Get(context.Background(), srv.URL, nil, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.NotContains(t, err.Error(), "%!w")
			} else {
				require.NoError(t, err)
				assert.Equal(t, "ok", string(body))
			}
			assert.Equal(t, tt.wantHits, hits.get("get"))
		})
	}
}

func TestRequesterStatusErrorDetails(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := testRequester(srv.Client(), time.Second).Get(context.Background(), srv.URL, nil, nil)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "429")
}

func TestRequesterTimeoutIsRetried(t *testing.T) {
	var hits hitCounter
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.add("get") == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		_, _ = w.Write([]byte("late but fine"))
	})

	body, err := testRequester(srv.Client(), 50*time.Millisecond).Get(context.Background(), srv.URL, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "late but fine", string(body))
	assert.Equal(t, 2, hits.get("get"))
}

func TestRequesterSendsHeaders(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_, _ = w.Write([]byte("{}"))
	})

	h := http.Header{}
	h.Set("x-api-key", "secret")
	_, err := testRequester(srv.Client(), time.Second).Get(context.Background(), srv.URL, h, nil)
	require.NoError(t, err)
}

func TestRequesterCanceledContext(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	r := testRequester(srv.Client(), time.Second)
	r.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := r.Get(ctx, srv.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLinearBackoff(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	var waits []time.Duration
	r := NewRequester(srv.Client(), time.Second, RetryPolicy{Attempts: 3, Backoff: 100 * time.Millisecond})
	r.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := r.Get(context.Background(), srv.URL, nil, nil)
	require.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, waits)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", notFound("x"), false},
		{"malformed", malformed("x", errors.New("bad")), false},
		{"status", &StatusError{StatusCode: 500}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryable(tt.err))
		})
	}
}
