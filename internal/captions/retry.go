package captions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// RetryPolicy controls how often a failing call is repeated. The wait before
// retry n is Backoff*n.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultTimeout bounds a single upstream call.
const DefaultTimeout = 15 * time.Second

// DefaultRetryPolicy allows two retries, waiting 500ms then 1s.
var DefaultRetryPolicy = RetryPolicy{
	Attempts: 2,
	Backoff:  500 * time.Millisecond,
}

// Requester performs upstream HTTP calls with a per-call timeout and a
// bounded linear-backoff retry.
type Requester struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
	Retry     RetryPolicy

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultUserAgent is a desktop browser user agent; the timedtext endpoint
// rejects obvious bots more often.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewRequester creates a Requester with the given client, falling back to
// http.DefaultClient.
func NewRequester(client *http.Client, timeout time.Duration, retry RetryPolicy) *Requester {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retry.Attempts = max(retry.Attempts, 0)
	return &Requester{
		Client:    client,
		UserAgent: DefaultUserAgent,
		Timeout:   timeout,
		Retry:     retry,
	}
}

// Get fetches rawURL and returns the body of a 200 response.
func (r *Requester) Get(ctx context.Context, rawURL string, header http.Header, onRetry func(attempt int, err error)) ([]byte, error) {
	return r.do(ctx, http.MethodGet, rawURL, nil, header, onRetry)
}

// Post sends body to rawURL and returns the body of a 200 response.
func (r *Requester) Post(ctx context.Context, rawURL string, body []byte, header http.Header, onRetry func(attempt int, err error)) ([]byte, error) {
	return r.do(ctx, http.MethodPost, rawURL, body, header, onRetry)
}

func (r *Requester) do(ctx context.Context, method, rawURL string, body []byte, header http.Header, onRetry func(int, error)) ([]byte, error) {
	var lastErr error
	// A negative retry count still makes the first call.
	retries := max(r.Retry.Attempts, 0)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			if onRetry != nil {
				onRetry(attempt, lastErr)
			}
			if err := r.wait(ctx, r.Retry.Backoff*time.Duration(attempt)); err != nil {
				return nil, err
			}
		}

		data, err := r.once(ctx, method, rawURL, body, header)
		if err == nil {
			return data, nil
		}
		if isCanceled(ctx) {
			return nil, ctx.Err()
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrTransient, lastErr)
}

func (r *Requester) once(ctx context.Context, method, rawURL string, body []byte, header http.Header) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(callCtx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFound("HTTP 404 from %s", rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

func (r *Requester) wait(ctx context.Context, d time.Duration) error {
	if r.sleep != nil {
		return r.sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// isRetryable reports whether err is worth another attempt. A 404 and a body
// that failed to parse are final; everything transport-shaped is retried.
func isRetryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformed) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	// Unexpected EOFs and resets surface as *url.Error wrapping io errors.
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
