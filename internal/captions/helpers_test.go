package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// testRequester returns a Requester that never sleeps between retries.
func testRequester(client *http.Client, timeout time.Duration) *Requester {
	r := NewRequester(client, timeout, RetryPolicy{Attempts: 2, Backoff: time.Millisecond})
	r.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return r
}

// json3Body renders segments as a json3 document.
func json3Body(segments ...Segment) string {
	tr := &Transcript{Segments: segments}
	data, err := json.Marshal(map[string]any{"events": tr.JSON3().Events})
	if err != nil {
		panic(err)
	}
	return string(data)
}

// seq returns n one-second segments starting at from.
func seq(from float64, n int) []Segment {
	out := make([]Segment, n)
	for i := range out {
		out[i] = Segment{Text: fmt.Sprintf("line %.2f", from+float64(i)), Start: from + float64(i), Duration: 1}
	}
	return out
}

// hitCounter counts requests per path.
type hitCounter struct {
	mu   sync.Mutex
	hits map[string]int
}

func (c *hitCounter) add(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hits == nil {
		c.hits = map[string]int{}
	}
	c.hits[key]++
	return c.hits[key]
}

func (c *hitCounter) get(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[key]
}

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

// recorder collects observer events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}
