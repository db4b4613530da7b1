package captions

import (
	"context"
	"log/slog"
)

// EventKind names a step of the fallback chain.
type EventKind string

const (
	EventAttempt   EventKind = "attempt"
	EventPage      EventKind = "page"
	EventRetry     EventKind = "retry"
	EventFailure   EventKind = "failure"
	EventSuccess   EventKind = "success"
	EventExhausted EventKind = "exhausted"
)

// Event describes one observable step while fetching captions.
type Event struct {
	Kind     EventKind
	VideoID  string
	Strategy string
	Language string
	Page     int
	Cursor   float64
	Attempt  int
	Segments int
	Err      error
}

// Observer receives trace events from a Fetcher. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans one event out to several observers.
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

type observerKey struct{}

// ContextWithObserver returns a context whose fetches also report to o, in
// addition to the Fetcher's own observer.
func ContextWithObserver(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, o)
}

func observerFromContext(ctx context.Context) Observer {
	o, _ := ctx.Value(observerKey{}).(Observer)
	return o
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

type logObserver struct {
	logger *slog.Logger
}

// LogObserver writes events to a structured logger. Failures are logged at
// warn level, everything else at debug.
func LogObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &logObserver{logger: logger}
}

func (l *logObserver) Observe(e Event) {
	attrs := []any{
		slog.String("event", string(e.Kind)),
		slog.String("video", e.VideoID),
		slog.String("strategy", e.Strategy),
		slog.String("lang", e.Language),
	}
	switch e.Kind {
	case EventPage:
		attrs = append(attrs, slog.Int("page", e.Page), slog.Float64("cursor", e.Cursor))
	case EventRetry:
		attrs = append(attrs, slog.Int("attempt", e.Attempt))
	case EventSuccess:
		attrs = append(attrs, slog.Int("segments", e.Segments))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.Any("err", e.Err))
	}

	switch e.Kind {
	case EventFailure, EventExhausted:
		l.logger.Warn("captions: "+string(e.Kind), attrs...)
	default:
		l.logger.Debug("captions: "+string(e.Kind), attrs...)
	}
}
