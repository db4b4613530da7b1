package captions

import (
	"context"
)

// Strategy names used in configuration.
const (
	StrategyTimedText      = "timedtext"
	StrategyTimedTextPaged = "timedtext-paged"
	StrategySupadata       = "supadata"
	StrategyInnertube      = "innertube"
	StrategyWatchPage      = "watchpage"
	StrategyRelay          = "relay"
	StrategyYtDlp          = "ytdlp"
)

// DefaultOrder is the priority in which strategies are tried for each hint.
var DefaultOrder = []string{
	StrategyTimedText,
	StrategyTimedTextPaged,
	StrategySupadata,
	StrategyInnertube,
	StrategyWatchPage,
	StrategyRelay,
	StrategyYtDlp,
}

// Request is a single strategy invocation.
type Request struct {
	VideoID  string
	Language string

	strategy string
	observer Observer
}

// Strategy is one way of obtaining a caption track. Implementations return
// an error wrapping ErrNotFound when the source has nothing for the language;
// any other error is treated as transient.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, req Request) (Track, error)
}

func (r Request) emit(e Event) {
	if r.observer == nil {
		return
	}
	e.VideoID = r.VideoID
	e.Language = r.Language
	e.Strategy = r.strategy
	r.observer.Observe(e)
}

func (r Request) onRetry() func(int, error) {
	return func(attempt int, err error) {
		r.emit(Event{Kind: EventRetry, Attempt: attempt, Err: err})
	}
}
