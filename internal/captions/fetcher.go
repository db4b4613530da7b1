package captions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ValidVideoID reports whether id has the shape of a YouTube video ID.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// Fetcher runs the strategy table for each language hint until one yields
// captions.
type Fetcher struct {
	strategies []Strategy
	observer   Observer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithObserver sets the trace hook.
func WithObserver(o Observer) Option {
	return func(f *Fetcher) {
		if o != nil {
			f.observer = o
		}
	}
}

// New creates a Fetcher that tries strategies in the given order.
func New(strategies []Strategy, opts ...Option) *Fetcher {
	f := &Fetcher{
		strategies: strategies,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Strategies returns the names of the configured strategies, in order.
func (f *Fetcher) Strategies() []string {
	names := make([]string, len(f.strategies))
	for i, s := range f.strategies {
		names[i] = s.Name()
	}
	return names
}

// Fetch returns the first non-empty caption track found for videoID. An empty
// hint means the provider's default language. On failure the error is a
// *FetchError of kind KindNoCaptions or KindTransient.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, languageHints []string) (*Transcript, error) {
	if !ValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVideoID, videoID)
	}

	hints := languageHints
	if len(hints) == 0 {
		hints = []string{""}
	}

	observer := f.observer
	if extra := observerFromContext(ctx); extra != nil {
		observer = Observers{f.observer, extra}
	}

	var (
		attempts      int
		sawNotFound   bool
		lastTransient error
	)
	for _, lang := range hints {
		for _, strategy := range f.strategies {
			if err := ctx.Err(); err != nil {
				return nil, &FetchError{Kind: KindTransient, VideoID: videoID, Attempts: attempts, Err: err}
			}

			req := Request{VideoID: videoID, Language: lang, strategy: strategy.Name(), observer: observer}
			req.emit(Event{Kind: EventAttempt})
			attempts++

			track, err := strategy.Fetch(ctx, req)
			if err == nil {
				segments := Normalize(track.Segments)
				if len(segments) > 0 {
					req.emit(Event{Kind: EventSuccess, Segments: len(segments)})
					language := track.Language
					if language == "" {
						language = lang
					}
					return &Transcript{
						VideoID:  videoID,
						Language: language,
						Source:   strategy.Name(),
						Segments: segments,
					}, nil
				}
				err = notFound("%s returned no segments", strategy.Name())
			}

			if isCanceled(ctx) {
				return nil, &FetchError{Kind: KindTransient, VideoID: videoID, Attempts: attempts, Err: ctx.Err()}
			}
			req.emit(Event{Kind: EventFailure, Err: err})
			if isNotFound(err) {
				sawNotFound = true
				continue
			}
			lastTransient = fmt.Errorf("%s [%s]: %w", strategy.Name(), langLabel(lang), err)
		}
	}

	result := &FetchError{Kind: KindNoCaptions, VideoID: videoID, Attempts: attempts}
	if !sawNotFound && lastTransient != nil {
		result.Kind = KindTransient
		result.Err = lastTransient
	}
	observer.Observe(Event{Kind: EventExhausted, VideoID: videoID, Err: result})
	return nil, result
}

func langLabel(lang string) string {
	if lang == "" {
		return "default"
	}
	return lang
}

// Config describes which strategies to build and how they reach upstream.
type Config struct {
	HTTPClient      *http.Client
	Timeout         time.Duration
	Retry           RetryPolicy
	PageDelay       time.Duration
	MaxPages        int
	MinPageSegments int

	// Order lists strategy names by priority. Empty means DefaultOrder.
	Order []string

	SupadataAPIKey string
	Relays         []string
	YtDlpEnabled   bool
	TempDir        string

	// Base URL overrides, used by tests.
	YouTubeBaseURL  string
	SupadataBaseURL string
}

// NewFromConfig builds the strategy table from cfg. Strategies that need
// configuration they do not have (an API key, relay templates, yt-dlp being
// enabled) are left out.
func NewFromConfig(cfg Config, opts ...Option) (*Fetcher, error) {
	requester := NewRequester(cfg.HTTPClient, cfg.Timeout, cfg.Retry)

	order := cfg.Order
	if len(order) == 0 {
		order = DefaultOrder
	}

	var strategies []Strategy
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] {
			continue
		}
		seen[name] = true

		switch name {
		case StrategyTimedText:
			strategies = append(strategies, NewTimedText(requester, cfg.YouTubeBaseURL))
		case StrategyTimedTextPaged:
			strategies = append(strategies, NewPagedTimedText(requester, cfg.YouTubeBaseURL,
				WithMaxPages(cfg.MaxPages),
				WithMinPageSegments(cfg.MinPageSegments),
				WithPageDelay(cfg.PageDelay),
			))
		case StrategySupadata:
			if cfg.SupadataAPIKey == "" {
				continue
			}
			// The hosted API transcribes on demand and is slower than YouTube.
			supadataRequester := *requester
			if supadataRequester.Timeout < 30*time.Second {
				supadataRequester.Timeout = 30 * time.Second
			}
			strategies = append(strategies, NewSupadata(&supadataRequester, cfg.SupadataBaseURL, cfg.SupadataAPIKey))
		case StrategyInnertube:
			strategies = append(strategies, NewInnertube(requester, cfg.YouTubeBaseURL))
		case StrategyWatchPage:
			strategies = append(strategies, NewWatchPage(requester, cfg.YouTubeBaseURL))
		case StrategyRelay:
			if len(cfg.Relays) == 0 {
				continue
			}
			relay, err := NewRelay(requester, cfg.YouTubeBaseURL, cfg.Relays)
			if err != nil {
				return nil, err
			}
			strategies = append(strategies, relay)
		case StrategyYtDlp:
			if !cfg.YtDlpEnabled {
				continue
			}
			strategies = append(strategies, NewYtDlp(cfg.TempDir))
		default:
			return nil, fmt.Errorf("unknown caption strategy %q", name)
		}
	}

	if len(strategies) == 0 {
		return nil, errors.New("no caption strategies configured")
	}
	return New(strategies, opts...), nil
}
