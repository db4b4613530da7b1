package captions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// YouTubeBaseURL is the origin used by the YouTube strategies.
const YouTubeBaseURL = "https://www.youtube.com"

// Pagination defaults.
const (
	DefaultMaxPages        = 50
	DefaultMinPageSegments = 10
	DefaultPageDelay       = 150 * time.Millisecond
	CursorEpsilon          = 0.01
)

func youtubeHeaders() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/json")
	h.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7")
	h.Set("Referer", "https://www.youtube.com/")
	h.Set("Origin", "https://www.youtube.com")
	return h
}

// timedTextURL builds the json3 timedtext URL. A negative start omits the
// start parameter.
func timedTextURL(base, videoID, lang string, start float64) string {
	q := url.Values{}
	q.Set("v", videoID)
	if lang != "" {
		q.Set("lang", lang)
	}
	q.Set("fmt", "json3")
	if start >= 0 {
		q.Set("start", strconv.FormatFloat(start, 'f', 3, 64))
	}
	return base + "/api/timedtext?" + q.Encode()
}

// TimedText makes one direct call to the timedtext endpoint.
type TimedText struct {
	requester *Requester
	baseURL   string
}

// NewTimedText creates the single-shot timedtext strategy.
func NewTimedText(requester *Requester, baseURL string) *TimedText {
	if baseURL == "" {
		baseURL = YouTubeBaseURL
	}
	return &TimedText{requester: requester, baseURL: baseURL}
}

func (t *TimedText) Name() string { return StrategyTimedText }

func (t *TimedText) Fetch(ctx context.Context, req Request) (Track, error) {
	body, err := t.requester.Get(ctx, timedTextURL(t.baseURL, req.VideoID, req.Language, -1), youtubeHeaders(), req.onRetry())
	if err != nil {
		return Track{}, err
	}
	segments, err := parseJSON3(body)
	if err != nil {
		return Track{}, err
	}
	return Track{Language: req.Language, Segments: segments}, nil
}

// PagedTimedText walks the timedtext endpoint with a start cursor.
type PagedTimedText struct {
	requester       *Requester
	baseURL         string
	maxPages        int
	minPageSegments int
	pageDelay       time.Duration
}

// PagedOption configures a PagedTimedText.
type PagedOption func(*PagedTimedText)

// WithMaxPages caps the number of page requests.
func WithMaxPages(n int) PagedOption {
	return func(p *PagedTimedText) {
		if n > 0 {
			p.maxPages = n
		}
	}
}

// WithMinPageSegments sets the page size below which a page is taken as the last one.
func WithMinPageSegments(n int) PagedOption {
	return func(p *PagedTimedText) {
		if n > 0 {
			p.minPageSegments = n
		}
	}
}

// WithPageDelay sets the pause between page requests.
func WithPageDelay(d time.Duration) PagedOption {
	return func(p *PagedTimedText) {
		if d >= 0 {
			p.pageDelay = d
		}
	}
}

// NewPagedTimedText creates the paginated timedtext strategy.
func NewPagedTimedText(requester *Requester, baseURL string, opts ...PagedOption) *PagedTimedText {
	if baseURL == "" {
		baseURL = YouTubeBaseURL
	}
	p := &PagedTimedText{
		requester:       requester,
		baseURL:         baseURL,
		maxPages:        DefaultMaxPages,
		minPageSegments: DefaultMinPageSegments,
		pageDelay:       DefaultPageDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PagedTimedText) Name() string { return StrategyTimedTextPaged }

// Fetch requests pages until one comes back empty, comes back short, or the
// page cap is reached. Any page failure fails the whole strategy so a
// truncated transcript is never returned.
func (p *PagedTimedText) Fetch(ctx context.Context, req Request) (Track, error) {
	var limiter *rate.Limiter
	if p.pageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(p.pageDelay), 1)
	}

	var all []Segment
	cursor := 0.0
	for page := 0; page < p.maxPages; page++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return Track{}, err
			}
		}
		req.emit(Event{Kind: EventPage, Page: page, Cursor: cursor})

		body, err := p.requester.Get(ctx, timedTextURL(p.baseURL, req.VideoID, req.Language, cursor), youtubeHeaders(), req.onRetry())
		if err != nil {
			if page > 0 {
				// a track that vanishes mid-walk is not "no captions"
				return Track{}, fmt.Errorf("%w: page %d at %.3fs: %w", ErrTransient, page, cursor, err)
			}
			return Track{}, err
		}
		segments, err := parseJSON3(body)
		if err != nil {
			return Track{}, fmt.Errorf("page %d at %.3fs: %w", page, cursor, err)
		}

		fresh := segments[:0]
		for _, s := range segments {
			if page == 0 || s.Start >= cursor {
				fresh = append(fresh, s)
			}
		}
		if len(fresh) == 0 {
			break
		}
		all = append(all, fresh...)

		last := fresh[len(fresh)-1]
		cursor = last.Start + last.Duration + CursorEpsilon
		if len(fresh) < p.minPageSegments {
			break
		}
	}
	return Track{Language: req.Language, Segments: all}, nil
}
