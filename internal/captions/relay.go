package captions

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// RelayURLPlaceholder is replaced with the escaped upstream URL in a relay template.
const RelayURLPlaceholder = "{url}"

// DefaultRelays lists public CORS relays, tried in order. Mirrors come and go
// and this list is expected to be replaced through configuration rather than
// edited in code.
var DefaultRelays = []string{
	"https://corsproxy.io/?url={url}",
	"https://api.allorigins.win/raw?url={url}",
}

// Relay fetches the timedtext URL through third-party relays.
type Relay struct {
	requester *Requester
	baseURL   string
	templates []string
}

// NewRelay creates the relay strategy. Templates must contain {url}.
func NewRelay(requester *Requester, youtubeBaseURL string, templates []string) (*Relay, error) {
	if len(templates) == 0 {
		return nil, errors.New("relay: no relays configured")
	}
	for _, t := range templates {
		if !strings.Contains(t, RelayURLPlaceholder) {
			return nil, fmt.Errorf("relay: template %q has no %s placeholder", t, RelayURLPlaceholder)
		}
	}
	if youtubeBaseURL == "" {
		youtubeBaseURL = YouTubeBaseURL
	}
	return &Relay{requester: requester, baseURL: youtubeBaseURL, templates: templates}, nil
}

func (r *Relay) Name() string { return StrategyRelay }

// Fetch tries each relay in priority order. The first relay that returns
// caption data wins; if every relay reported 404 the result is NotFound,
// otherwise the last transient error is returned.
func (r *Relay) Fetch(ctx context.Context, req Request) (Track, error) {
	upstream := timedTextURL(r.baseURL, req.VideoID, req.Language, -1)

	var lastNotFound, lastTransient error
	for _, tmpl := range r.templates {
		relayURL := strings.ReplaceAll(tmpl, RelayURLPlaceholder, url.QueryEscape(upstream))

		body, err := r.requester.Get(ctx, relayURL, youtubeHeaders(), req.onRetry())
		if err == nil {
			var segments []Segment
			segments, err = parseJSON3(body)
			if err == nil && len(segments) > 0 {
				return Track{Language: req.Language, Segments: segments}, nil
			}
			if err == nil {
				err = notFound("relay returned no events")
			}
		}
		if isCanceled(ctx) {
			return Track{}, ctx.Err()
		}

		err = fmt.Errorf("relay %s: %w", relayHost(tmpl), err)
		if isNotFound(err) {
			lastNotFound = err
		} else {
			lastTransient = err
		}
	}

	if lastTransient != nil {
		return Track{}, lastTransient
	}
	return Track{}, lastNotFound
}

func relayHost(tmpl string) string {
	u, err := url.Parse(strings.ReplaceAll(tmpl, RelayURLPlaceholder, ""))
	if err != nil || u.Host == "" {
		return tmpl
	}
	return u.Host
}
