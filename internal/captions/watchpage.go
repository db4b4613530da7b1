package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const playerResponseMarker = "ytInitialPlayerResponse"

// WatchPage scrapes the watch page for the embedded player response.
type WatchPage struct {
	requester *Requester
	baseURL   string
}

// NewWatchPage creates the page-scrape strategy.
func NewWatchPage(requester *Requester, baseURL string) *WatchPage {
	if baseURL == "" {
		baseURL = YouTubeBaseURL
	}
	return &WatchPage{requester: requester, baseURL: baseURL}
}

func (w *WatchPage) Name() string { return StrategyWatchPage }

func (w *WatchPage) Fetch(ctx context.Context, req Request) (Track, error) {
	header := http.Header{}
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	header.Set("Accept-Language", "en-US,en;q=0.9")

	body, err := w.requester.Get(ctx, w.baseURL+"/watch?v="+req.VideoID, header, req.onRetry())
	if err != nil {
		return Track{}, err
	}

	raw, err := extractPlayerResponse(body)
	if err != nil {
		return Track{}, err
	}
	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return Track{}, malformed("ytInitialPlayerResponse", err)
	}
	return trackFromPlayer(ctx, w.requester, req, &player)
}

// extractPlayerResponse finds the script that assigns ytInitialPlayerResponse
// and returns its JSON object.
func extractPlayerResponse(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, malformed("watch page", err)
	}

	var found []byte
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		idx := strings.Index(text, playerResponseMarker)
		if idx < 0 {
			return true
		}
		rest := text[idx+len(playerResponseMarker):]
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			return true
		}
		found = extractJSON([]byte(rest[start:]))
		return found == nil
	})
	if found == nil {
		return nil, notFound("no %s in watch page", playerResponseMarker)
	}
	return found, nil
}

// extractJSON returns the complete JSON object starting at b[0] by tracking
// brace depth outside of strings.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr := false
	escaped := false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}
