package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// SupadataBaseURL is the hosted transcript API.
const SupadataBaseURL = "https://api.supadata.ai"

// sentenceDuration is the synthetic length given to each sentence when the
// API returns plain text instead of timed chunks.
const sentenceDuration = 3.0

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Supadata fetches transcripts from the Supadata API.
type Supadata struct {
	requester *Requester
	baseURL   string
	apiKey    string
}

// NewSupadata creates the hosted-API strategy.
func NewSupadata(requester *Requester, baseURL, apiKey string) *Supadata {
	if baseURL == "" {
		baseURL = SupadataBaseURL
	}
	return &Supadata{requester: requester, baseURL: baseURL, apiKey: apiKey}
}

func (s *Supadata) Name() string { return StrategySupadata }

type supadataResponse struct {
	Content        json.RawMessage `json:"content"`
	Lang           string          `json:"lang"`
	AvailableLangs []string        `json:"availableLangs"`
}

type supadataChunk struct {
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
	Lang     string  `json:"lang"`
}

func (s *Supadata) Fetch(ctx context.Context, req Request) (Track, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+req.VideoID)
	if req.Language != "" {
		q.Set("lang", req.Language)
	}
	header := http.Header{}
	header.Set("x-api-key", s.apiKey)
	header.Set("Content-Type", "application/json")

	body, err := s.requester.Get(ctx, s.baseURL+"/v1/transcript?"+q.Encode(), header, req.onRetry())
	if err != nil {
		return Track{}, err
	}

	var resp supadataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Track{}, malformed("supadata response", err)
	}

	segments, err := parseSupadataContent(resp.Content)
	if err != nil {
		return Track{}, err
	}

	lang := resp.Lang
	if lang == "" {
		lang = req.Language
	}
	return Track{Language: lang, Segments: segments}, nil
}

// parseSupadataContent handles both the chunk array and the plain-text form.
func parseSupadataContent(raw json.RawMessage) ([]Segment, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var chunks []supadataChunk
		if err := json.Unmarshal(raw, &chunks); err != nil {
			return nil, malformed("supadata content", err)
		}
		segments := make([]Segment, 0, len(chunks))
		for _, c := range chunks {
			segments = append(segments, Segment{
				Text:     c.Text,
				Start:    c.Offset / 1000,
				Duration: c.Duration / 1000,
			})
		}
		return segments, nil
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, malformed("supadata content", err)
		}
		return splitSentences(text), nil
	default:
		return nil, malformed("supadata content", fmt.Errorf("unexpected JSON %q", trimmed[:1]))
	}
}

func splitSentences(text string) []Segment {
	var segments []Segment
	for _, part := range sentenceSplit.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     part,
			Start:    float64(len(segments)) * sentenceDuration,
			Duration: sentenceDuration,
		})
	}
	return segments
}
