package captions

import (
	"context"
	"net/url"
	"strings"
)

// playerResponse is the subset of YouTube's player response that carries
// caption tracks. Both the innertube /player call and the watch page embed it.
type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

func (p *playerResponse) tracks() []captionTrack {
	if p.Captions == nil {
		return nil
	}
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

func (p *playerResponse) unplayableReason() string {
	if p.PlayabilityStatus == nil || p.PlayabilityStatus.Status == "OK" {
		return ""
	}
	return p.PlayabilityStatus.Reason
}

// needsPoToken reports whether a caption track URL only works in a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack chooses a caption track for lang: a manual track first, then an
// auto-generated one. With no language preference the first manual track
// wins, falling back to the first usable track.
func pickTrack(tracks []captionTrack, lang string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}

	if lang == "" {
		for _, t := range usable {
			if t.Kind != "asr" {
				return t, true
			}
		}
		return usable[0], true
	}

	for _, t := range usable {
		if t.LanguageCode == lang && t.Kind != "asr" {
			return t, true
		}
	}
	for _, t := range usable {
		if t.LanguageCode == lang {
			return t, true
		}
	}
	return captionTrack{}, false
}

// fetchTrack downloads a caption track as json3.
func fetchTrack(ctx context.Context, requester *Requester, req Request, track captionTrack) (Track, error) {
	u, err := url.Parse(track.BaseURL)
	if err != nil {
		return Track{}, malformed("caption track url", err)
	}
	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()

	body, err := requester.Get(ctx, u.String(), youtubeHeaders(), req.onRetry())
	if err != nil {
		return Track{}, err
	}
	segments, err := parseJSON3(body)
	if err != nil {
		return Track{}, err
	}
	return Track{Language: track.LanguageCode, Segments: segments}, nil
}

// trackFromPlayer picks and downloads the track for req from a player response.
func trackFromPlayer(ctx context.Context, requester *Requester, req Request, player *playerResponse) (Track, error) {
	tracks := player.tracks()
	if len(tracks) == 0 {
		if reason := player.unplayableReason(); reason != "" {
			return Track{}, notFound("captions unavailable: %s", reason)
		}
		return Track{}, notFound("no caption tracks in player response")
	}
	track, ok := pickTrack(tracks, req.Language)
	if !ok {
		return Track{}, notFound("no usable caption track for %q", req.Language)
	}
	return fetchTrack(ctx, requester, req, track)
}
