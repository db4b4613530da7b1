package captions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	androidClientVersion = "20.10.38"
	androidUserAgent     = "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip"
)

type innertubeRequest struct {
	VideoID        string           `json:"videoId"`
	Context        innertubeContext `json:"context"`
	RacyCheckOk    bool             `json:"racyCheckOk"`
	ContentCheckOk bool             `json:"contentCheckOk"`
}

type innertubeContext struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

// Innertube asks the ANDROID innertube /player endpoint for caption tracks.
type Innertube struct {
	requester *Requester
	baseURL   string
}

// NewInnertube creates the innertube player strategy.
func NewInnertube(requester *Requester, baseURL string) *Innertube {
	if baseURL == "" {
		baseURL = YouTubeBaseURL
	}
	return &Innertube{requester: requester, baseURL: baseURL}
}

func (i *Innertube) Name() string { return StrategyInnertube }

func (i *Innertube) Fetch(ctx context.Context, req Request) (Track, error) {
	payload, err := json.Marshal(innertubeRequest{
		VideoID: req.VideoID,
		Context: innertubeContext{Client: innertubeClient{
			ClientName:        "ANDROID",
			ClientVersion:     androidClientVersion,
			AndroidSdkVersion: 30,
			Hl:                "en",
			Gl:                "US",
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return Track{}, fmt.Errorf("encoding player request: %w", err)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	header.Set("X-Youtube-Client-Name", "3")
	header.Set("X-Youtube-Client-Version", androidClientVersion)

	requester := *i.requester
	requester.UserAgent = androidUserAgent
	body, err := requester.Post(ctx, i.baseURL+"/youtubei/v1/player?prettyPrint=false", payload, header, req.onRetry())
	if err != nil {
		return Track{}, err
	}

	var player playerResponse
	if err := json.Unmarshal(body, &player); err != nil {
		return Track{}, malformed("player response", err)
	}
	return trackFromPlayer(ctx, i.requester, req, &player)
}
