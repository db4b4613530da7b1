package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/lrstanley/go-ytdlp"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// VideoMetadata contains YouTube video information
type VideoMetadata struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Channel     string         `json:"channel"`
	Uploader    string         `json:"uploader"`
	Duration    float64        `json:"duration"`
	Categories  []string       `json:"categories"`
	Tags        []string       `json:"tags"`
	Chapters    []VideoChapter `json:"chapters"`
	HasCaptions bool           `json:"has_captions"`
	// CaptionLanguages lists manual and automatic caption languages, manual first
	CaptionLanguages []string `json:"caption_languages,omitempty"`
}

// VideoChapter represents a video chapter marker
type VideoChapter struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Title     string  `json:"title"`
}

// MetadataSource looks up video details
type MetadataSource interface {
	Metadata(ctx context.Context, youtubeURL string) (*VideoMetadata, error)
}

// YouTube fetches video metadata with yt-dlp
type YouTube struct {
	logger    *slog.Logger
	installer *captions.Installer
}

// NewYouTube creates a metadata source backed by go-ytdlp
func NewYouTube(logger *slog.Logger) *YouTube {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{logger: logger, installer: captions.NewInstaller()}
}

// Metadata fetches video details using go-ytdlp, installing yt-dlp on first use
func (yt *YouTube) Metadata(ctx context.Context, youtubeURL string) (*VideoMetadata, error) {
	if err := yt.installer.Ensure(ctx); err != nil {
		return nil, err
	}

	yt.logger.Debug("extracting video metadata", slog.String("url", youtubeURL))

	dl := ytdlp.New().
		DumpSingleJSON(). // Get all info in JSON format
		NoPlaylist().     // Don't process playlists
		SkipDownload()    // Don't download the actual video

	result, err := dl.Run(ctx, youtubeURL)
	if err != nil {
		if result != nil {
			yt.logger.Debug("yt-dlp failed", slog.String("stderr", result.Stderr))
		}
		return nil, fmt.Errorf("extracting video metadata: %w", err)
	}

	metadata, err := parseMetadata([]byte(result.Stdout))
	if err != nil {
		return nil, err
	}

	yt.logger.Debug("metadata extracted",
		slog.String("title", metadata.Title),
		slog.String("channel", metadata.Channel),
		slog.Float64("duration", metadata.Duration),
		slog.Int("chapters", len(metadata.Chapters)),
		slog.Bool("captions", metadata.HasCaptions),
	)
	return metadata, nil
}

// parseMetadata decodes yt-dlp's --dump-single-json output
func parseMetadata(data []byte) (*VideoMetadata, error) {
	var raw struct {
		VideoMetadata
		Subtitles         map[string]json.RawMessage `json:"subtitles"`
		AutomaticCaptions map[string]json.RawMessage `json:"automatic_captions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing video metadata: %w", err)
	}

	metadata := raw.VideoMetadata
	if metadata.Channel == "" {
		metadata.Channel = metadata.Uploader
	}
	metadata.CaptionLanguages = captionLanguages(raw.Subtitles, raw.AutomaticCaptions)
	metadata.HasCaptions = len(metadata.CaptionLanguages) > 0
	return &metadata, nil
}

// captionLanguages lists manual languages first, then automatic ones not
// already listed. yt-dlp reports the live chat replay as a subtitle track.
func captionLanguages(manual, auto map[string]json.RawMessage) []string {
	var langs []string
	seen := map[string]bool{"live_chat": true}
	for _, m := range []map[string]json.RawMessage{manual, auto} {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				langs = append(langs, k)
			}
		}
	}
	return langs
}
