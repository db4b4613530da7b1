package internal

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

const testVideoID = "dQw4w9WgXcQ"

// fakeChat answers every completion with reply, or err when set.
type fakeChat struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeChat) Complete(ctx context.Context, model, system, user string, jsonMode bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, user)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeChat) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// fakeFetcher returns transcript or err and records the requested hints.
type fakeFetcher struct {
	mu         sync.Mutex
	transcript *captions.Transcript
	err        error
	videoIDs   []string
	hints      [][]string
}

func (f *fakeFetcher) Fetch(ctx context.Context, videoID string, hints []string) (*captions.Transcript, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videoIDs = append(f.videoIDs, videoID)
	f.hints = append(f.hints, hints)
	if f.err != nil {
		return nil, f.err
	}
	return f.transcript, nil
}

type fakeMetadata struct {
	metadata *VideoMetadata
	err      error
	calls    int
}

func (f *fakeMetadata) Metadata(ctx context.Context, youtubeURL string) (*VideoMetadata, error) {
	f.calls++
	return f.metadata, f.err
}

func testTranscript() *captions.Transcript {
	return &captions.Transcript{
		VideoID:  testVideoID,
		Language: "en",
		Source:   "timedtext",
		Segments: []captions.Segment{
			{Text: "pricing is a product decision", Start: 0, Duration: 3},
			{Text: "charge more than you think", Start: 3, Duration: 2.5},
			{Text: "then measure churn", Start: 5.5, Duration: 2},
		},
	}
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		LLMModel:  "deepseek-chat",
		Lang:      "zh",
		NotesDB:   ":memory:",
		Quiet:     true,
		ConfigDir: t.TempDir(),
	}
}

// newTestApp wires an App to fakes and an in-memory note store.
func newTestApp(t *testing.T, config *Config, fetcher TranscriptFetcher, chat ChatClient, opts ...AppOption) *App {
	t.Helper()

	store, err := OpenNoteStore(":memory:")
	require.NoError(t, err)

	options := []AppOption{
		WithFetcher(fetcher),
		WithAI(NewAI(chat, config.LLMModel, 0)),
		WithYouTube(&fakeMetadata{}),
		WithNoteStore(store),
		WithUI(NewUIManager(false, true)),
		WithLogger(discardLogger()),
	}
	app, err := NewApp(config, append(options, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

const deepReadingReply = "```json\n" + `{
  "main_lines": [{
    "id": 7,
    "title": "Price on value",
    "definition": "Pricing follows the value delivered",
    "key_points": [{"point": "Charge more", "evidence": {"segment_id": "seg_0001", "timestamp": "0:03", "quote": "charge more than you think", "evidence_found": true}}],
    "score": {"total": 0, "breakdown": {"relevance": 80, "novelty": 60, "actionability": 40, "credibility": 100}}
  }],
  "top_segments": [{"segment_id": "seg_0001", "start": 3, "end": 5.5, "reason_to_review": "the core claim"}],
  "flashcards": [{"q": "Who owns pricing?", "a": "Product", "source_segment": "seg_0000"}],
  "followup_questions": ["How do you measure value?"],
  "human_note": "# Pricing\nCharge more, measure churn."
}` + "\n```"

const drillDownReply = `{"long_form": "## Price on value\nCharge more (0:03).", "teaching_outline": ["Why price", "How to test"], "key_slides": ["Value first"]}`

func containsAll(t *testing.T, s string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			t.Errorf("expected %q in:\n%s", sub, s)
		}
	}
}
