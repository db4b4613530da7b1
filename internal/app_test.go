package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

func TestDeepReadVideoSavesNote(t *testing.T) {
	fetcher := &fakeFetcher{transcript: testTranscript()}
	chat := &fakeChat{reply: deepReadingReply}
	app := newTestApp(t, testConfig(t), fetcher, chat)

	vr, err := app.DeepReadVideo(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=x", []string{"en"}, DeepReadingRequest{})
	require.NoError(t, err)
	assert.Equal(t, testVideoID, vr.Transcript.VideoID)
	assert.Nil(t, vr.Metadata)
	require.Len(t, vr.Reading.MainLines, 1)
	assert.Contains(t, chat.lastPrompt(), "[seg_0002 0:05] then measure churn")

	store, err := app.Notes()
	require.NoError(t, err)
	note, err := store.Get(context.Background(), testVideoID)
	require.NoError(t, err)
	assert.Equal(t, vr.Reading.HumanNote, note.Body)
}

func TestDeepReadVideoUsesConfiguredLanguages(t *testing.T) {
	config := testConfig(t)
	config.Languages = []string{"de", "en"}
	fetcher := &fakeFetcher{transcript: testTranscript()}
	app := newTestApp(t, config, fetcher, &fakeChat{reply: `{"main_lines": []}`})

	vr, err := app.DeepReadVideo(context.Background(), testVideoID, nil, DeepReadingRequest{})
	require.NoError(t, err)
	assert.Empty(t, vr.Reading.MainLines)
	assert.Equal(t, [][]string{{"de", "en"}}, fetcher.hints)

	// An empty note is not stored.
	store, err := app.Notes()
	require.NoError(t, err)
	_, err = store.Get(context.Background(), testVideoID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestDeepReadVideoFetchError(t *testing.T) {
	fetchErr := &captions.FetchError{Kind: captions.KindNoCaptions, VideoID: testVideoID, Err: errors.New("none")}
	chat := &fakeChat{reply: deepReadingReply}
	app := newTestApp(t, testConfig(t), &fakeFetcher{err: fetchErr}, chat)

	_, err := app.DeepReadVideo(context.Background(), testVideoID, nil, DeepReadingRequest{})
	require.ErrorIs(t, err, captions.ErrNoCaptions)
	assert.Empty(t, chat.prompts)
}

func TestDeepReadMetadataEnrichment(t *testing.T) {
	config := testConfig(t)
	config.YtDlpEnabled = true
	meta := &fakeMetadata{metadata: &VideoMetadata{Title: "Pricing 101", Channel: "Founders"}}
	chat := &fakeChat{reply: deepReadingReply}
	app := newTestApp(t, config, &fakeFetcher{transcript: testTranscript()}, chat, WithYouTube(meta))

	vr, err := app.DeepReadVideo(context.Background(), testVideoID, nil, DeepReadingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Pricing 101", vr.Metadata.Title)
	assert.Contains(t, chat.lastPrompt(), "Video: Pricing 101 (Founders)")
	assert.Equal(t, 1, meta.calls)
}

func TestDeepReadMetadataFailureIsNotFatal(t *testing.T) {
	config := testConfig(t)
	config.YtDlpEnabled = true
	meta := &fakeMetadata{err: errors.New("yt-dlp not installed")}
	chat := &fakeChat{reply: deepReadingReply}
	app := newTestApp(t, config, &fakeFetcher{transcript: testTranscript()}, chat, WithYouTube(meta))

	vr, err := app.DeepReadVideo(context.Background(), testVideoID, nil, DeepReadingRequest{})
	require.NoError(t, err)
	assert.Nil(t, vr.Metadata)
	assert.NotContains(t, chat.lastPrompt(), "Video:")
}

func TestDeepReadEmptyTranscript(t *testing.T) {
	app := newTestApp(t, testConfig(t), &fakeFetcher{}, &fakeChat{reply: deepReadingReply})
	_, err := app.DeepRead(context.Background(), DeepReadingRequest{}, nil)
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestDrillDownVideo(t *testing.T) {
	chat := &fakeChat{reply: drillDownReply}
	app := newTestApp(t, testConfig(t), &fakeFetcher{transcript: testTranscript()}, chat)

	drill, err := app.DrillDownVideo(context.Background(), testVideoID, nil, DrillDownRequest{MainLineIndex: 3, WordLimit: 600, Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Why price", "How to test"}, drill.TeachingOutline)
	containsAll(t, chat.lastPrompt(), "Main line #3", "about 600 words", "pick the 3rd most important", "Write in English")
}

func TestDrillDownInvalidIndex(t *testing.T) {
	chat := &fakeChat{reply: drillDownReply}
	app := newTestApp(t, testConfig(t), &fakeFetcher{transcript: testTranscript()}, chat)

	for _, index := range []int{0, -1} {
		_, err := app.DrillDownVideo(context.Background(), testVideoID, nil, DrillDownRequest{MainLineIndex: index})
		assert.ErrorIs(t, err, ErrInvalidMainLine)
	}
	assert.Empty(t, chat.prompts)
}

func TestFetchTranscriptWithStatusObservesSpinner(t *testing.T) {
	fetcher := captions.New([]captions.Strategy{stubStrategy{}})
	bar := &recordingBar{}
	app := newTestApp(t, testConfig(t), fetcher, &fakeChat{}, WithUI(&fixedUI{bar: bar}))

	transcript, err := app.FetchTranscriptWithStatus(context.Background(), testVideoID, []string{"en"}, true)
	require.NoError(t, err)
	assert.Equal(t, "stub", transcript.Source)
	assert.Equal(t, []string{
		"Fetching captions...",
		"Fetching captions via stub (en)...",
		"Got 3 caption segments from stub",
	}, bar.descriptions)
	assert.Equal(t, 2, bar.advanced)
	assert.True(t, bar.finished)
}

// stubStrategy always has the test transcript.
type stubStrategy struct{}

func (stubStrategy) Name() string { return "stub" }

func (stubStrategy) Fetch(ctx context.Context, req captions.Request) (captions.Track, error) {
	return captions.Track{Language: req.Language, Segments: testTranscript().Segments}, nil
}
