package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// ErrEmptyTranscript is returned when an analysis is requested without transcript segments.
var ErrEmptyTranscript = errors.New("transcript is empty")

// TranscriptFetcher gets the caption transcript of a video
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, languageHints []string) (*captions.Transcript, error)
}

// App holds the application state and dependencies
type App struct {
	fetcher       TranscriptFetcher
	youtube       MetadataSource
	ai            *AI
	promptManager *PromptManager
	config        *Config
	ui            UIManager
	logger        *slog.Logger

	notesOnce sync.Once
	notes     *NoteStore
	notesErr  error
}

// NewApp initializes the application
func NewApp(config *Config, options ...AppOption) (*App, error) {
	app := &App{
		ai:            NewAIWithKey(config.DeepSeekAPIKey, config.LLMBaseURL, config.LLMModel, config.AnalysisTimeout),
		promptManager: NewPromptManager(config.ConfigDir, config.Prompt),
		config:        config,
		ui:            NewUIManager(config.Verbose, config.Quiet),
		logger:        NewLogger(os.Stderr, config.Verbose),
	}

	for _, option := range options {
		option(app)
	}

	if app.youtube == nil {
		app.youtube = NewYouTube(app.logger)
	}
	if app.fetcher == nil {
		fetcher, err := captions.NewFromConfig(config.FetcherConfig(), captions.WithObserver(captions.LogObserver(app.logger)))
		if err != nil {
			return nil, fmt.Errorf("building caption fetcher: %w", err)
		}
		app.fetcher = fetcher
	}

	return app, nil
}

// AppOption customizes App creation
type AppOption func(*App)

// WithFetcher sets a custom transcript fetcher
func WithFetcher(fetcher TranscriptFetcher) AppOption {
	return func(a *App) {
		a.fetcher = fetcher
	}
}

// WithYouTube sets a custom metadata source
func WithYouTube(youtube MetadataSource) AppOption {
	return func(a *App) {
		a.youtube = youtube
	}
}

// WithAI sets a custom AI processor
func WithAI(ai *AI) AppOption {
	return func(a *App) {
		a.ai = ai
	}
}

// WithNoteStore sets an already opened note store
func WithNoteStore(store *NoteStore) AppOption {
	return func(a *App) {
		a.notesOnce.Do(func() { a.notes = store })
	}
}

// WithUI sets the user interface
func WithUI(ui UIManager) AppOption {
	return func(a *App) {
		a.ui = ui
	}
}

// WithLogger sets the structured logger used by the app and the fetcher
func WithLogger(logger *slog.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// SetPromptManager sets a new prompt manager
func (app *App) SetPromptManager(pm *PromptManager) {
	app.promptManager = pm
}

// Config returns the configuration the app was built with
func (app *App) Config() *Config {
	return app.config
}

// Notes opens the note store on first use
func (app *App) Notes() (*NoteStore, error) {
	app.notesOnce.Do(func() {
		app.notes, app.notesErr = OpenNoteStore(app.config.NotesDB)
	})
	return app.notes, app.notesErr
}

// Close releases the note store
func (app *App) Close() error {
	if app.notes != nil {
		return app.notes.Close()
	}
	return nil
}

// languageHints returns languages, or the configured default hints when empty
func (app *App) languageHints(languages []string) []string {
	if len(languages) > 0 {
		return languages
	}
	return app.config.Languages
}

// FetchTranscript resolves arg (URL or ID) and runs the caption fallback chain
func (app *App) FetchTranscript(ctx context.Context, arg string, languages []string) (*captions.Transcript, error) {
	return app.FetchTranscriptWithStatus(ctx, arg, languages, false)
}

// FetchTranscriptWithStatus fetches captions with an optional status spinner
func (app *App) FetchTranscriptWithStatus(ctx context.Context, arg string, languages []string, showStatus bool) (*captions.Transcript, error) {
	_, videoID := ParseArg(arg)

	if showStatus {
		spinner := app.ui.NewSpinner("Fetching captions...")
		defer spinner.Finish()
		ctx = captions.ContextWithObserver(ctx, SpinnerObserver(spinner))
	}

	transcript, err := app.fetcher.Fetch(ctx, videoID, app.languageHints(languages))
	if err != nil {
		return nil, err
	}

	app.ui.Verbose("Fetched %d segments (%s) via %s\n", len(transcript.Segments), transcript.Language, transcript.Source)
	return transcript, nil
}

// Metadata gets video metadata from YouTube
func (app *App) Metadata(ctx context.Context, arg string) (*VideoMetadata, error) {
	return app.MetadataWithStatus(ctx, arg, false)
}

// MetadataWithStatus gets metadata with optional status spinner
func (app *App) MetadataWithStatus(ctx context.Context, arg string, showStatus bool) (*VideoMetadata, error) {
	youtubeURL, _ := ParseArg(arg)

	if showStatus {
		spinner := app.ui.NewSpinner("Fetching video metadata...")
		defer spinner.Finish()
	}

	metadata, err := app.youtube.Metadata(ctx, youtubeURL)
	if err != nil {
		return nil, err
	}
	return metadata, nil
}

// promptMetadata returns metadata for prompt enrichment when yt-dlp is enabled.
// Failures only cost the enrichment.
func (app *App) promptMetadata(ctx context.Context, videoID string) *VideoMetadata {
	if !app.config.YtDlpEnabled || videoID == "" {
		return nil
	}
	metadata, err := app.youtube.Metadata(ctx, WatchURL(videoID))
	if err != nil {
		app.logger.Warn("metadata for prompt unavailable", slog.String("video", videoID), slog.Any("err", err))
		return nil
	}
	return metadata
}

// DeepRead analyses a transcript. metadata may be nil.
func (app *App) DeepRead(ctx context.Context, req DeepReadingRequest, metadata *VideoMetadata) (*DeepReading, error) {
	if len(req.Transcript) == 0 {
		return nil, ErrEmptyTranscript
	}

	opts := req.resolve()
	data := DeepReadingPromptData{
		Interests:    opts.Interests,
		Weights:      opts.Weights,
		MaxMainLines: opts.MaxMainLines,
		Lang:         opts.Lang,
		Transcript:   PromptTranscript(req.Transcript),
	}
	if metadata != nil {
		data.Title = metadata.Title
		data.Channel = metadata.Channel
	}

	prompt, err := app.promptManager.DeepReadingPrompt(data)
	if err != nil {
		return nil, fmt.Errorf("creating prompt: %w", err)
	}

	raw, err := app.ai.JSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating deep reading: %w", err)
	}

	return parseDeepReading(raw, req.Transcript, opts)
}

// DrillDown writes the long-form article for one main line. metadata may be nil.
func (app *App) DrillDown(ctx context.Context, req DrillDownRequest, metadata *VideoMetadata) (*DrillDown, error) {
	if len(req.Transcript) == 0 {
		return nil, ErrEmptyTranscript
	}
	if req.MainLineIndex < 1 {
		return nil, fmt.Errorf("%w: %d (main lines are numbered from 1)", ErrInvalidMainLine, req.MainLineIndex)
	}

	wordLimit := req.WordLimit
	if wordLimit <= 0 {
		wordLimit = DefaultWordLimit
	}
	data := DrillDownPromptData{
		Index:      req.MainLineIndex,
		WordLimit:  wordLimit,
		Lang:       normalizeLang(req.Lang),
		Transcript: PromptTranscript(req.Transcript),
	}
	if req.MainLine != nil {
		data.MainLine = *req.MainLine
	}
	if metadata != nil {
		data.Title = metadata.Title
		data.Channel = metadata.Channel
	}

	prompt, err := app.promptManager.DrillDownPrompt(data)
	if err != nil {
		return nil, fmt.Errorf("creating prompt: %w", err)
	}

	raw, err := app.ai.JSON(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating drill-down: %w", err)
	}

	return parseDrillDown(raw)
}

// VideoReading is a fetched transcript with its analysis
type VideoReading struct {
	Transcript *captions.Transcript `json:"transcript"`
	Metadata   *VideoMetadata       `json:"metadata,omitempty"`
	Reading    *DeepReading         `json:"reading"`
}

// DeepReadVideo runs the whole workflow for a video: fetch captions, analyse,
// and keep the human note in the note store
func (app *App) DeepReadVideo(ctx context.Context, arg string, languages []string, req DeepReadingRequest) (*VideoReading, error) {
	showStatus := !app.config.Quiet
	transcript, err := app.FetchTranscriptWithStatus(ctx, arg, languages, showStatus)
	if err != nil {
		return nil, err
	}

	metadata := app.promptMetadata(ctx, transcript.VideoID)

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner("Reading the transcript...")
	}
	req.Transcript = transcript.Records()
	reading, err := app.DeepRead(ctx, req, metadata)
	if spinner != nil {
		spinner.Finish()
	}
	if err != nil {
		return nil, err
	}

	app.saveNote(ctx, transcript.VideoID, reading.HumanNote)
	return &VideoReading{Transcript: transcript, Metadata: metadata, Reading: reading}, nil
}

// DrillDownVideo fetches captions and drills into main line index of the video
func (app *App) DrillDownVideo(ctx context.Context, arg string, languages []string, req DrillDownRequest) (*DrillDown, error) {
	showStatus := !app.config.Quiet
	transcript, err := app.FetchTranscriptWithStatus(ctx, arg, languages, showStatus)
	if err != nil {
		return nil, err
	}

	var spinner ProgressBar
	if showStatus {
		spinner = app.ui.NewSpinner(fmt.Sprintf("Drilling into main line %d...", req.MainLineIndex))
	}
	req.Transcript = transcript.Records()
	drill, err := app.DrillDown(ctx, req, app.promptMetadata(ctx, transcript.VideoID))
	if spinner != nil {
		spinner.Finish()
	}
	return drill, err
}

// saveNote stores a non-empty human note. Storage problems are logged, the
// analysis is still returned.
func (app *App) saveNote(ctx context.Context, videoID, body string) {
	if body == "" || videoID == "" {
		return
	}
	store, err := app.Notes()
	if err != nil {
		app.logger.Warn("note store unavailable", slog.Any("err", err))
		return
	}
	if _, err := store.Save(ctx, videoID, body); err != nil {
		app.logger.Warn("saving note", slog.String("video", videoID), slog.Any("err", err))
	}
}
