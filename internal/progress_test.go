package internal

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

type recordingBar struct {
	descriptions []string
	advanced     int
	finished     bool
}

func (b *recordingBar) Describe(description string) { b.descriptions = append(b.descriptions, description) }
func (b *recordingBar) Advance()                    { b.advanced++ }
func (b *recordingBar) Finish()                     { b.finished = true }

// fixedUI hands out the same bar for every spinner.
type fixedUI struct {
	bar *recordingBar
}

func (u *fixedUI) NewSpinner(description string) ProgressBar {
	u.bar.Describe(description)
	return u.bar
}
func (u *fixedUI) Verbose(format string, args ...any) {}
func (u *fixedUI) Printf(format string, args ...any)  {}
func (u *fixedUI) Println(args ...any)                {}

func TestSpinnerObserver(t *testing.T) {
	tests := []struct {
		name  string
		event captions.Event
		want  string
	}{
		{"attempt", captions.Event{Kind: captions.EventAttempt, Strategy: "timedtext", Language: "de"}, "Fetching captions via timedtext (de)..."},
		{"default language", captions.Event{Kind: captions.EventAttempt, Strategy: "innertube"}, "Fetching captions via innertube (default language)..."},
		{"page", captions.Event{Kind: captions.EventPage, Strategy: "timedtext-paged", Page: 1}, "Fetching captions via timedtext-paged, page 2..."},
		{"retry", captions.Event{Kind: captions.EventRetry, Strategy: "supadata", Attempt: 1}, "Retrying supadata (attempt 2)..."},
		{"success", captions.Event{Kind: captions.EventSuccess, Strategy: "relay", Segments: 42}, "Got 42 caption segments from relay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := &recordingBar{}
			SpinnerObserver(bar).Observe(tt.event)
			assert.Equal(t, []string{tt.want}, bar.descriptions)
			assert.Equal(t, 1, bar.advanced)
		})
	}
}

func TestSpinnerObserverIgnoresFailures(t *testing.T) {
	bar := &recordingBar{}
	obs := SpinnerObserver(bar)
	obs.Observe(captions.Event{Kind: captions.EventFailure, Strategy: "relay", Err: errors.New("boom")})
	obs.Observe(captions.Event{Kind: captions.EventExhausted})
	assert.Empty(t, bar.descriptions)
	assert.Zero(t, bar.advanced)
}

func TestStandardUIManagerGating(t *testing.T) {
	var buf bytes.Buffer
	ui := &StandardUIManager{out: &buf}
	ui.Verbose("hidden %d\n", 1)
	ui.Printf("shown %d\n", 2)
	assert.Equal(t, "shown 2\n", buf.String())

	buf.Reset()
	ui = &StandardUIManager{verbose: true, quiet: true, out: &buf}
	ui.Verbose("debug\n")
	ui.Println("status")
	assert.Equal(t, "debug\n", buf.String())

	// Not a terminal: spinners stay silent and never write.
	bar := ui.NewSpinner("working")
	bar.Describe("still working")
	bar.Advance()
	bar.Finish()
	assert.Equal(t, "debug\n", buf.String())
}
