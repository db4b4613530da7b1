package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// UIManager handles all user interface concerns (progress, verbose output, prompts)
type UIManager interface {
	// Spinners for work of unknown length
	NewSpinner(description string) ProgressBar

	// Verbose output
	Verbose(format string, args ...any)

	// Status messages
	Printf(format string, args ...any)
	Println(args ...any)
}

// ProgressBar interface abstracts progress bar operations
type ProgressBar interface {
	Describe(description string)
	Advance()
	Finish()
}

// StandardUIManager writes status to stderr so stdout stays clean for results
type StandardUIManager struct {
	verbose bool
	quiet   bool
	out     io.Writer
	tty     bool
}

func NewUIManager(verbose, quiet bool) UIManager {
	return &StandardUIManager{
		verbose: verbose,
		quiet:   quiet,
		out:     os.Stderr,
		tty:     isTerminal(os.Stderr),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewSpinner shows an animated spinner on terminals. In quiet mode, or when
// stderr is redirected, the spinner is silent.
func (ui *StandardUIManager) NewSpinner(description string) ProgressBar {
	if ui.quiet || !ui.tty {
		return &SilentProgressBar{bar: progressbar.DefaultSilent(-1)}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(ui.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
	return &VisibleProgressBar{bar: bar}
}

// Verbose Output Methods
func (ui *StandardUIManager) Verbose(format string, args ...any) {
	if ui.verbose {
		fmt.Fprintf(ui.out, format, args...)
	}
}

// Status Message Methods
func (ui *StandardUIManager) Printf(format string, args ...any) {
	if !ui.quiet {
		fmt.Fprintf(ui.out, format, args...)
	}
}

func (ui *StandardUIManager) Println(args ...any) {
	if !ui.quiet {
		fmt.Fprintln(ui.out, args...)
	}
}

// VisibleProgressBar wraps the actual progress bar
type VisibleProgressBar struct {
	bar *progressbar.ProgressBar
}

func (v *VisibleProgressBar) Describe(description string) {
	v.bar.Describe(description)
}

func (v *VisibleProgressBar) Advance() {
	_ = v.bar.Add(1)
}

func (v *VisibleProgressBar) Finish() {
	_ = v.bar.Finish()
}

// SilentProgressBar implements a silent progress bar
type SilentProgressBar struct {
	bar *progressbar.ProgressBar
}

func (s *SilentProgressBar) Describe(description string) {}

func (s *SilentProgressBar) Advance() {
	_ = s.bar.Add(1)
}

func (s *SilentProgressBar) Finish() {
	_ = s.bar.Finish()
}

// SpinnerObserver narrates the caption fallback chain on a spinner
func SpinnerObserver(bar ProgressBar) captions.Observer {
	return captions.ObserverFunc(func(e captions.Event) {
		switch e.Kind {
		case captions.EventAttempt:
			bar.Describe(fmt.Sprintf("Fetching captions via %s (%s)...", e.Strategy, langOrDefault(e.Language)))
		case captions.EventPage:
			bar.Describe(fmt.Sprintf("Fetching captions via %s, page %d...", e.Strategy, e.Page+1))
		case captions.EventRetry:
			bar.Describe(fmt.Sprintf("Retrying %s (attempt %d)...", e.Strategy, e.Attempt+1))
		case captions.EventSuccess:
			bar.Describe(fmt.Sprintf("Got %d caption segments from %s", e.Segments, e.Strategy))
		default:
			return
		}
		bar.Advance()
	})
}

func langOrDefault(lang string) string {
	if lang == "" {
		return "default language"
	}
	return lang
}
