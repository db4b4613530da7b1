package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// fetchTranscript pulls the captions of arg, showing a spinner unless quiet.
func fetchTranscript(cmd *cobra.Command, app *internal.App, arg string) (*captions.Transcript, error) {
	parsed := internal.ParseInput(arg)
	if !parsed.IsValid() {
		return nil, parsed.Error
	}
	return app.FetchTranscriptWithStatus(cmd.Context(), parsed.ID, internal.Languages(cmd), !config.Quiet)
}

// formatTranscript renders t in one of the supported output formats
func formatTranscript(t *captions.Transcript, format string) (string, error) {
	switch format {
	case "", "text":
		return t.Text() + "\n", nil
	case "timestamped":
		return t.Timestamped(), nil
	case "srt":
		return t.SRT(), nil
	case "json":
		data, err := jsonIndent(captions.NewResult(t, nil))
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, timestamped, srt or json)", format)
	}
}
