package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// cpCmd copies the transcript to the system clipboard instead of printing to stdout.
var cpCmd = &cobra.Command{
	Use:   "cp [URL]",
	Short: "Copy transcript from YouTube to the clipboard",
	Example: `  # Copy transcript from YouTube captions
  deepread cp "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  deepread cp tAP1eZYEuKA

  # Copy with timestamps
  deepread cp tAP1eZYEuKA -f timestamped`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		transcript, err := fetchTranscript(cmd, app, args[0])
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		out, err := formatTranscript(transcript, format)
		if err != nil {
			return err
		}

		if err := clipboard.WriteAll(out); err != nil {
			return fmt.Errorf("copying transcript to clipboard: %w", err)
		}

		if !config.Quiet {
			fmt.Println("Transcript copied to clipboard")
		}

		return nil
	},
}

func init() {
	cpCmd.Flags().StringP("format", "f", "text", "Output format: text, timestamped, srt or json")
	rootCmd.AddCommand(cpCmd)
}
