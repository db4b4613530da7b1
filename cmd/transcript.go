package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// transcriptCmd represents the transcript command
var transcriptCmd = &cobra.Command{
	Use:   "transcript [YouTube URL or ID]",
	Short: "Get the caption transcript of a YouTube video",
	Example: `  # Print the transcript as plain text
  deepread transcript "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  deepread transcript tAP1eZYEuKA

  # Timestamped lines in German, falling back to English
  deepread transcript tAP1eZYEuKA -f timestamped -l de,en

  # Save SubRip subtitles to a file
  deepread transcript tAP1eZYEuKA -f srt -o video.srt`,
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

		outputFile, _ := cmd.Flags().GetString("output")
		if outputFile != "" {
			return os.WriteFile(outputFile, []byte(out), 0644)
		}

		fmt.Print(out)
		return nil
	},
}

func init() {
	transcriptCmd.Flags().StringP("format", "f", "text", "Output format: text, timestamped, srt or json")
	transcriptCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.AddCommand(transcriptCmd)
}
