package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [YouTube URL or ID]",
	Short: "Deep read a YouTube video",
	Example: `  # Deep read a YouTube video
  deepread analyze "https://www.youtube.com/watch?v=tAP1eZYEuKA"

  # Favour your own interests, keep two main lines
  deepread analyze tAP1eZYEuKA -i Psychology=0.9 -i Business=0.4 --max-main-lines 2

  # Raw JSON in English
  deepread analyze tAP1eZYEuKA --lang en --json

  # Use a custom prompt template
  deepread analyze tAP1eZYEuKA --prompt ~/prompts/reading.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeepRead(cmd, args[0])
	},
}

func init() {
	internal.AddAnalysisFlags(analyzeCmd)
	rootCmd.AddCommand(analyzeCmd)
}
