package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// drillCmd represents the drill command
var drillCmd = &cobra.Command{
	Use:   "drill [YouTube URL or ID]",
	Short: "Write a long-form article about one main line of a video",
	Example: `  # Drill into the first main line
  deepread drill tAP1eZYEuKA

  # Second main line, about 800 words, in English
  deepread drill tAP1eZYEuKA --index 2 --word-limit 800 --lang en`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed := internal.ParseInput(args[0])
		if !parsed.IsValid() {
			return parsed.Error
		}
		if err := internal.ValidateLLMRequirements(cmd, config); err != nil {
			return err
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		index, _ := cmd.Flags().GetInt("index")
		wordLimit, _ := cmd.Flags().GetInt("word-limit")
		lang, _ := cmd.Flags().GetString("lang")
		if lang == "" {
			lang = config.Lang
		}

		drill, err := app.DrillDownVideo(cmd.Context(), parsed.ID, internal.Languages(cmd), internal.DrillDownRequest{
			MainLineIndex: index,
			WordLimit:     wordLimit,
			Lang:          lang,
		})
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(drill)
		}
		return printMarkdown(internal.DrillDownMarkdown(drill))
	},
}

func init() {
	drillCmd.Flags().Int("index", 1, "Main line to drill into, numbered from 1 as in the deep reading")
	drillCmd.Flags().Int("word-limit", internal.DefaultWordLimit, "Approximate article length in words")
	drillCmd.Flags().String("lang", "", "Output language: zh or en (default from config)")
	drillCmd.Flags().StringP("model", "m", "", "LLM model to use (default from config)")
	drillCmd.Flags().Bool("json", false, "Print the raw JSON instead of rendered Markdown")
	rootCmd.AddCommand(drillCmd)
}
