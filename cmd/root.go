package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

var (
	config *internal.Config
)

var availableCommands = []string{"analyze", "cp", "drill", "mcp", "metadata", "note", "paths", "serve", "transcript", "version", "help"}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deepread [YouTube URL or ID]",
	Short: "Deep reading of YouTube videos from their captions",
	Long: `deepread turns a YouTube video into a study note.

It pulls the video's captions, trying several caption sources in turn,
then asks DeepSeek for the video's main lines with evidence-backed key
points, segments worth re-watching, flashcards and follow-up questions.

The human note of every reading is kept in a local note store.`,
	Example: `  # Deep read a YouTube video (default behavior)
  deepread "https://www.youtube.com/watch?v=tAP1eZYEuKA"
  deepread tAP1eZYEuKA

  # Weight your own interests and read the result in English
  deepread tAP1eZYEuKA -i AI=0.9 -i Business=0.2 --lang en

  # Prefer German captions, fall back to English
  deepread tAP1eZYEuKA -l de,en`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return internal.HandleVerboseFlag(cmd, config)
	},
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeepRead(cmd, args[0])
	},
}

// runDeepRead pulls captions, analyses them and prints the reading
func runDeepRead(cmd *cobra.Command, arg string) error {
	parsed := internal.ParseInput(arg)
	if !parsed.IsValid() {
		if hint := parsed.SuggestCorrection(availableCommands); hint != "" {
			return fmt.Errorf("%w. %s", parsed.Error, hint)
		}
		return parsed.Error
	}

	if err := internal.ValidateLLMRequirements(cmd, config); err != nil {
		return err
	}
	req, err := internal.DeepReadingRequestFromFlags(cmd, config)
	if err != nil {
		return err
	}

	app, err := internal.NewApp(config)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	if err := internal.HandlePromptFlag(cmd, app); err != nil {
		return err
	}

	vr, err := app.DeepReadVideo(cmd.Context(), parsed.ID, internal.Languages(cmd), req)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(vr.Reading)
	}
	return printMarkdown(internal.ReadingMarkdown(vr))
}

func jsonIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return data, nil
}

func printJSON(v any) error {
	data, err := jsonIndent(v)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printMarkdown(md string) error {
	rendered, err := internal.RenderMarkdown(md)
	if err != nil {
		fmt.Println(md)
		return nil
	}
	fmt.Print(rendered)
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --config has to be known before cobra parses the command line
	config = internal.InitConfig(configFlag(os.Args[1:]))

	if err := internal.EnsureDirs(config.ConfigDir, config.DataDir, config.CacheDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating XDG directories: %v\n", err)
		os.Exit(1)
	}

	if err := internal.EnsureDefaultConfig(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default config: %v\n", err)
	}

	if err := internal.EnsureDefaultPrompts(config.ConfigDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to ensure default prompts: %v\n", err)
	}

	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// configFlag finds the value of --config in args
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if value, ok := strings.CutPrefix(arg, "--config="); ok {
			return value
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func init() {
	internal.AddAnalysisFlags(rootCmd)
	internal.AddLanguageFlags(rootCmd)
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for debugging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress spinners and status output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is $XDG_CONFIG_HOME/deepread/config.toml)")
}
