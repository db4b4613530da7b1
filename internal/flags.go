package internal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// AddLanguageFlags adds the caption language preference flag to cmd and its subcommands
func AddLanguageFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringSliceP("languages", "l", nil, "Caption languages to try in order, e.g. -l en,de (default: config, then the video's default)")
}

// AddAnalysisFlags adds flags shared by the deep reading commands
func AddAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("interest", "i", nil, "Reader interest as label=weight, repeatable (default: AI, Technology, Business, Psychology, Science)")
	cmd.Flags().Int("max-main-lines", DefaultMaxMainLines, "Maximum number of main lines")
	cmd.Flags().String("lang", "", "Output language: zh or en (default from config)")
	cmd.Flags().StringP("model", "m", "", "LLM model to use (default from config)")
	cmd.Flags().StringP("prompt", "p", "", "Custom deep reading prompt (string or file path)")
	cmd.Flags().Bool("json", false, "Print the raw JSON analysis instead of rendered Markdown")
}

// Languages reads the --languages flag
func Languages(cmd *cobra.Command) []string {
	languages, _ := cmd.Flags().GetStringSlice("languages")
	return splitList(languages)
}

// ParseInterests parses label=weight pairs. An empty list returns nil so the
// defaults apply.
func ParseInterests(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	interests := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		label, value, ok := strings.Cut(pair, "=")
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			return nil, fmt.Errorf("invalid interest %q: want label=weight", pair)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || weight < 0 || weight > 1 {
			return nil, fmt.Errorf("invalid interest weight %q: want a number between 0 and 1", value)
		}
		interests[label] = weight
	}
	return interests, nil
}

// DeepReadingRequestFromFlags builds the analysis knobs from command flags
func DeepReadingRequestFromFlags(cmd *cobra.Command, config *Config) (DeepReadingRequest, error) {
	pairs, _ := cmd.Flags().GetStringSlice("interest")
	interests, err := ParseInterests(pairs)
	if err != nil {
		return DeepReadingRequest{}, err
	}
	maxMainLines, _ := cmd.Flags().GetInt("max-main-lines")
	return DeepReadingRequest{
		Interests:    interests,
		MaxMainLines: maxMainLines,
		Lang:         langFlag(cmd, config),
	}, nil
}

func langFlag(cmd *cobra.Command, config *Config) string {
	lang, _ := cmd.Flags().GetString("lang")
	if lang == "" {
		return config.Lang
	}
	return lang
}

// HandlePromptFlag processes the --prompt flag to set custom prompt
func HandlePromptFlag(cmd *cobra.Command, app *App) error {
	promptFlag := cmd.Flags().Lookup("prompt")
	if promptFlag == nil || !promptFlag.Changed {
		return nil
	}

	prompt, err := cmd.Flags().GetString("prompt")
	if err != nil {
		return fmt.Errorf("failed to get prompt flag: %w", err)
	}
	if prompt == "" {
		return nil
	}

	app.SetPromptManager(NewPromptManager(app.config.ConfigDir, prompt))

	if IsLikelyFilePath(prompt) && FileExists(prompt) {
		app.ui.Verbose("Using custom prompt file: %s\n", prompt)
	} else {
		app.ui.Verbose("Using custom prompt string\n")
	}
	return nil
}

// HandleVerboseFlag processes the --verbose and --quiet flags to update config
func HandleVerboseFlag(cmd *cobra.Command, config *Config) error {
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		verbose, err := cmd.Flags().GetBool("verbose")
		if err != nil {
			return fmt.Errorf("failed to get verbose flag: %w", err)
		}
		config.Verbose = verbose
	}
	if f := cmd.Flags().Lookup("quiet"); f != nil && f.Changed {
		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			return fmt.Errorf("failed to get quiet flag: %w", err)
		}
		config.Quiet = quiet
	}
	return nil
}

// ValidateLLMRequirements validates the API key and applies the --model flag
func ValidateLLMRequirements(cmd *cobra.Command, config *Config) error {
	if err := ValidateAPIKey(config.DeepSeekAPIKey); err != nil {
		return err
	}

	if f := cmd.Flags().Lookup("model"); f != nil {
		if model, _ := cmd.Flags().GetString("model"); model != "" {
			config.LLMModel = model
		}
	}
	if config.LLMModel == "" {
		return fmt.Errorf("no LLM model configured - set llm_model in config.toml")
	}
	return nil
}
