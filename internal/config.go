package internal

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

const appName = "deepread"

// Config holds application settings
type Config struct {
	// User configurable settings
	LLMModel        string
	LLMBaseURL      string
	AnalysisTimeout time.Duration
	Lang            string
	Languages       []string
	DeepSeekAPIKey  string
	SupadataAPIKey  string
	Prompt          string
	ListenAddr      string
	NotesDB         string
	Verbose         bool
	Quiet           bool
	MCPLogEnabled   bool

	// Caption fetching
	FetchTimeout    time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	PageDelay       time.Duration
	MaxPages        int
	MinPageSegments int
	CaptionOrder    []string
	Relays          []string
	YtDlpEnabled    bool

	// Fixed XDG paths (not configurable)
	ConfigDir string
	DataDir   string
	CacheDir  string
	TempDir   string
}

//go:embed config.toml deep_reading.txt drill_down.txt
var defaultFS embed.FS

const (
	deepReadingPromptFile = "deep_reading.txt"
	drillDownPromptFile   = "drill_down.txt"
)

// ensureDefaultFile writes the embedded default for embedFilename into
// configDir unless a file is already there
func ensureDefaultFile(configDir, embedFilename, description string) error {
	filePath := filepath.Join(configDir, embedFilename)
	if FileExists(filePath) {
		return nil
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaultContent, err := defaultFS.ReadFile(embedFilename)
	if err != nil {
		return fmt.Errorf("reading embedded default %s: %w", description, err)
	}

	if err := os.WriteFile(filePath, defaultContent, 0644); err != nil {
		return fmt.Errorf("writing default %s: %w", description, err)
	}

	fmt.Fprintf(os.Stderr, "Created default %s at %s\n", description, filePath)
	return nil
}

// EnsureDefaultConfig creates config.toml in configDir from the embedded default
func EnsureDefaultConfig(configDir string) error {
	return ensureDefaultFile(configDir, "config.toml", "configuration")
}

// EnsureDefaultPrompts creates the deep reading and drill-down templates in configDir
func EnsureDefaultPrompts(configDir string) error {
	if err := ensureDefaultFile(configDir, deepReadingPromptFile, "deep reading prompt"); err != nil {
		return err
	}
	return ensureDefaultFile(configDir, drillDownPromptFile, "drill-down prompt")
}

// loadDotEnv loads .env and .env.local from the working directory. Values
// already present in the environment win.
func loadDotEnv() {
	for _, name := range []string{".env.local", ".env"} {
		if !FileExists(name) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: loading %s: %v\n", name, err)
		}
	}
}

// newViper sets defaults, config search paths and environment bindings
func newViper(configDir, dataDir string) *viper.Viper {
	v := viper.New()

	v.SetDefault("llm_model", "deepseek-chat")
	v.SetDefault("llm_base_url", "https://api.deepseek.com/v1")
	v.SetDefault("analysis_timeout", 3*time.Minute)
	v.SetDefault("lang", "zh")
	v.SetDefault("languages", []string{})
	v.SetDefault("fetch_timeout", captions.DefaultTimeout)
	v.SetDefault("retry_attempts", captions.DefaultRetryPolicy.Attempts)
	v.SetDefault("retry_backoff", captions.DefaultRetryPolicy.Backoff)
	v.SetDefault("page_delay", captions.DefaultPageDelay)
	v.SetDefault("max_pages", captions.DefaultMaxPages)
	v.SetDefault("min_page_segments", captions.DefaultMinPageSegments)
	v.SetDefault("captions.order", captions.DefaultOrder)
	v.SetDefault("captions.relays", captions.DefaultRelays)
	v.SetDefault("ytdlp.enabled", false)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("notes_db", filepath.Join(dataDir, "notes.db"))
	v.SetDefault("prompt", "") // if empty will use deep_reading.txt
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
	v.SetDefault("mcp_log", false)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEEPREAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The API keys keep the names the hosted services document
	_ = v.BindEnv("deepseek_api_key", "DEEPREAD_DEEPSEEK_API_KEY", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("supadata_api_key", "DEEPREAD_SUPADATA_API_KEY", "SUPADATA_API_KEY")

	return v
}

// configFromViper builds a Config from v for the given XDG directories
func configFromViper(v *viper.Viper, configDir, dataDir, cacheDir string) *Config {
	return &Config{
		LLMModel:        v.GetString("llm_model"),
		LLMBaseURL:      v.GetString("llm_base_url"),
		AnalysisTimeout: v.GetDuration("analysis_timeout"),
		Lang:            v.GetString("lang"),
		Languages:       splitList(v.GetStringSlice("languages")),
		DeepSeekAPIKey:  v.GetString("deepseek_api_key"),
		SupadataAPIKey:  v.GetString("supadata_api_key"),
		Prompt:          v.GetString("prompt"),
		ListenAddr:      v.GetString("listen_addr"),
		NotesDB:         v.GetString("notes_db"),
		Verbose:         v.GetBool("verbose"),
		Quiet:           v.GetBool("quiet"),
		MCPLogEnabled:   v.GetBool("mcp_log"),

		FetchTimeout:    v.GetDuration("fetch_timeout"),
		RetryAttempts:   v.GetInt("retry_attempts"),
		RetryBackoff:    v.GetDuration("retry_backoff"),
		PageDelay:       v.GetDuration("page_delay"),
		MaxPages:        v.GetInt("max_pages"),
		MinPageSegments: v.GetInt("min_page_segments"),
		CaptionOrder:    splitList(v.GetStringSlice("captions.order")),
		Relays:          v.GetStringSlice("captions.relays"),
		YtDlpEnabled:    v.GetBool("ytdlp.enabled"),

		ConfigDir: configDir,
		DataDir:   dataDir,
		CacheDir:  cacheDir,
		TempDir:   filepath.Join(cacheDir, "subs"),
	}
}

// InitConfig initializes Viper and loads configuration. configFile, when not
// empty, replaces the search for config.toml.
func InitConfig(configFile string) *Config {
	loadDotEnv()

	configDir := filepath.Join(xdg.ConfigHome, appName)
	dataDir := filepath.Join(xdg.DataHome, appName)
	cacheDir := filepath.Join(xdg.CacheHome, appName)

	v := newViper(configDir, dataDir)
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Warning: Error reading config file: %v\n", err)
		}
	}

	config := configFromViper(v, configDir, dataDir, cacheDir)
	if config.Verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}
	return config
}

// FetcherConfig translates the caption settings for captions.NewFromConfig
func (c *Config) FetcherConfig() captions.Config {
	return captions.Config{
		Timeout: c.FetchTimeout,
		Retry: captions.RetryPolicy{
			Attempts: c.RetryAttempts,
			Backoff:  c.RetryBackoff,
		},
		PageDelay:       c.PageDelay,
		MaxPages:        c.MaxPages,
		MinPageSegments: c.MinPageSegments,
		Order:           c.CaptionOrder,
		SupadataAPIKey:  c.SupadataAPIKey,
		Relays:          c.Relays,
		YtDlpEnabled:    c.YtDlpEnabled,
		TempDir:         c.TempDir,
	}
}

// splitList flattens comma separated entries, as produced by environment
// variables like DEEPREAD_LANGUAGES=en,de
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
