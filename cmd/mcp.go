package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run MCP server for deepread",
	Long: `Run a Model Context Protocol (MCP) server that exposes deepread as tools.

The MCP server provides three tools:
- get_youtube_transcript: Fetch a video's captions as timestamped lines
- deep_read_youtube: Main lines, key points with evidence, flashcards and a study note
- drill_down_youtube: Long-form article about one main line

This allows AI assistants to use deepread through the MCP protocol.

Transport options:
- stdio (default): Standard MCP transport via stdin/stdout
- http: HTTP transport on specified port (use --port to configure)`,
	Example: `  # Run MCP server with stdio transport (e.g. for Claude Desktop)
  deepread mcp

  # Run MCP server with HTTP transport on port 8080
  deepread mcp --transport=http --port=8080

  # Set up Claude Desktop integration
  deepread mcp setup-claude`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// MCP uses stdio protocol, so keep spinners and status output off stdout
		config.Verbose = false
		config.Quiet = true
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		logger, closeLog := internal.MCPLogger(config)
		defer closeLog()

		app, err := internal.NewApp(config, internal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		mcpServer := internal.NewMCPServer(app, version)

		// Start the server (this will block until context is cancelled)
		return mcpServer.Start(cmd.Context(), transport, port)
	},
}

// setupClaudeCmd represents the setup-claude subcommand
var setupClaudeCmd = &cobra.Command{
	Use:   "setup-claude",
	Short: "Configure Claude Desktop to use the deepread MCP server",
	Long: `Register deepread as an MCP server in Claude Desktop's claude_desktop_config.json.

The entry runs this binary with "mcp", passes --config when one was given, and
points the XDG variables at the directories deepread uses here, so the server
reads the same config.toml and notes database. Other servers and settings in
the file are left untouched.

API keys are read from config.toml or the environment at startup. Use
--with-keys to copy DEEPSEEK_API_KEY and SUPADATA_API_KEY into the entry
instead (they are stored in plain text).`,
	Example: `  deepread mcp setup-claude
  deepread --config ~/deepread.toml mcp setup-claude --name deepread-work
  deepread mcp setup-claude --with-keys --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		withKeys, _ := cmd.Flags().GetBool("with-keys")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		configFile, _ := cmd.Flags().GetString("config")

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("getting executable path: %w", err)
		}
		if execPath, err = filepath.EvalSymlinks(execPath); err != nil {
			return fmt.Errorf("resolving executable path: %w", err)
		}
		if configFile != "" {
			if configFile, err = filepath.Abs(configFile); err != nil {
				return fmt.Errorf("resolving config path: %w", err)
			}
		}

		entry := claudeServerEntry(execPath, configFile, config, withKeys)
		if dryRun {
			data, err := jsonIndent(map[string]MCPServerConfig{name: entry})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		configPath, err := claudeDesktopConfigPath(runtime.GOOS)
		if err != nil {
			return fmt.Errorf("getting Claude Desktop config path: %w", err)
		}
		if err := registerClaudeServer(configPath, name, entry); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Added MCP server %q to %s\n", name, configPath)
		fmt.Fprintln(cmd.OutOrStdout(), "Restart Claude Desktop to use it")
		return nil
	},
}

// MCPServerConfig is one entry under "mcpServers" in claude_desktop_config.json
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

// claudeServerEntry builds the server entry that starts "deepread mcp" with
// this installation's config and data locations.
func claudeServerEntry(execPath, configFile string, cfg *internal.Config, withKeys bool) MCPServerConfig {
	args := []string{"mcp"}
	if configFile != "" {
		args = append(args, "--config", configFile)
	}

	env := map[string]string{
		"XDG_DATA_HOME":   xdg.DataHome,
		"XDG_CONFIG_HOME": xdg.ConfigHome,
		"XDG_CACHE_HOME":  xdg.CacheHome,
	}
	if withKeys {
		if cfg.DeepSeekAPIKey != "" {
			env["DEEPSEEK_API_KEY"] = cfg.DeepSeekAPIKey
		}
		if cfg.SupadataAPIKey != "" {
			env["SUPADATA_API_KEY"] = cfg.SupadataAPIKey
		}
	}
	return MCPServerConfig{Command: execPath, Args: args, Env: env}
}

// registerClaudeServer adds or replaces the named server in the Claude Desktop
// config at path. The file must already exist.
func registerClaudeServer(path, name string, entry MCPServerConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config for Claude Desktop not found at %s - start Claude Desktop once first", path)
	}
	if err != nil {
		return fmt.Errorf("reading Claude Desktop config: %w", err)
	}

	updated, err := mergeClaudeServer(data, name, entry)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, updated, 0644); err != nil {
		return fmt.Errorf("writing Claude Desktop config: %w", err)
	}
	return nil
}

// mergeClaudeServer sets mcpServers[name] in a claude_desktop_config.json
// document, keeping every other key as it was.
func mergeClaudeServer(data []byte, name string, entry MCPServerConfig) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing Claude Desktop config: %w", err)
		}
	}

	servers := map[string]json.RawMessage{}
	if raw, ok := doc["mcpServers"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &servers); err != nil {
			return nil, fmt.Errorf("parsing mcpServers: %w", err)
		}
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}
	servers[name] = encoded

	if doc["mcpServers"], err = json.Marshal(servers); err != nil {
		return nil, err
	}
	return jsonIndent(doc)
}

// claudeDesktopConfigPath returns where Claude Desktop keeps its config on goos
func claudeDesktopConfigPath(goos string) (string, error) {
	switch goos {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json"), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, "Claude", "claude_desktop_config.json"), nil
	case "linux":
		return filepath.Join(xdg.ConfigHome, "Claude", "claude_desktop_config.json"), nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
}

func init() {
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol (stdio or http)")
	mcpCmd.Flags().Int("port", 8080, "Port for HTTP transport (only used with --transport=http)")
	setupClaudeCmd.Flags().String("name", "deepread", "Server name in claude_desktop_config.json")
	setupClaudeCmd.Flags().Bool("with-keys", false, "Copy the DeepSeek and Supadata API keys into the server entry")
	setupClaudeCmd.Flags().Bool("dry-run", false, "Print the server entry instead of writing it")
	mcpCmd.AddCommand(setupClaudeCmd)
	rootCmd.AddCommand(mcpCmd)
}
