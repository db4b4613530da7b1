package internal

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// NewLogger returns a text logger writing to w. Verbose enables debug
// output; otherwise only warnings and errors are shown.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// discardLogger drops all records.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenMCPLog opens <cacheDir>/mcp.log for appending and returns a debug
// logger on it. The caller closes the returned file.
func OpenMCPLog(cacheDir string) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(cacheDir, "mcp.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening MCP log: %w", err)
	}

	logger := NewLogger(logFile, true).With(slog.String("component", "mcp"))
	return logger, logFile, nil
}

// MCPLogger returns the logger for MCP mode: the log file when enabled,
// otherwise a logger that discards everything.
func MCPLogger(config *Config) (*slog.Logger, func()) {
	if !config.MCPLogEnabled {
		return discardLogger(), func() {}
	}
	logger, closer, err := OpenMCPLog(config.CacheDir)
	if err != nil {
		return discardLogger(), func() {}
	}
	return logger, func() { _ = closer.Close() }
}
