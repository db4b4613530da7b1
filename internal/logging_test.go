package internal

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Info("quiet")
	NewLogger(&buf, false).Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "msg=loud")

	buf.Reset()
	NewLogger(&buf, true).Debug("details", slog.String("video", testVideoID))
	assert.Contains(t, buf.String(), "video=dQw4w9WgXcQ")
}

func TestMCPLogger(t *testing.T) {
	config := &Config{CacheDir: t.TempDir()}

	logger, closeLog := MCPLogger(config)
	logger.Error("dropped")
	closeLog()
	assert.NoFileExists(t, filepath.Join(config.CacheDir, "mcp.log"))

	config.MCPLogEnabled = true
	logger, closeLog = MCPLogger(config)
	logger.Info("tool called", slog.String("tool", "deep_read_youtube"))
	closeLog()

	data, err := os.ReadFile(filepath.Join(config.CacheDir, "mcp.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "component=mcp")
	assert.Contains(t, string(data), "tool=deep_read_youtube")
}
