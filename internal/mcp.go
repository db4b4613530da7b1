package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

// MCPServer wraps the MCP server and application dependencies
type MCPServer struct {
	app       *App
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(app *App, version string) *MCPServer {
	mcpServer := server.NewMCPServer(
		"deepread",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		app:       app,
		mcpServer: mcpServer,
		logger:    app.logger,
	}
	s.registerTools()
	return s
}

// registerTools registers all available MCP tools
func (s *MCPServer) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_youtube_transcript",
		mcp.WithDescription("Fetch the caption transcript of a YouTube video as timestamped lines. Tries several caption sources in turn. Fails with no_captions when the video has no captions in any requested language."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or 11-character video ID"),
			mcp.Required(),
		),
		mcp.WithString("languages",
			mcp.Description("Comma separated caption language preferences, e.g. \"en,de\". Empty uses the video's default."),
		),
	), s.handleGetTranscript)

	s.mcpServer.AddTool(mcp.NewTool("deep_read_youtube",
		mcp.WithDescription("Analyse a YouTube video's transcript: main lines with scored, evidence-backed key points, segments worth re-watching, flashcards, follow-up questions and a Markdown study note. Returns JSON. Requires a DeepSeek API key."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or 11-character video ID"),
			mcp.Required(),
		),
		mcp.WithString("languages",
			mcp.Description("Comma separated caption language preferences"),
		),
		mcp.WithString("interests",
			mcp.Description("Reader interests as label=weight pairs, e.g. \"AI=0.8,Business=0.3\". Weights are between 0 and 1."),
		),
		mcp.WithNumber("max_main_lines",
			mcp.Description("Maximum number of main lines (default 3)"),
		),
		mcp.WithString("lang",
			mcp.Description("Output language: zh (default) or en"),
			mcp.Enum("zh", "en"),
		),
	), s.handleDeepRead)

	s.mcpServer.AddTool(mcp.NewTool("drill_down_youtube",
		mcp.WithDescription("Write a long-form Markdown article, a teaching outline and key slides about one main line of a YouTube video. Returns JSON. Requires a DeepSeek API key."),
		mcp.WithString("url",
			mcp.Description("YouTube video URL or 11-character video ID"),
			mcp.Required(),
		),
		mcp.WithNumber("main_line_index",
			mcp.Description("1-based index of the main line, as numbered by deep_read_youtube"),
			mcp.Required(),
		),
		mcp.WithString("languages",
			mcp.Description("Comma separated caption language preferences"),
		),
		mcp.WithNumber("word_limit",
			mcp.Description("Approximate article length in words (default 1500)"),
		),
		mcp.WithString("lang",
			mcp.Description("Output language: zh (default) or en"),
			mcp.Enum("zh", "en"),
		),
	), s.handleDrillDown)
}

// handleGetTranscript implements the get_youtube_transcript tool
func (s *MCPServer) handleGetTranscript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	languages := SplitLanguages(request.GetString("languages", ""))
	s.logger.Info("get_youtube_transcript", slog.String("url", url), slog.Any("languages", languages))

	transcript, err := s.app.FetchTranscript(ctx, url, languages)
	if err != nil {
		s.logger.Error("get_youtube_transcript failed", slog.Any("err", err))
		return mcp.NewToolResultErrorFromErr(string(captions.ErrorKindOf(err)), err), nil
	}

	var buf strings.Builder
	meta := transcript.Meta()
	fmt.Fprintf(&buf, "Video: %s | Language: %s | Source: %s | Duration: %s | Segments: %d\n\n",
		transcript.VideoID, transcript.Language, transcript.Source, meta.DurationFormatted, meta.SegmentCount)
	buf.WriteString(transcript.Timestamped())

	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(buf.String())},
	}, nil
}

// handleDeepRead implements the deep_read_youtube tool
func (s *MCPServer) handleDeepRead(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}

	interests, err := ParseInterests(SplitLanguages(request.GetString("interests", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req := DeepReadingRequest{
		Interests:    interests,
		MaxMainLines: request.GetInt("max_main_lines", DefaultMaxMainLines),
		Lang:         request.GetString("lang", s.app.config.Lang),
	}
	s.logger.Info("deep_read_youtube", slog.String("url", url))

	vr, err := s.app.DeepReadVideo(ctx, url, SplitLanguages(request.GetString("languages", "")), req)
	if err != nil {
		s.logger.Error("deep_read_youtube failed", slog.Any("err", err))
		return mcp.NewToolResultErrorFromErr("deep reading failed", err), nil
	}
	return jsonToolResult(vr.Reading)
}

// handleDrillDown implements the drill_down_youtube tool
func (s *MCPServer) handleDrillDown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required and must be a string"), nil
	}
	index, err := request.RequireInt("main_line_index")
	if err != nil {
		return mcp.NewToolResultError("main_line_index parameter is required and must be a number"), nil
	}

	req := DrillDownRequest{
		MainLineIndex: index,
		WordLimit:     request.GetInt("word_limit", DefaultWordLimit),
		Lang:          request.GetString("lang", s.app.config.Lang),
	}
	s.logger.Info("drill_down_youtube", slog.String("url", url), slog.Int("main_line", index))

	drill, err := s.app.DrillDownVideo(ctx, url, SplitLanguages(request.GetString("languages", "")), req)
	if err != nil {
		s.logger.Error("drill_down_youtube failed", slog.Any("err", err))
		return mcp.NewToolResultErrorFromErr("drill-down failed", err), nil
	}
	return jsonToolResult(drill)
}

func jsonToolResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
	}, nil
}

// Start starts the MCP server using the specified transport
func (s *MCPServer) Start(ctx context.Context, transport string, port int) error {
	if transport == "http" {
		httpServer := server.NewStreamableHTTPServer(s.mcpServer)
		addr := fmt.Sprintf(":%d", port)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Info("starting MCP server", slog.String("transport", "http"), slog.String("addr", addr))
		return httpServer.Start(addr)
	}

	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	return server.ServeStdio(s.mcpServer)
}

// GetServer returns the underlying MCP server for advanced configuration
func (s *MCPServer) GetServer() *server.MCPServer {
	return s.mcpServer
}
