package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MAjunjie0415/deepread-cc/internal/captions"
)

const maxRequestBody = 4 << 20

// Server exposes the app over a JSON HTTP API
type Server struct {
	app    *App
	logger *slog.Logger
}

// NewServer creates the HTTP API for app
func NewServer(app *App) *Server {
	return &Server{app: app, logger: app.logger}
}

// Handler returns the routed API with CORS and request logging
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/pull", s.handlePull)
	mux.HandleFunc("GET /api/proxy", s.handleProxy)
	mux.HandleFunc("POST /api/deep_reading", s.handleDeepReading)
	mux.HandleFunc("POST /api/drill_down", s.handleDrillDown)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logRequests(withCORS(mux))
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type pullRequest struct {
	URL  string `json:"url"`
	Lang string `json:"lang"`
}

// pullResponse adds the manual upload hint when a video has no captions
type pullResponse struct {
	captions.Result
	Suggestion string `json:"suggestion,omitempty"`
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	transcript, err := s.app.FetchTranscript(r.Context(), req.URL, SplitLanguages(req.Lang))
	resp := pullResponse{Result: captions.NewResult(transcript, err)}
	if resp.ErrorKind == captions.KindNoCaptions {
		resp.Suggestion = "manual_upload"
	}
	writeJSON(w, pullStatus(err), resp)
}

// pullStatus maps a fetch error to its HTTP status
func pullStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch captions.ErrorKindOf(err) {
	case captions.KindInvalidInput:
		return http.StatusBadRequest
	case captions.KindNoCaptions:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("v")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "v is required")
		return
	}

	transcript, err := s.app.FetchTranscript(r.Context(), videoID, SplitLanguages(r.URL.Query().Get("lang")))
	if err != nil {
		result := captions.NewResult(nil, err)
		writeJSON(w, pullStatus(err), result)
		return
	}
	writeJSON(w, http.StatusOK, transcript.JSON3())
}

func (s *Server) handleDeepReading(w http.ResponseWriter, r *http.Request) {
	var req DeepReadingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reading, err := s.app.DeepRead(r.Context(), req, nil)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}

func (s *Server) handleDrillDown(w http.ResponseWriter, r *http.Request) {
	var req DrillDownRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	drill, err := s.app.DrillDown(r.Context(), req, nil)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drill)
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyTranscript), errors.Is(err, ErrInvalidMainLine):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMissingAPIKey):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("analysis failed", slog.Any("err", err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is empty")
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)),
		)
	})
}
