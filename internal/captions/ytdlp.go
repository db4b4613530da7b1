package captions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lrstanley/go-ytdlp"
)

// Installer makes sure the yt-dlp binary is present. Only a successful install
// is remembered; a failed or canceled one is tried again on the next call.
type Installer struct {
	mu        sync.Mutex
	installed bool
	install   func(ctx context.Context) error
}

// NewInstaller returns an Installer backed by go-ytdlp's managed download.
func NewInstaller() *Installer {
	return &Installer{install: func(ctx context.Context) error {
		_, err := ytdlp.Install(ctx, nil)
		return err
	}}
}

// Ensure installs yt-dlp unless an earlier call already did. The download runs
// detached from ctx's cancellation; a ctx that is already done returns at once.
func (i *Installer) Ensure(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.installed {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := i.install(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("installing yt-dlp: %w", err)
	}
	i.installed = true
	return nil
}

// YtDlp downloads subtitles with the yt-dlp binary, installing it on first use.
type YtDlp struct {
	tempDir   string
	installer *Installer
}

// NewYtDlp creates the yt-dlp strategy. Subtitle files are written below tempDir.
func NewYtDlp(tempDir string) *YtDlp {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &YtDlp{tempDir: tempDir, installer: NewInstaller()}
}

func (y *YtDlp) Name() string { return StrategyYtDlp }

func (y *YtDlp) Fetch(ctx context.Context, req Request) (Track, error) {
	if err := y.installer.Ensure(ctx); err != nil {
		return Track{}, err
	}

	if err := os.MkdirAll(y.tempDir, 0755); err != nil {
		return Track{}, fmt.Errorf("creating subtitle directory: %w", err)
	}
	dir, err := os.MkdirTemp(y.tempDir, "subs-"+req.VideoID+"-")
	if err != nil {
		return Track{}, fmt.Errorf("creating subtitle directory: %w", err)
	}
	defer os.RemoveAll(dir)

	langs := req.Language
	if langs == "" {
		langs = "en.*"
	}

	dl := ytdlp.New().
		WriteSubs().
		WriteAutoSubs().
		SubLangs(langs).
		SubFormat("json3").
		SkipDownload().
		Output(filepath.Join(dir, "%(id)s"))

	result, err := dl.Run(ctx, "https://www.youtube.com/watch?v="+req.VideoID)
	if err != nil {
		if result != nil && result.Stderr != "" {
			return Track{}, fmt.Errorf("running yt-dlp: %w: %s", err, strings.TrimSpace(result.Stderr))
		}
		return Track{}, fmt.Errorf("running yt-dlp: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, req.VideoID+"*.json3"))
	if err != nil || len(files) == 0 {
		return Track{}, notFound("yt-dlp wrote no subtitles for %q", langs)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		return Track{}, fmt.Errorf("reading subtitle file: %w", err)
	}
	segments, err := parseJSON3(data)
	if err != nil {
		return Track{}, err
	}
	return Track{Language: subtitleLanguage(files[0], req.Language), Segments: segments}, nil
}

// subtitleLanguage recovers the language code from "<id>.<lang>.json3".
func subtitleLanguage(path, fallback string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".json3")
	if i := strings.IndexByte(base, '.'); i >= 0 && i < len(base)-1 {
		return base[i+1:]
	}
	return fallback
}
