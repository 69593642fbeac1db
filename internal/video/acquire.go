// Package video makes sure a readable source video exists before processing.
package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/kikiluvv/scenefinder/pkg/util"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned when no readable video can be produced.
var ErrUnavailable = errors.New("video unavailable")

// Config controls acquisition
type Config struct {
	YtDlpPath string
	Timeout   time.Duration
}

func DefaultConfig() Config {
	return Config{Timeout: 15 * time.Minute}
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Acquirer downloads the source video with yt-dlp when it is missing.
type Acquirer struct {
	logger zerolog.Logger
	config Config
	run    runFunc
}

// NewAcquirer creates an acquirer
func NewAcquirer(logger zerolog.Logger, cfg Config) *Acquirer {
	return &Acquirer{
		logger: logger.With().Str("component", "acquire").Logger(),
		config: cfg,
		run:    runCommand,
	}
}

// Ensure returns nil when path holds a video. Otherwise it downloads the
// best video stream for the search query into path.
func (a *Acquirer) Ensure(ctx context.Context, path, search string) error {
	if util.FileExists(path) {
		a.logger.Debug().Str("video", path).Msg("using existing video")
		return nil
	}
	if strings.TrimSpace(search) == "" {
		return fmt.Errorf("%w: %s does not exist and no search query is configured", ErrUnavailable, path)
	}

	ytdlp, err := resolveBinary(a.config.YtDlpPath, "yt-dlp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := util.EnsureDir(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	args := []string{
		"--no-playlist",
		"--no-progress",
		"-f", "bestvideo[ext=mp4]/bestvideo",
		"-o", abs,
		"ytsearch1:" + search,
	}

	a.logger.Info().Str("search", search).Str("output", abs).Msg("downloading video")
	start := time.Now()

	if out, err := a.run(ctx, ytdlp, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: download timed out after %s", ErrUnavailable, a.config.Timeout)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: yt-dlp failed: %v: %s", ErrUnavailable, err, lastLine(out))
	}

	if !util.FileExists(abs) {
		return fmt.Errorf("%w: yt-dlp finished but %s was not written", ErrUnavailable, abs)
	}

	a.logger.Info().Str("video", abs).Dur("took", time.Since(start)).Msg("video downloaded")
	return nil
}

// resolveBinary prefers an explicit path, then an assets directory next to
// the executable, then PATH.
func resolveBinary(configured, name string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("%s not found at %s", name, configured)
		}
		return configured, nil
	}

	if exe, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(exe), "assets", name)
		if runtime.GOOS == "windows" {
			bundled += ".exe"
		}
		if util.FileExists(bundled) {
			return bundled, nil
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
