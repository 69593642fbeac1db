package remote

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/kikiluvv/scenefinder/internal/ffmpeg"
	"github.com/kikiluvv/scenefinder/pkg/util"
	"github.com/rs/zerolog"
)

// FrameExtractor is the subset of the ffmpeg executor needed to pull frames.
type FrameExtractor interface {
	ProbeVideo(ctx context.Context, path string) (*ffmpeg.VideoInfo, error)
	ExtractFrameIndex(ctx context.Context, input, output string, index int, fps float64) error
}

// Frame is a still pulled from the video for one returned timestamp.
type Frame struct {
	Timestamp string
	Index     int
	Path      string
}

// Resolver converts timestamps into frame images on disk.
type Resolver struct {
	logger    zerolog.Logger
	extractor FrameExtractor
	dir       string
}

// NewResolver writes extracted frames into dir
func NewResolver(logger zerolog.Logger, extractor FrameExtractor, dir string) *Resolver {
	return &Resolver{
		logger:    logger.With().Str("component", "frame-resolver").Logger(),
		extractor: extractor,
		dir:       dir,
	}
}

// Resolve extracts one frame per timestamp, in the given order. Malformed
// timestamps and unreadable frames are logged and skipped.
func (r *Resolver) Resolve(ctx context.Context, videoPath string, timestamps []string) ([]Frame, error) {
	if len(timestamps) == 0 {
		return nil, nil
	}

	info, err := r.extractor.ProbeVideo(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	if err := util.EnsureDir(r.dir); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	// drop frames left by an earlier query
	if stale, err := filepath.Glob(filepath.Join(r.dir, "frame_*.png")); err == nil {
		util.CleanupFiles(stale...)
	}

	var frames []Frame
	for i, ts := range timestamps {
		offset, err := util.ParseClock(ts)
		if err != nil {
			r.logger.Warn().Err(err).Str("timestamp", ts).Msg("skipping malformed timestamp")
			continue
		}

		index := util.FrameIndex(offset, info.FPS)
		path := filepath.Join(r.dir, fmt.Sprintf("frame_%d.png", i+1))
		if err := r.extractor.ExtractFrameIndex(ctx, videoPath, path, index, info.FPS); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn().Err(err).Str("timestamp", ts).Int("frame", index).Msg("failed to extract frame")
			continue
		}

		r.logger.Debug().Str("timestamp", ts).Int("frame", index).Str("path", path).Msg("extracted frame")
		frames = append(frames, Frame{Timestamp: ts, Index: index, Path: path})
	}

	return frames, nil
}
