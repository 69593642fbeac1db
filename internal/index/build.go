package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/kikiluvv/scenefinder/internal/caption"
	"github.com/kikiluvv/scenefinder/internal/scene"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// BuildStats summarizes a build.
type BuildStats struct {
	Scenes   int
	Failures int
}

// Builder captions every scene frame in a directory.
type Builder struct {
	logger    zerolog.Logger
	captioner caption.Captioner
	workers   int
}

// NewBuilder creates a builder running up to workers captions at once.
func NewBuilder(logger zerolog.Logger, captioner caption.Captioner, workers int) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		logger:    logger.With().Str("component", "index-builder").Logger(),
		captioner: captioner,
		workers:   workers,
	}
}

// Build captions each scene_<n>.png in sceneDir. A frame that fails to
// caption gets an empty caption and is counted in the stats.
func (b *Builder) Build(ctx context.Context, sceneDir string) (Index, BuildStats, error) {
	frames, ignored, err := scene.ScanDir(sceneDir)
	if err != nil {
		return nil, BuildStats{}, fmt.Errorf("failed to scan scene directory: %w", err)
	}
	for _, name := range ignored {
		b.logger.Warn().Str("file", name).Msg("ignoring file without a scene ordinal")
	}

	b.logger.Info().
		Int("frames", len(frames)).
		Int("workers", b.workers).
		Str("model", b.captioner.Name()).
		Msg("captioning scenes")

	var (
		mu    sync.Mutex
		idx   = make(Index, len(frames))
		stats = BuildStats{Scenes: len(frames)}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, id := range scene.SortedIDs(frames) {
		id, path := id, frames[id]
		g.Go(func() error {
			text, err := b.captioner.Caption(gctx, path)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.logger.Warn().
					Err(err).
					Int("scene", int(id)).
					Str("frame", path).
					Msg("captioning failed, storing empty caption")
				text = ""
			} else {
				b.logger.Info().Int("scene", int(id)).Str("caption", text).Msg("captioned scene")
			}

			mu.Lock()
			idx[id] = text
			if err != nil {
				stats.Failures++
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	b.logger.Info().
		Int("scenes", stats.Scenes).
		Int("failures", stats.Failures).
		Msg("caption index built")

	return idx, stats, nil
}
