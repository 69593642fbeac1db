package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/kikiluvv/scenefinder/internal/config"
	"github.com/kikiluvv/scenefinder/internal/index"
	"github.com/kikiluvv/scenefinder/internal/remote"
	"github.com/kikiluvv/scenefinder/internal/scene"
	"github.com/kikiluvv/scenefinder/internal/search"
	"github.com/kikiluvv/scenefinder/internal/video"
	"github.com/rs/zerolog"
)

// CaptionSearch answers queries from the persisted caption index.
type CaptionSearch struct {
	logger    zerolog.Logger
	deps      Deps
	videoPath string
	search    string
	sceneDir  string
	indexPath string
	threshold float64
	workers   int
	sceneCfg  scene.Config

	idx index.Index
}

// NewCaptionSearch creates the caption search source from cfg
func NewCaptionSearch(logger zerolog.Logger, cfg *config.Config, deps Deps) *CaptionSearch {
	return &CaptionSearch{
		logger:    logger.With().Str("component", "caption-search").Logger(),
		deps:      deps,
		videoPath: cfg.Resolve(cfg.Video.Path),
		search:    cfg.Video.Search,
		sceneDir:  cfg.Resolve(cfg.Scenes.Dir),
		indexPath: cfg.Resolve(cfg.Index.Path),
		threshold: cfg.Search.Threshold,
		workers:   cfg.Captioner.Workers,
		sceneCfg: scene.Config{
			Method:          cfg.Scenes.Method,
			Threshold:       cfg.Scenes.Threshold,
			MinSceneLen:     cfg.Scenes.MinSceneLen,
			DownscaleWidth:  cfg.Scenes.DownscaleWidth,
			FFmpegThreshold: cfg.Scenes.FFmpegThreshold,
		},
	}
}

func (c *CaptionSearch) Name() string { return "caption search" }

// Prepare loads the index, building it first when the file is absent.
func (c *CaptionSearch) Prepare(ctx context.Context) error {
	idx, err := c.EnsureIndex(ctx)
	if err != nil {
		return err
	}
	c.idx = idx
	return nil
}

// EnsureIndex builds and saves the index when it is missing, then loads and
// verifies it. An existing index is never rebuilt or merged.
func (c *CaptionSearch) EnsureIndex(ctx context.Context) (index.Index, error) {
	if index.Exists(c.indexPath) {
		c.logger.Info().Str("index", c.indexPath).Msg("using existing caption index")
	} else if err := c.build(ctx); err != nil {
		return nil, err
	}

	idx, err := index.Load(c.indexPath)
	if err != nil {
		return nil, err
	}
	if err := index.Verify(idx, c.sceneDir); err != nil {
		return nil, err
	}

	c.logger.Info().Int("scenes", len(idx)).Msg("caption index loaded")
	return idx, nil
}

func (c *CaptionSearch) build(ctx context.Context) error {
	frames, _, err := scene.ScanDir(c.sceneDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read scene directory: %w", err)
	}

	if len(frames) > 0 {
		c.logger.Info().
			Int("frames", len(frames)).
			Str("dir", c.sceneDir).
			Msg("reusing existing scene frames")
	} else {
		if err := acquireVideo(ctx, c.deps, c.videoPath, c.search); err != nil {
			return err
		}
		segmenter := scene.NewSegmenter(c.logger, c.deps.Decoder, c.sceneCfg)
		if _, err := segmenter.Segment(ctx, c.videoPath, c.sceneDir); err != nil {
			return fmt.Errorf("scene segmentation failed: %w", err)
		}
	}

	captioner, err := c.deps.NewCaptioner()
	if err != nil {
		return fmt.Errorf("failed to create captioner: %w", err)
	}
	defer captioner.Close()

	idx, stats, err := index.NewBuilder(c.logger, captioner, c.workers).Build(ctx, c.sceneDir)
	if err != nil {
		return fmt.Errorf("caption build failed: %w", err)
	}
	if len(idx) == 0 {
		return scene.ErrNoScenes
	}
	if stats.Failures > 0 {
		c.logger.Warn().
			Int("failures", stats.Failures).
			Int("scenes", stats.Scenes).
			Msg("some scenes have empty captions")
	}

	if err := index.Save(c.indexPath, idx); err != nil {
		return err
	}
	c.logger.Info().Str("index", c.indexPath).Int("scenes", len(idx)).Msg("caption index saved")
	return nil
}

func (c *CaptionSearch) Vocabulary() []string {
	return search.Vocabulary(c.idx)
}

// Find ranks indexed scenes by caption similarity to query.
func (c *CaptionSearch) Find(ctx context.Context, query string) ([]Item, error) {
	if c.idx == nil {
		return nil, fmt.Errorf("caption index not prepared")
	}

	hits := search.Search(query, c.idx, c.threshold)
	items := make([]Item, len(hits))
	for i, h := range hits {
		items[i] = Item{
			Rank:    i + 1,
			Label:   h.SceneID.Key(),
			Caption: h.Caption,
			Score:   h.Score,
			Path:    index.ScenePath(c.sceneDir, h.SceneID),
		}
	}

	c.logger.Debug().Interface("scenes", search.IDs(hits)).Msg("ranked scenes")
	c.logger.Info().Str("query", query).Int("hits", len(items)).Msg("search complete")
	return items, nil
}

// acquireVideo makes sure path exists and ffprobe can read it.
func acquireVideo(ctx context.Context, deps Deps, path, search string) error {
	if err := deps.Acquirer.Ensure(ctx, path, search); err != nil {
		return err
	}
	if _, err := deps.Decoder.ProbeVideo(ctx, path); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s cannot be decoded: %v", video.ErrUnavailable, path, err)
	}
	return nil
}

// RemoteQuery asks a video model for matching timestamps.
type RemoteQuery struct {
	logger    zerolog.Logger
	deps      Deps
	videoPath string
	search    string
	resolver  *remote.Resolver
}

// NewRemoteQuery creates the remote query source from cfg
func NewRemoteQuery(logger zerolog.Logger, cfg *config.Config, deps Deps) *RemoteQuery {
	return &RemoteQuery{
		logger:    logger.With().Str("component", "remote-query").Logger(),
		deps:      deps,
		videoPath: cfg.Resolve(cfg.Video.Path),
		search:    cfg.Video.Search,
		resolver:  remote.NewResolver(logger, deps.Decoder, cfg.Resolve(cfg.Remote.FramesDir)),
	}
}

func (r *RemoteQuery) Name() string { return "video model" }

func (r *RemoteQuery) Prepare(ctx context.Context) error {
	return acquireVideo(ctx, r.deps, r.videoPath, r.search)
}

func (r *RemoteQuery) Vocabulary() []string { return nil }

// Find sends the prompt with the whole video and extracts a frame for each
// returned timestamp, in the order the model gave them.
func (r *RemoteQuery) Find(ctx context.Context, query string) ([]Item, error) {
	querier, err := r.deps.NewQuerier(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", remote.ErrQueryFailed, err)
	}
	defer querier.Close()

	resp, err := querier.Query(ctx, r.videoPath, query)
	if err != nil {
		return nil, err
	}
	if resp.Invalid > 0 {
		r.logger.Warn().Int("entries", resp.Invalid).Msg("skipped reply entries without a start time")
	}
	r.logger.Info().Strs("timestamps", resp.Timestamps).Msg("model returned timestamps")

	frames, err := r.resolver.Resolve(ctx, r.videoPath, resp.Timestamps)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(frames))
	for i, f := range frames {
		items[i] = Item{
			Rank:  i + 1,
			Label: f.Timestamp + " (frame " + strconv.Itoa(f.Index) + ")",
			Path:  f.Path,
		}
	}
	return items, nil
}
