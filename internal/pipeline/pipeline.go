package pipeline

import (
	"context"
	"fmt"

	"github.com/kikiluvv/scenefinder/internal/caption"
	"github.com/kikiluvv/scenefinder/internal/collage"
	"github.com/kikiluvv/scenefinder/internal/config"
	"github.com/kikiluvv/scenefinder/internal/ffmpeg"
	"github.com/kikiluvv/scenefinder/internal/prompt"
	"github.com/kikiluvv/scenefinder/internal/remote"
	"github.com/kikiluvv/scenefinder/internal/video"
	"github.com/rs/zerolog"
)

// ViewerFunc displays a rendered collage with its listing.
type ViewerFunc func(collagePath string, lines []string) error

// Pipeline runs one query against a frame source and renders the collage.
type Pipeline struct {
	logger      zerolog.Logger
	renderer    *collage.Renderer
	prompter    prompt.Prompter
	collagePath string
	show        bool
	viewer      ViewerFunc
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config, prompter prompt.Prompter, viewer ViewerFunc) *Pipeline {
	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		renderer: collage.NewRenderer(logger, collage.Config{
			Columns:     cfg.Collage.Columns,
			ThumbWidth:  cfg.Collage.ThumbWidth,
			ThumbHeight: cfg.Collage.ThumbHeight,
		}),
		prompter:    prompter,
		collagePath: cfg.Resolve(cfg.Collage.Path),
		show:        cfg.Collage.Show,
		viewer:      viewer,
	}
}

// DefaultDeps wires the ffmpeg executor, yt-dlp acquisition and the
// configured model clients.
func DefaultDeps(logger zerolog.Logger, cfg *config.Config) (Deps, error) {
	exec, err := ffmpeg.New(logger, cfg.FFmpeg.Threads)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return Deps{
		Decoder: exec,
		Acquirer: video.NewAcquirer(logger, video.Config{
			YtDlpPath: cfg.Acquire.YtDlpPath,
			Timeout:   cfg.Acquire.Timeout,
		}),
		NewCaptioner: func() (caption.Captioner, error) {
			return caption.New(logger, caption.Config{
				Provider: cfg.Captioner.Provider,
				Model:    cfg.Captioner.Model,
				Prompt:   cfg.Captioner.Prompt,
				BaseURL:  cfg.Captioner.BaseURL,
				APIKey:   cfg.Captioner.APIKey,
				Timeout:  cfg.Captioner.Timeout,
			})
		},
		NewQuerier: func(ctx context.Context) (remote.VideoQuerier, error) {
			return remote.NewGemini(ctx, logger, remote.Config{
				APIKey:       cfg.Remote.APIKey,
				Model:        cfg.Remote.Model,
				Timeout:      cfg.Remote.Timeout,
				PollInterval: cfg.Remote.PollInterval,
			})
		},
	}, nil
}

// SourceFor returns the frame source for a mode.
func SourceFor(mode prompt.Mode, logger zerolog.Logger, cfg *config.Config, deps Deps) (FrameSource, error) {
	switch mode {
	case prompt.ModeCaptionSearch:
		return NewCaptionSearch(logger, cfg, deps), nil
	case prompt.ModeRemoteQuery:
		return NewRemoteQuery(logger, cfg, deps), nil
	default:
		return nil, fmt.Errorf("unknown mode %v", mode)
	}
}

// Run prepares src, asks for a query when none is given, finds frames and
// renders them into the collage.
func (p *Pipeline) Run(ctx context.Context, src FrameSource, query string) (*Outcome, error) {
	p.logger.Info().Str("source", src.Name()).Msg("starting run")

	if err := src.Prepare(ctx); err != nil {
		return nil, err
	}

	if query == "" {
		var err error
		query, err = p.prompter.Query(ctx, "Search for:", src.Vocabulary())
		if err != nil {
			return nil, err
		}
	}

	items, err := src.Find(ctx, query)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Source: src.Name(),
		Query:  query,
		Items:  items,
	}
	if len(items) == 0 {
		outcome.NoMatches = true
		p.logger.Info().Str("query", query).Msg("no matching frames")
		return outcome, nil
	}

	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = item.Path
	}

	res, err := p.renderer.Render(paths, p.collagePath)
	if err != nil {
		return nil, err
	}
	outcome.Collage = res

	if res.Rendered && p.show && p.viewer != nil {
		lines := make([]string, len(items))
		for i, item := range items {
			lines[i] = item.Line()
		}
		if err := p.viewer(res.Path, lines); err != nil {
			p.logger.Warn().Err(err).Msg("could not open collage viewer")
		}
	}

	return outcome, nil
}
