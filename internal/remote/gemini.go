package remote

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// Gemini queries a Gemini model with an uploaded copy of the video.
type Gemini struct {
	logger zerolog.Logger
	client *genai.Client
	config Config
}

// NewGemini creates a client authenticated with cfg.APIKey
func NewGemini(ctx context.Context, logger zerolog.Logger, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		logger: logger.With().Str("component", "remote").Str("model", cfg.Model).Logger(),
		client: client,
		config: cfg,
	}, nil
}

func (g *Gemini) Name() string {
	return "gemini/" + g.config.Model
}

// Query uploads the video, waits for it to become active, asks for matching
// timestamps and deletes the upload. The whole exchange runs under the
// configured timeout.
func (g *Gemini) Query(ctx context.Context, videoPath, prompt string) (*Response, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	g.logger.Info().Str("video", videoPath).Msg("uploading video")
	file, err := g.client.UploadFileFromPath(ctx, videoPath, &genai.UploadFileOptions{
		MIMEType: videoMIMEType(videoPath),
	})
	if err != nil {
		return nil, g.failure("upload failed", err)
	}
	defer func() {
		// the request context may already be gone
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := g.client.DeleteFile(cleanupCtx, file.Name); err != nil {
			g.logger.Warn().Err(err).Str("file", file.Name).Msg("failed to delete uploaded video")
		}
	}()

	file, err = g.waitActive(ctx, file)
	if err != nil {
		return nil, err
	}

	model := g.client.GenerativeModel(g.config.Model)
	model.ResponseMIMEType = "application/json"

	g.logger.Info().Str("prompt", prompt).Msg("querying video model")
	resp, err := model.GenerateContent(ctx,
		genai.FileData{URI: file.URI, MIMEType: file.MIMEType},
		genai.Text(BuildPrompt(prompt)),
	)
	if err != nil {
		return nil, g.failure("generate failed", err)
	}

	var reply strings.Builder
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				reply.WriteString(string(text))
			}
		}
	}

	g.logger.Debug().Str("reply", reply.String()).Msg("model reply")
	return ParseResponse(reply.String())
}

func (g *Gemini) waitActive(ctx context.Context, file *genai.File) (*genai.File, error) {
	ticker := time.NewTicker(g.config.PollInterval)
	defer ticker.Stop()

	for file.State == genai.FileStateProcessing {
		g.logger.Debug().Str("file", file.Name).Msg("waiting for video processing")
		select {
		case <-ctx.Done():
			return nil, g.failure("video processing", ctx.Err())
		case <-ticker.C:
		}

		var err error
		file, err = g.client.GetFile(ctx, file.Name)
		if err != nil {
			return nil, g.failure("file status", err)
		}
	}

	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("%w: video processing failed on the server", ErrQueryFailed)
	}
	return file, nil
}

func (g *Gemini) failure(step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: timed out after %s", ErrQueryFailed, step, g.config.Timeout)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrQueryFailed, step, err)
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func videoMIMEType(path string) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); strings.HasPrefix(t, "video/") {
		return t
	}
	return "video/mp4"
}
