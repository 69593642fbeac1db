package caption

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
	"github.com/rs/zerolog"
)

// Ollama captions images with a local vision model served by Ollama.
type Ollama struct {
	logger zerolog.Logger
	client *api.Client
	config Config
}

// NewOllama connects to cfg.BaseURL, or to OLLAMA_HOST when unset.
func NewOllama(logger zerolog.Logger, cfg Config) (*Ollama, error) {
	var client *api.Client
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama url %q: %w", cfg.BaseURL, err)
		}
		client = api.NewClient(base, &http.Client{Timeout: cfg.Timeout})
	} else {
		var err error
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Ollama{
		logger: logger.With().Str("component", "captioner").Str("provider", ProviderOllama).Logger(),
		client: client,
		config: cfg,
	}, nil
}

func (o *Ollama) Name() string {
	return ProviderOllama + "/" + o.config.Model
}

// Caption sends the image with the configured prompt and returns the reply.
func (o *Ollama) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	stream := false
	req := &api.GenerateRequest{
		Model:  o.config.Model,
		Prompt: o.config.Prompt,
		Images: []api.ImageData{data},
		Stream: &stream,
	}

	var reply string
	err = o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		reply += resp.Response
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate failed: %w", err)
	}

	o.logger.Debug().Str("image", imagePath).Str("reply", reply).Msg("caption received")
	return normalizeCaption(reply)
}

func (o *Ollama) Close() error {
	return nil
}
