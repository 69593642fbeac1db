package caption

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI captions images through any OpenAI-compatible chat endpoint.
type OpenAI struct {
	logger zerolog.Logger
	client *openai.Client
	config Config
}

// NewOpenAI creates a client for cfg.BaseURL (the public API when unset).
func NewOpenAI(logger zerolog.Logger, cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai captioner needs OPENAI_API_KEY or a base_url")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		logger: logger.With().Str("component", "captioner").Str("provider", ProviderOpenAI).Logger(),
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

func (o *OpenAI) Name() string {
	return ProviderOpenAI + "/" + o.config.Model
}

// Caption sends the image inline as a data URL.
func (o *OpenAI) Caption(ctx context.Context, imagePath string) (string, error) {
	data, err := readImage(imagePath)
	if err != nil {
		return "", err
	}

	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType(imagePath), base64.StdEncoding.EncodeToString(data))

	req := openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: o.config.Prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens: 120,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in caption response")
	}

	reply := resp.Choices[0].Message.Content
	o.logger.Debug().Str("image", imagePath).Str("reply", reply).Msg("caption received")
	return normalizeCaption(reply)
}

func (o *OpenAI) Close() error {
	return nil
}
