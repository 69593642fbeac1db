// Package caption turns a single frame image into a one-sentence description
// using a vision model.
package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Captioner describes one image.
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
	Name() string
	Close() error
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	DefaultPrompt = "Describe this image in one sentence."
)

// Config selects and configures a captioning backend
type Config struct {
	Provider string
	Model    string
	Prompt   string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider: ProviderOllama,
		Model:    "moondream",
		Prompt:   DefaultPrompt,
		Timeout:  2 * time.Minute,
	}
}

// New creates the captioner named by cfg.Provider
func New(logger zerolog.Logger, cfg Config) (Captioner, error) {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllama(logger, cfg)
	case ProviderOpenAI:
		return NewOpenAI(logger, cfg)
	default:
		return nil, fmt.Errorf("unknown caption provider %q", cfg.Provider)
	}
}

func readImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", filepath.Base(path))
	}
	return data, nil
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// normalizeCaption accepts plain text or a {"caption": "..."} document.
func normalizeCaption(reply string) (string, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "{") {
		var doc struct {
			Caption *string `json:"caption"`
		}
		if err := json.Unmarshal([]byte(text), &doc); err == nil && doc.Caption != nil {
			text = strings.TrimSpace(*doc.Caption)
		}
	}
	text = strings.Trim(text, "\"")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("model returned an empty caption")
	}
	return text, nil
}
