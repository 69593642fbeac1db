package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration
type Config struct {
	// Core settings
	WorkDir string `yaml:"work_dir" env:"SCENEFINDER_WORK_DIR"`

	Video     VideoConfig     `yaml:"video"`
	Scenes    SceneConfig     `yaml:"scenes"`
	Index     IndexConfig     `yaml:"index"`
	Captioner CaptionerConfig `yaml:"captioner"`
	Search    SearchConfig    `yaml:"search"`
	Collage   CollageConfig   `yaml:"collage"`
	Remote    RemoteConfig    `yaml:"remote"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Acquire   AcquireConfig   `yaml:"acquire"`
}

type VideoConfig struct {
	Path   string `yaml:"path" env:"SCENEFINDER_VIDEO_PATH"`
	Search string `yaml:"search" env:"SCENEFINDER_VIDEO_SEARCH"`
}

type SceneConfig struct {
	Dir             string  `yaml:"dir" env:"SCENEFINDER_SCENES_DIR"`
	Method          string  `yaml:"method" env:"SCENEFINDER_SCENES_METHOD"`
	Threshold       float64 `yaml:"threshold" env:"SCENEFINDER_SCENES_THRESHOLD"`
	MinSceneLen     int     `yaml:"min_scene_len"`
	DownscaleWidth  int     `yaml:"downscale_width"`
	FFmpegThreshold float64 `yaml:"ffmpeg_threshold"`
}

type IndexConfig struct {
	Path string `yaml:"path" env:"SCENEFINDER_INDEX_PATH"`
}

type CaptionerConfig struct {
	Provider string        `yaml:"provider" env:"SCENEFINDER_CAPTIONER_PROVIDER"`
	Model    string        `yaml:"model" env:"SCENEFINDER_CAPTIONER_MODEL"`
	Prompt   string        `yaml:"prompt"`
	BaseURL  string        `yaml:"base_url" env:"SCENEFINDER_CAPTIONER_BASE_URL"`
	APIKey   string        `yaml:"api_key,omitempty" env:"OPENAI_API_KEY"`
	Workers  int           `yaml:"workers" env:"SCENEFINDER_CAPTIONER_WORKERS"`
	Timeout  time.Duration `yaml:"timeout"`
}

type SearchConfig struct {
	Threshold float64 `yaml:"threshold" env:"SCENEFINDER_SEARCH_THRESHOLD"`
}

type CollageConfig struct {
	Path        string `yaml:"path" env:"SCENEFINDER_COLLAGE_PATH"`
	Columns     int    `yaml:"columns"`
	ThumbWidth  int    `yaml:"thumb_width"`
	ThumbHeight int    `yaml:"thumb_height"`
	Show        bool   `yaml:"show" env:"SCENEFINDER_COLLAGE_SHOW"`
}

type RemoteConfig struct {
	Model        string        `yaml:"model" env:"SCENEFINDER_REMOTE_MODEL"`
	APIKey       string        `yaml:"api_key,omitempty" env:"GEMINI_API_KEY"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	FramesDir    string        `yaml:"frames_dir"`
}

type FFmpegConfig struct {
	Threads int `yaml:"threads"`
}

type AcquireConfig struct {
	YtDlpPath string        `yaml:"ytdlp_path" env:"SCENEFINDER_YTDLP_PATH"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Load reads configuration from file, applies environment overrides and
// validates the result. An empty path searches the default locations.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case os.IsNotExist(err) && !explicit:
		default:
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file without secrets
func (c *Config) Save(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// YAML renders the configuration with secrets removed.
func (c *Config) YAML() ([]byte, error) {
	redacted := *c
	redacted.Captioner.APIKey = ""
	redacted.Remote.APIKey = ""
	return yaml.Marshal(&redacted)
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	var errs []error

	switch c.Scenes.Method {
	case "content", "ffmpeg":
	default:
		errs = append(errs, fmt.Errorf("scenes.method must be content or ffmpeg, got %q", c.Scenes.Method))
	}
	if c.Scenes.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("scenes.threshold must be positive"))
	}
	if c.Scenes.MinSceneLen < 1 {
		errs = append(errs, fmt.Errorf("scenes.min_scene_len must be at least 1"))
	}
	if c.Scenes.FFmpegThreshold <= 0 || c.Scenes.FFmpegThreshold >= 1 {
		errs = append(errs, fmt.Errorf("scenes.ffmpeg_threshold must be within (0,1), got %g", c.Scenes.FFmpegThreshold))
	}
	if c.Scenes.DownscaleWidth < 0 {
		errs = append(errs, fmt.Errorf("scenes.downscale_width cannot be negative"))
	}

	switch c.Captioner.Provider {
	case "ollama", "openai":
	default:
		errs = append(errs, fmt.Errorf("captioner.provider must be ollama or openai, got %q", c.Captioner.Provider))
	}
	if c.Captioner.Workers < 1 {
		errs = append(errs, fmt.Errorf("captioner.workers must be at least 1"))
	}

	if c.Search.Threshold < 0 || c.Search.Threshold > 100 {
		errs = append(errs, fmt.Errorf("search.threshold must be within [0,100]"))
	}

	if c.Collage.Columns < 1 {
		errs = append(errs, fmt.Errorf("collage.columns must be at least 1"))
	}
	if c.Collage.ThumbWidth <= 0 {
		errs = append(errs, fmt.Errorf("collage.thumb_width must be positive"))
	}
	if c.Collage.ThumbHeight < 0 {
		errs = append(errs, fmt.Errorf("collage.thumb_height cannot be negative"))
	}

	if c.Remote.Timeout < 0 || c.Captioner.Timeout < 0 || c.Acquire.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeouts cannot be negative"))
	}

	for name, p := range map[string]string{
		"video.path":        c.Video.Path,
		"scenes.dir":        c.Scenes.Dir,
		"index.path":        c.Index.Path,
		"collage.path":      c.Collage.Path,
		"remote.frames_dir": c.Remote.FramesDir,
	} {
		if p == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Resolve returns p relative to the work directory unless it is absolute.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.WorkDir == "" {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		WorkDir: ".",
		Video: VideoConfig{
			Path: "video.mp4",
		},
		Scenes: SceneConfig{
			Dir:             "scenes",
			Method:          "content",
			Threshold:       27.0,
			MinSceneLen:     15,
			DownscaleWidth:  256,
			FFmpegThreshold: 0.4,
		},
		Index: IndexConfig{
			Path: "scene_captions.json",
		},
		Captioner: CaptionerConfig{
			Provider: "ollama",
			Model:    "moondream",
			Prompt:   "Describe this image in one sentence.",
			Workers:  4,
			Timeout:  2 * time.Minute,
		},
		Search: SearchConfig{
			Threshold: 70,
		},
		Collage: CollageConfig{
			Path:        "collage.png",
			Columns:     5,
			ThumbWidth:  200,
			ThumbHeight: 112,
		},
		Remote: RemoteConfig{
			Model:        "gemini-2.0-flash",
			Timeout:      10 * time.Minute,
			PollInterval: 10 * time.Second,
			FramesDir:    "frames",
		},
		Acquire: AcquireConfig{
			Timeout: 15 * time.Minute,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./scenefinder.yaml",
		"./config.yaml",
		filepath.Join(os.Getenv("HOME"), ".scenefinder", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
