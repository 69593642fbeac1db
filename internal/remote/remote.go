// Package remote asks a video-understanding model for the moments that match
// a prompt and turns the returned timestamps into frames.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrQueryFailed covers timeouts, failed uploads and unusable model replies.
var ErrQueryFailed = errors.New("remote video query failed")

// VideoQuerier returns the timestamps a model considers relevant to prompt.
type VideoQuerier interface {
	Query(ctx context.Context, videoPath, prompt string) (*Response, error)
	Name() string
	Close() error
}

// Config configures the remote model
type Config struct {
	APIKey       string
	Model        string
	Timeout      time.Duration
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Model:        "gemini-2.0-flash",
		Timeout:      10 * time.Minute,
		PollInterval: 10 * time.Second,
	}
}

// Response is a parsed model reply. Invalid counts entries without a
// usable start value.
type Response struct {
	Timestamps []string
	Invalid    int
}

// BuildPrompt wraps a user query with the reply format the parser expects.
func BuildPrompt(query string) string {
	return fmt.Sprintf(`Find scenes in the video related to: %q.
Return the relevant scenes in the following JSON format:
{
    "timestamps": [
        {"start": "HH:MM:SS"}
    ]
}
Do not include code blocks or markdown formatting.`, query)
}

// ParseResponse extracts the start values from a model reply. Markdown code
// fences around the JSON are tolerated.
func ParseResponse(reply string) (*Response, error) {
	text := stripFences(reply)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrQueryFailed)
	}

	var doc struct {
		Timestamps []map[string]any `json:"timestamps"`
	}
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed reply: %v", ErrQueryFailed, err)
	}
	if doc.Timestamps == nil {
		return nil, fmt.Errorf("%w: reply has no timestamps field", ErrQueryFailed)
	}

	resp := &Response{}
	for _, entry := range doc.Timestamps {
		start, ok := entry["start"].(string)
		if !ok || strings.TrimSpace(start) == "" {
			resp.Invalid++
			continue
		}
		resp.Timestamps = append(resp.Timestamps, strings.TrimSpace(start))
	}
	return resp, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
