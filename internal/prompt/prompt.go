// Package prompt reads the run mode and the search query from the user.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrAborted is returned when the user cancels a prompt.
var ErrAborted = errors.New("prompt aborted")

// Mode selects how frames are found for a query.
type Mode int

const (
	ModeCaptionSearch Mode = 1
	ModeRemoteQuery   Mode = 2
)

func (m Mode) String() string {
	switch m {
	case ModeCaptionSearch:
		return "caption search"
	case ModeRemoteQuery:
		return "video model"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts the menu number typed by the user.
func ParseMode(s string) (Mode, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return ModeCaptionSearch, nil
	case "2":
		return ModeRemoteQuery, nil
	}
	return 0, fmt.Errorf("choose 1 or 2")
}

// Prompter asks the user for input.
type Prompter interface {
	SelectMode(ctx context.Context) (Mode, error)
	Query(ctx context.Context, label string, vocabulary []string) (string, error)
}

// Static answers prompts with fixed values, for non-interactive runs.
type Static struct {
	Mode  Mode
	Input string
}

func (s Static) SelectMode(ctx context.Context) (Mode, error) {
	if s.Mode == 0 {
		return 0, fmt.Errorf("no mode given")
	}
	return s.Mode, nil
}

func (s Static) Query(ctx context.Context, label string, vocabulary []string) (string, error) {
	if strings.TrimSpace(s.Input) == "" {
		return "", fmt.Errorf("no query given")
	}
	return strings.TrimSpace(s.Input), nil
}

// completions returns full-line candidates that finish the last word of
// input from vocabulary.
func completions(input string, vocabulary []string) []string {
	cut := strings.LastIndexAny(input, " \t") + 1
	head, word := input[:cut], strings.ToLower(input[cut:])
	if word == "" {
		return nil
	}

	var out []string
	for _, v := range vocabulary {
		if v != word && strings.HasPrefix(v, word) {
			out = append(out, head+v)
		}
	}
	sort.Strings(out)
	return out
}
