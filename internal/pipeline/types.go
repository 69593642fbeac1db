package pipeline

import (
	"context"
	"fmt"

	"github.com/kikiluvv/scenefinder/internal/caption"
	"github.com/kikiluvv/scenefinder/internal/collage"
	"github.com/kikiluvv/scenefinder/internal/remote"
	"github.com/kikiluvv/scenefinder/internal/scene"
)

// FrameSource finds the ordered frames that answer a query.
type FrameSource interface {
	Name() string
	// Prepare makes the source ready to answer queries.
	Prepare(ctx context.Context) error
	// Vocabulary offers completion words; nil when the source has none.
	Vocabulary() []string
	Find(ctx context.Context, query string) ([]Item, error)
}

// Item is one ranked frame.
type Item struct {
	Rank    int
	Label   string
	Caption string
	Score   float64
	Path    string
}

// Line renders the item for terminal and viewer listings.
func (i Item) Line() string {
	if i.Caption != "" {
		return fmt.Sprintf("%d. %s (%.1f) %s", i.Rank, i.Label, i.Score, i.Caption)
	}
	return fmt.Sprintf("%d. %s", i.Rank, i.Label)
}

// Outcome is the result of one query run. NoMatches and an unrendered
// collage are valid results, not errors.
type Outcome struct {
	Source    string
	Query     string
	Items     []Item
	NoMatches bool
	Collage   collage.Result
}

// Acquirer produces a readable video at path.
type Acquirer interface {
	Ensure(ctx context.Context, path, search string) error
}

// Deps are the collaborators a run needs. Model clients are created lazily
// so a run that never calls a model never connects to one.
type Deps struct {
	Decoder      scene.Decoder
	Acquirer     Acquirer
	NewCaptioner func() (caption.Captioner, error)
	NewQuerier   func(ctx context.Context) (remote.VideoQuerier, error)
}
