// Package search ranks indexed scenes by fuzzy similarity to a query.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kikiluvv/scenefinder/internal/index"
	"github.com/kikiluvv/scenefinder/internal/scene"
)

// DefaultThreshold is the score a caption must exceed to match.
const DefaultThreshold = 70.0

// Hit is one matching scene.
type Hit struct {
	SceneID scene.ID
	Caption string
	Score   float64
}

// Search returns every scene whose caption scores strictly above threshold
// against query, best first and by scene id on ties. Matching ignores case.
func Search(query string, idx index.Index, threshold float64) []Hit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var hits []Hit
	for id, caption := range idx {
		score := PartialRatio(q, strings.ToLower(caption))
		if score > threshold {
			hits = append(hits, Hit{SceneID: id, Caption: caption, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].SceneID < hits[j].SceneID
	})
	return hits
}

// IDs returns the scene ids of hits in rank order.
func IDs(hits []Hit) []scene.ID {
	ids := make([]scene.ID, len(hits))
	for i, h := range hits {
		ids[i] = h.SceneID
	}
	return ids
}

// Vocabulary returns the sorted set of lowercased words used in any caption.
func Vocabulary(idx index.Index) []string {
	seen := make(map[string]struct{})
	for _, caption := range idx {
		for _, word := range strings.FieldsFunc(strings.ToLower(caption), isSeparator) {
			seen[word] = struct{}{}
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\'' && r != '-'
}
