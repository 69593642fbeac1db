// Package index persists scene captions as a single JSON document keyed by
// scene_<n>.
package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kikiluvv/scenefinder/internal/scene"
	"github.com/kikiluvv/scenefinder/pkg/util"
)

// ErrCorrupt is returned when an index file cannot be trusted.
var ErrCorrupt = errors.New("caption index is corrupt")

// Index maps scene ids to captions. Empty captions are valid entries.
type Index map[scene.ID]string

// Load reads the index at path. A missing file yields an empty index.
func Load(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Index{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	idx := make(Index, len(raw))
	for key, caption := range raw {
		id, err := scene.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
		}
		idx[id] = caption
	}
	return idx, nil
}

// Save writes idx to path atomically.
func Save(path string, idx Index) error {
	data, err := idx.MarshalJSON()
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save index: %w", err)
	}
	return nil
}

// Exists reports whether an index file is present at path.
func Exists(path string) bool {
	return util.FileExists(path)
}

// MarshalJSON writes keys in ascending scene order with four-space
// indentation and without HTML escaping.
func (idx Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	ids := scene.SortedIDs(idx)
	if len(ids) == 0 {
		return []byte("{}\n"), nil
	}

	buf.WriteString("{\n")
	for i, id := range ids {
		buf.WriteString("    ")
		if err := enc.Encode(id.Key()); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		buf.WriteString(": ")
		if err := enc.Encode(idx[id]); err != nil {
			return nil, err
		}
		trimNewline(&buf)
		if i < len(ids)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}

// Verify checks that every indexed scene has its frame in sceneDir.
func Verify(idx Index, sceneDir string) error {
	if len(idx) == 0 {
		return fmt.Errorf("%w: index holds no scenes", ErrCorrupt)
	}
	for _, id := range scene.SortedIDs(idx) {
		path := scene.FramePath(sceneDir, id)
		if !util.FileExists(path) {
			return fmt.Errorf("%w: %s has no frame at %s", ErrCorrupt, id.Key(), path)
		}
	}
	return nil
}

// ScenePath resolves the frame path for id inside sceneDir.
func ScenePath(sceneDir string, id scene.ID) string {
	return filepath.Clean(scene.FramePath(sceneDir, id))
}
