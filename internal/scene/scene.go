// Package scene splits a video into scenes and stores one representative
// frame per scene as scene_<n>.png.
package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ID is the 1-based ordinal of a scene in start-frame order.
type ID int

// Key is the identifier used in the caption index document.
func (id ID) Key() string {
	return fmt.Sprintf("scene_%d", int(id))
}

func (id ID) String() string {
	return id.Key()
}

// Scene is a contiguous run of frames represented by its first frame.
type Scene struct {
	ID         ID
	StartFrame int
	FramePath  string
}

const (
	filePrefix = "scene_"
	fileExt    = ".png"
)

// FileName returns the representative frame name for a scene.
func FileName(id ID) string {
	return id.Key() + fileExt
}

// FramePath returns where the representative frame for id lives in dir.
func FramePath(dir string, id ID) string {
	return filepath.Join(dir, FileName(id))
}

// ParseKey parses "scene_<n>" (optionally with the .png extension) into an ID.
func ParseKey(s string) (ID, error) {
	name := strings.TrimSuffix(s, fileExt)
	digits, ok := strings.CutPrefix(name, filePrefix)
	if !ok || digits == "" {
		return 0, fmt.Errorf("not a scene name: %q", s)
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || strconv.Itoa(n) != digits {
		return 0, fmt.Errorf("invalid scene ordinal in %q", s)
	}
	return ID(n), nil
}

// ScanDir lists the scene frames present in dir, ordered by ID. Files that
// do not follow the naming scheme are returned separately.
func ScanDir(dir string) (map[ID]string, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	frames := make(map[ID]string)
	var ignored []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != fileExt {
			continue
		}
		id, err := ParseKey(name)
		if err != nil {
			ignored = append(ignored, name)
			continue
		}
		frames[id] = filepath.Join(dir, name)
	}
	return frames, ignored, nil
}

// SortedIDs returns the keys of m in ascending order.
func SortedIDs[V any](m map[ID]V) []ID {
	ids := make([]ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
