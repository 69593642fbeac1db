package gui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
)

func TestBuildContent(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	lines := []string{"1. scene_1 (100.0) a dog runs", "2. scene_3 (100.0) a dog barks"}
	content := buildContent("collage.png", lines)

	split, ok := content.(*container.Split)
	if !ok {
		t.Fatalf("expected a split container, got %T", content)
	}

	border := split.Trailing.(*fyne.Container)
	var list *widget.List
	var header *widget.Label
	for _, obj := range border.Objects {
		switch o := obj.(type) {
		case *widget.List:
			list = o
		case *widget.Label:
			header = o
		}
	}
	if list == nil || header == nil {
		t.Fatalf("match list or header missing")
	}
	if header.Text != "2 matches" {
		t.Errorf("unexpected header %q", header.Text)
	}
	if n := list.Length(); n != 2 {
		t.Errorf("expected 2 rows, got %d", n)
	}
}

func TestShowCollageRequiresPath(t *testing.T) {
	if err := ShowCollage("scenefinder", "", nil); err == nil {
		t.Fatal("expected error for empty collage path")
	}
}
