// Package gui shows a rendered collage next to the ranked matches.
package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// ShowCollage opens a window with the collage image and one line per
// match, and blocks until the window is closed.
func ShowCollage(title, collagePath string, lines []string) error {
	if collagePath == "" {
		return fmt.Errorf("no collage to show")
	}

	a := app.NewWithID("scenefinder")
	w := a.NewWindow(title)
	w.SetContent(buildContent(collagePath, lines))
	w.Resize(fyne.NewSize(1040, 640))
	w.ShowAndRun()
	return nil
}

func buildContent(collagePath string, lines []string) fyne.CanvasObject {
	img := canvas.NewImageFromFile(collagePath)
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(fyne.NewSize(640, 360))

	list := widget.NewList(
		func() int { return len(lines) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			o.(*widget.Label).SetText(lines[i])
		},
	)

	header := widget.NewLabel(fmt.Sprintf("%d matches", len(lines)))
	split := container.NewVSplit(img, container.NewBorder(header, nil, nil, nil, list))
	split.Offset = 0.7
	return split
}
