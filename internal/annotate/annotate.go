// Package annotate draws the session overlay onto captured frames.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/neekaru/fitcoach/internal/camera"
)

// PlaceholderNote marks frames that were not analysed by the pose model
const PlaceholderNote = "Placeholder - Desktop version has full AI"

// Baseline anchors of the three overlay lines
var (
	LabelAnchor = image.Pt(50, 50)
	RepsAnchor  = image.Pt(50, 100)
	NoteAnchor  = image.Pt(50, 150)
)

var (
	LabelColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	RepsColor  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	NoteColor  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// Face is the font every overlay line is drawn with
var Face font.Face = basicfont.Face7x13

// Line is one overlay text placed at a baseline anchor
type Line struct {
	Text   string
	Anchor image.Point
	Color  color.RGBA
}

// Lines returns the overlay in draw order
func Lines(exerciseLabel string, repCount int) []Line {
	return []Line{
		{Text: "Exercise: " + exerciseLabel, Anchor: LabelAnchor, Color: LabelColor},
		{Text: fmt.Sprintf("Reps: %d", repCount), Anchor: RepsAnchor, Color: RepsColor},
		{Text: PlaceholderNote, Anchor: NoteAnchor, Color: NoteColor},
	}
}

// Annotate returns a copy of f with the exercise label, rep count and the
// placeholder note drawn on it. The input frame is not modified.
func Annotate(f camera.Frame, exerciseLabel string, repCount int) camera.Frame {
	out := f.Clone()
	if out.Image == nil {
		return out
	}
	for _, l := range Lines(exerciseLabel, repCount) {
		DrawText(out.Image, l)
	}
	return out
}

// DrawText draws one line with its baseline starting at the anchor
func DrawText(img *image.RGBA, l Line) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(l.Color),
		Face: Face,
		Dot:  fixed.P(l.Anchor.X, l.Anchor.Y),
	}
	d.DrawString(l.Text)
}

// TextBounds returns the pixel rectangle a line occupies
func TextBounds(l Line) image.Rectangle {
	b, _ := font.BoundString(Face, l.Text)
	return image.Rect(
		l.Anchor.X+b.Min.X.Floor(),
		l.Anchor.Y+b.Min.Y.Floor(),
		l.Anchor.X+b.Max.X.Ceil(),
		l.Anchor.Y+b.Max.Y.Ceil(),
	)
}
