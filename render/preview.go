package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/rivo/uniseg"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/Krispeckt/linedflow/internal/core/geom"
	"github.com/Krispeckt/linedflow/layout"
)

// Box is one arranged item: its bounds in layout coordinates and an optional
// label drawn inside it.
type Box struct {
	Bounds layout.Rect
	Label  string
}

// Snapshot captures the arranged state of a layout for rendering: the canvas
// extent and the realized item boxes.
type Snapshot struct {
	Size  layout.Size
	Boxes []Box
}

// Options controls the preview rendering.
type Options struct {
	// Background fills the canvas; nil means white.
	Background color.Color
	// BoxFill fills each item box; nil means a light gray.
	BoxFill color.Color
	// BoxBorder strokes each item box; nil means a dark gray.
	BoxBorder color.Color
	// LabelColor colors the labels; nil means black.
	LabelColor color.Color
	// Font draws the labels; nil skips labels entirely.
	Font *Font
	// LabelPadding insets labels from the box edges.
	LabelPadding float64
}

func (o Options) background() color.Color {
	if o.Background == nil {
		return color.White
	}
	return o.Background
}

func (o Options) boxFill() color.Color {
	if o.BoxFill == nil {
		return color.RGBA{R: 0xe8, G: 0xe8, B: 0xe8, A: 0xff}
	}
	return o.BoxFill
}

func (o Options) boxBorder() color.Color {
	if o.BoxBorder == nil {
		return color.RGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xff}
	}
	return o.BoxBorder
}

func (o Options) labelColor() color.Color {
	if o.LabelColor == nil {
		return color.Black
	}
	return o.LabelColor
}

// Render rasterizes the snapshot into a fresh RGBA image.
func Render(snapshot Snapshot, opts Options) *image.RGBA {
	width := geom.MaxInt(1, int(snapshot.Size.Width))
	height := geom.MaxInt(1, int(snapshot.Size.Height))
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(opts.background()), image.Point{}, draw.Src)

	for _, box := range snapshot.Boxes {
		drawBox(canvas, box, opts)
	}
	return canvas
}

// drawBox fills and strokes one item box and draws its truncated label.
func drawBox(canvas *image.RGBA, box Box, opts Options) {
	bounds := imageRect(box.Bounds)
	if bounds.Empty() {
		return
	}

	draw.Draw(canvas, bounds, image.NewUniform(opts.boxFill()), image.Point{}, draw.Src)
	strokeRect(canvas, bounds, opts.boxBorder())

	if opts.Font == nil || box.Label == "" {
		return
	}

	padding := opts.LabelPadding
	maxWidth := box.Bounds.Width - 2*padding
	if maxWidth <= 0 {
		return
	}
	label := TruncateToWidth(opts.Font, box.Label, maxWidth)
	if label == "" {
		return
	}

	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(opts.labelColor()),
		Face: opts.Font.face(),
		Dot: fixed.Point26_6{
			X: geom.Fix(box.Bounds.X + padding),
			Y: geom.Fix(box.Bounds.Y + padding + opts.Font.Ascent()),
		},
	}
	drawer.DrawString(label)
}

// TruncateToWidth shortens s so it fits maxWidth when drawn with the font,
// appending an ellipsis when anything was cut. Cuts happen on grapheme
// cluster boundaries so multi-rune symbols never split.
func TruncateToWidth(f *Font, s string, maxWidth float64) string {
	if f.MeasureString(s) <= maxWidth {
		return s
	}

	const ellipsis = "…"
	ellipsisWidth := f.MeasureString(ellipsis)

	var kept strings.Builder
	keptWidth := 0.0

	graphemes := uniseg.NewGraphemes(s)
	for graphemes.Next() {
		cluster := graphemes.Str()
		clusterWidth := f.MeasureString(cluster)
		if keptWidth+clusterWidth+ellipsisWidth > maxWidth {
			break
		}
		kept.WriteString(cluster)
		keptWidth += clusterWidth
	}

	if kept.Len() == 0 {
		if ellipsisWidth <= maxWidth {
			return ellipsis
		}
		return ""
	}
	return kept.String() + ellipsis
}

// imageRect converts layout coordinates to integer pixel bounds.
func imageRect(r layout.Rect) image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X+r.Width), int(r.Y+r.Height))
}

// strokeRect draws a one-pixel border just inside the rectangle.
func strokeRect(canvas *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		canvas.Set(x, r.Min.Y, c)
		canvas.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		canvas.Set(r.Min.X, y, c)
		canvas.Set(r.Max.X-1, y, c)
	}
}
