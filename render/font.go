// Package render rasterizes a measured layout into an RGBA image: one box
// per arranged item, with optional labels. It backs golden-image debugging.
package render

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/Krispeckt/linedflow/internal/core/geom"
)

const defaultDPI = 72

// Font wraps a TrueType font with pixel-accurate measurement helpers for
// item labels. 1pt = 1/72 inch; at the default 72 DPI one point is one pixel.
type Font struct {
	tt     *truetype.Font
	sizePt float64
	dpi    float64
}

// LoadFont loads a .ttf file from disk at the given point size.
func LoadFont(path string, sizePt float64) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadFontFromBytes(data, sizePt)
}

// LoadFontFromBytes parses a TrueType font from memory. Useful for embedding
// fonts with Go's //go:embed directive.
func LoadFontFromBytes(data []byte, sizePt float64) (*Font, error) {
	tt, err := truetype.Parse(data)
	if err != nil {
		return nil, err
	}
	if sizePt <= 0 {
		sizePt = 0.01
	}
	return &Font{tt: tt, sizePt: sizePt, dpi: defaultDPI}, nil
}

// MustLoadFont loads a .ttf font from disk and panics on error.
func MustLoadFont(path string, sizePt float64) *Font {
	f, err := LoadFont(path, sizePt)
	if err != nil {
		panic(err)
	}
	return f
}

// MustLoadFontFromBytes parses a TrueType font from bytes and panics on error.
func MustLoadFontFromBytes(data []byte, sizePt float64) *Font {
	f, err := LoadFontFromBytes(data, sizePt)
	if err != nil {
		panic(err)
	}
	return f
}

// WithSize returns a copy of the font at another point size.
func (f *Font) WithSize(sizePt float64) *Font {
	if sizePt <= 0 {
		sizePt = 0.01
	}
	return &Font{tt: f.tt, sizePt: sizePt, dpi: f.dpi}
}

// face returns a cached font.Face for the font's current size and DPI.
func (f *Font) face() font.Face {
	key := fmt.Sprintf("%p:%.2f:%.0f", f.tt, f.sizePt, f.dpi)
	if face, ok := faceCache.get(key); ok {
		return face
	}
	face := truetype.NewFace(f.tt, &truetype.Options{
		Size:    f.sizePt,
		DPI:     f.dpi,
		Hinting: font.HintingFull,
	})
	faceCache.put(key, face)
	return face
}

// MeasureString returns the advance width of s in pixels.
func (f *Font) MeasureString(s string) float64 {
	drawer := font.Drawer{Face: f.face()}
	return geom.Unfix(drawer.MeasureString(s))
}

// LineHeight returns the face's vertical metric in pixels.
func (f *Font) LineHeight() float64 {
	return geom.Unfix(f.face().Metrics().Height)
}

// Ascent returns the face's ascent in pixels.
func (f *Font) Ascent() float64 {
	return geom.Unfix(f.face().Metrics().Ascent)
}
