// Package overlay burns styled caption text into decoded RGBA frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Paint describes one styled text draw: shadow first, then outline, then fill.
type Paint struct {
	Fill         color.NRGBA
	Outline      color.NRGBA
	Shadow       color.NRGBA
	ShadowOffset image.Point
	OutlineWidth int
}

// Canvas is the only drawing surface the captioner talks to.
type Canvas interface {
	Bounds() image.Rectangle
	// Measure returns the advance width and line height of text.
	Measure(text string) (width, height int)
	// DrawText draws text with its line box's top-left corner at at.
	DrawText(text string, at image.Point, p Paint)
}

// LoadFace parses the TTF/OTF at path, or the built-in Go Regular face when
// path is empty. Faces are not safe for concurrent use; load one per renderer.
func LoadFace(path string, size float64) (font.Face, error) {
	src := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		src = b
	}
	f, err := opentype.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	return face, nil
}

// RGBACanvas draws onto an *image.RGBA frame buffer.
type RGBACanvas struct {
	img  *image.RGBA
	face font.Face
}

func NewRGBACanvas(img *image.RGBA, face font.Face) *RGBACanvas {
	return &RGBACanvas{img: img, face: face}
}

func (c *RGBACanvas) Bounds() image.Rectangle { return c.img.Bounds() }

func (c *RGBACanvas) Measure(text string) (int, int) {
	d := font.Drawer{Face: c.face}
	m := c.face.Metrics()
	return d.MeasureString(text).Ceil(), (m.Ascent + m.Descent).Ceil()
}

func (c *RGBACanvas) DrawText(text string, at image.Point, p Paint) {
	baseline := at.Y + c.face.Metrics().Ascent.Ceil()
	if p.Shadow.A > 0 {
		c.stamp(text, at.X+p.ShadowOffset.X, baseline+p.ShadowOffset.Y, p.Shadow)
	}
	if p.Outline.A > 0 && p.OutlineWidth > 0 {
		w := p.OutlineWidth
		for dy := -w; dy <= w; dy++ {
			for dx := -w; dx <= w; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				c.stamp(text, at.X+dx, baseline+dy, p.Outline)
			}
		}
	}
	if p.Fill.A > 0 {
		c.stamp(text, at.X, baseline, p.Fill)
	}
}

func (c *RGBACanvas) stamp(text string, x, y int, col color.NRGBA) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
