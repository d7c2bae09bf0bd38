package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/forPelevin/trendclip/internal/domain/captions"
)

var DefaultPalette = []string{"#FF3366", "#33CCFF", "#FFCC00", "#66FF33", "#FF9900"}

type Style struct {
	FontPath     string
	FontSize     float64
	Palette      []color.NRGBA
	ColorEvery   int // frames per palette step
	BottomMargin int
	SideMargin   int
	LineSpacing  int
	ShadowOffset int
	ShadowAlpha  uint8 // shadow opacity at full caption alpha
	OutlineWidth int
	Fade         float64
}

func DefaultStyle() Style {
	pal, _ := ParsePalette(DefaultPalette)
	return Style{
		FontSize:     24,
		Palette:      pal,
		ColorEvery:   10,
		BottomMargin: 120,
		SideMargin:   40,
		LineSpacing:  4,
		ShadowOffset: 2,
		ShadowAlpha:  200,
		OutlineWidth: 1,
		Fade:         captions.DefaultFade,
	}
}

// ParseHexColor accepts #RRGGBB or #RRGGBBAA, with or without the hash.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xFF
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func ParsePalette(hex []string) ([]color.NRGBA, error) {
	if len(hex) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	out := make([]color.NRGBA, 0, len(hex))
	for _, h := range hex {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// OutlineColor returns the palette entry for a frame.
func (s Style) OutlineColor(frame int) color.NRGBA {
	if len(s.Palette) == 0 {
		return color.NRGBA{A: 0xFF}
	}
	return s.Palette[captions.PaletteIndex(frame, s.ColorEvery, len(s.Palette))]
}
