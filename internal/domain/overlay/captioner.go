package overlay

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/forPelevin/trendclip/internal/domain/captions"
	"github.com/forPelevin/trendclip/internal/types"
)

// Captioner decides, per frame, which caption is visible and how it is drawn.
// It holds no per-frame state, so frames may be fed in any order.
type Captioner struct {
	spans []types.CaptionSpan
	fps   float64
	style Style
}

func NewCaptioner(spans []types.CaptionSpan, fps float64, style Style) (*Captioner, error) {
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, fmt.Errorf("invalid frame rate %v", fps)
	}
	cp := make([]types.CaptionSpan, len(spans))
	copy(cp, spans)
	return &Captioner{spans: cp, fps: fps, style: style}, nil
}

// Time returns the clip-local timestamp of a frame.
func (c *Captioner) Time(frame int) float64 { return float64(frame) / c.fps }

// Apply draws the caption visible at frame onto cv and reports whether
// anything was drawn. Frames with no caption are left untouched.
func (c *Captioner) Apply(cv Canvas, frame int) bool {
	t := c.Time(frame)
	span, ok := captions.Select(c.spans, t)
	if !ok {
		return false
	}
	a := captions.Alpha(span, t, c.style.Fade)
	if a <= 0 {
		return false
	}

	b := cv.Bounds()
	lines := wrap(cv, span.Text, b.Dx()-2*c.style.SideMargin)
	if len(lines) == 0 {
		return false
	}
	_, lh := cv.Measure(span.Text)
	block := len(lines)*lh + (len(lines)-1)*c.style.LineSpacing
	y := b.Max.Y - c.style.BottomMargin - block

	white := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	shadow := color.NRGBA{A: c.style.ShadowAlpha}
	p := Paint{
		Fill:         withAlpha(white, a),
		Outline:      withAlpha(c.style.OutlineColor(frame), a),
		Shadow:       withAlpha(shadow, a),
		ShadowOffset: image.Pt(c.style.ShadowOffset, c.style.ShadowOffset),
		OutlineWidth: c.style.OutlineWidth,
	}
	for _, ln := range lines {
		w, _ := cv.Measure(ln)
		x := b.Min.X + (b.Dx()-w)/2
		cv.DrawText(ln, image.Pt(x, y), p)
		y += lh + c.style.LineSpacing
	}
	return true
}

func withAlpha(c color.NRGBA, a float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * a))
	return c
}

// wrap greedily packs words into lines no wider than maxW. A single word
// wider than maxW gets its own line.
func wrap(cv Canvas, text string, maxW int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if maxW <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		next := cur + " " + w
		if nw, _ := cv.Measure(next); nw > maxW {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	return append(lines, cur)
}
