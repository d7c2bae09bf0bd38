package captions

import (
	"math"
	"strings"

	"github.com/forPelevin/trendclip/internal/domain/transcript"
	"github.com/forPelevin/trendclip/internal/types"
)

// DefaultFade is the length in seconds of both the fade-in and fade-out ramps.
const DefaultFade = 0.5

// Spans rebases every segment overlapping w into clip-local time. Spans that
// end up with no duration or no text are dropped. Order follows the index.
func Spans(idx *transcript.Index, w types.TimeWindow) []types.CaptionSpan {
	var out []types.CaptionSpan
	for _, s := range idx.Overlapping(w.LowerBound, w.UpperBound) {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		start := math.Max(0, s.Start-w.LowerBound)
		dur := math.Min(w.UpperBound, s.End()) - w.LowerBound - start
		if dur <= 0 {
			continue
		}
		out = append(out, types.CaptionSpan{Text: text, Start: start, Duration: dur})
	}
	return out
}

// Select returns the first span whose closed interval contains t.
func Select(spans []types.CaptionSpan, t float64) (types.CaptionSpan, bool) {
	for _, s := range spans {
		if s.Start <= t && t <= s.End() {
			return s, true
		}
	}
	return types.CaptionSpan{}, false
}

// Alpha is the caption opacity at t: a linear ramp up over the first fade
// seconds of the span, a ramp down over the last fade seconds, 1 in between.
func Alpha(s types.CaptionSpan, t, fade float64) float64 {
	if fade <= 0 {
		if t < s.Start || t > s.End() {
			return 0
		}
		return 1
	}
	a := 1.0
	switch {
	case t < s.Start+fade:
		a = (t - s.Start) / fade
	case t > s.End()-fade:
		a = (s.End() - t) / fade
	}
	return clamp01(a)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PaletteIndex picks the palette slot for a frame, advancing every `every` frames.
func PaletteIndex(frame, every, n int) int {
	if n <= 0 {
		return 0
	}
	if every <= 0 {
		every = 1
	}
	if frame < 0 {
		frame = 0
	}
	return (frame / every) % n
}
