package captions

import (
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/trendclip/internal/types"
)

// RenderASS writes spans as an ASS script sized for a width x height clip.
// Every event carries the same fade ramps as the burned-in captions.
func RenderASS(spans []types.CaptionSpan, width, height int, fade float64) string {
	fadeMS := int(fade * 1000)
	if fadeMS < 0 {
		fadeMS = 0
	}
	var b strings.Builder
	b.WriteString(assHeader(width, height))
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, s := range spans {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(dur(s.Start)))
		b.WriteString(",")
		b.WriteString(assTime(dur(s.End())))
		b.WriteString(",Caption,,0,0,0,,")
		b.WriteString(fmt.Sprintf("{\\fad(%d,%d)}", fadeMS, fadeMS))
		b.WriteString(sanitizeASS(s.Text))
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader(width, height int) string {
	if width <= 0 || height <= 0 {
		width, height = 1920, 1080
	}
	return fmt.Sprintf(strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, Go, 24, &H00FFFFFF, &H00FFFFFF, &H006633FF, &H38000000, 0,0,0,0,100,100,0,0,1,1,2,2, 40,40,120,1
`), width, height)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", "\\N")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
