package ffmpeg

import (
	"math"
	"testing"

	"github.com/forPelevin/trendclip/internal/types"
)

func infoFixture() types.VideoInfo {
	return types.VideoInfo{Path: "in.mp4", Duration: 6, Width: 640, Height: 360, FPS: 29.97, HasAudio: true}
}

func TestParseProbe(t *testing.T) {
	raw := `{
  "streams": [
    {"codec_type": "audio", "duration": "6.02"},
    {"codec_type": "video", "width": 640, "height": 360, "avg_frame_rate": "30000/1001", "r_frame_rate": "30/1", "duration": "6.000"}
  ],
  "format": {"duration": "6.023"}
}`
	info, err := parseProbe([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != 640 || info.Height != 360 || !info.HasAudio {
		t.Fatalf("unexpected info %+v", info)
	}
	if math.Abs(info.FPS-29.97) > 0.01 {
		t.Fatalf("unexpected fps %v", info.FPS)
	}
	if info.Duration != 6.023 {
		t.Fatalf("expected container duration, got %v", info.Duration)
	}
}

func TestParseProbe_Fallbacks(t *testing.T) {
	raw := `{"streams":[{"codec_type":"video","width":320,"height":240,"avg_frame_rate":"0/0","r_frame_rate":"25/1","duration":"4.0"}],"format":{}}`
	info, err := parseProbe([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if info.FPS != 25 || info.Duration != 4 || info.HasAudio {
		t.Fatalf("unexpected fallbacks %+v", info)
	}
}

func TestParseProbe_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "ffprobe exploded"},
		{"audio only", `{"streams":[{"codec_type":"audio"}],"format":{"duration":"3"}}`},
		{"no size", `{"streams":[{"codec_type":"video","avg_frame_rate":"30/1"}],"format":{"duration":"3"}}`},
		{"no rate", `{"streams":[{"codec_type":"video","width":2,"height":2}],"format":{"duration":"3"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseProbe([]byte(tt.raw)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"24000/1001", 24000.0 / 1001},
		{"0/0", 0},
		{"30", 0},
		{"x/y", 0},
	}
	for _, tt := range tests {
		if got := parseRate(tt.in); got != tt.want {
			t.Fatalf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
