package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/forPelevin/trendclip/internal/types"
)

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func (a *Adapter) Probe(ctx context.Context, path string) (types.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "stream=codec_type,width,height,avg_frame_rate,r_frame_rate,duration:format=duration",
		"-of", "json",
		path,
	)
	b, err := cmd.Output()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return types.VideoInfo{}, fmt.Errorf("ffprobe %s: %w\n%s", path, err, string(ee.Stderr))
		}
		return types.VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	info, err := parseProbe(b)
	if err != nil {
		return types.VideoInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	info.Path = path
	return info, nil
}

func parseProbe(b []byte) (types.VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(b, &out); err != nil {
		return types.VideoInfo{}, errors.WithStack(err)
	}

	var info types.VideoInfo
	var streamDur float64
	found := false
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if found {
				continue
			}
			found = true
			info.Width, info.Height = s.Width, s.Height
			info.FPS = frameRate(s.AvgFrameRate, s.RFrameRate)
			streamDur = parseSeconds(s.Duration)
		case "audio":
			info.HasAudio = true
		}
	}
	if !found {
		return types.VideoInfo{}, fmt.Errorf("no video stream")
	}
	info.Duration = parseSeconds(out.Format.Duration)
	if info.Duration == 0 {
		info.Duration = streamDur
	}
	if info.Width <= 0 || info.Height <= 0 {
		return types.VideoInfo{}, fmt.Errorf("bad frame size %dx%d", info.Width, info.Height)
	}
	if info.FPS <= 0 {
		return types.VideoInfo{}, fmt.Errorf("unknown frame rate")
	}
	return info, nil
}

// frameRate prefers the average rate and falls back to the container's
// nominal rate. Variable rate streams report 0/0 for the average.
func frameRate(avg, nominal string) float64 {
	if r := parseRate(avg); r > 0 {
		return r
	}
	return parseRate(nominal)
}

// parseRate parses ffprobe's "num/den" form.
func parseRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseSeconds(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
