package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// Encoding controls how clips are re-encoded.
type Encoding struct {
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
}

func DefaultEncoding() Encoding {
	return Encoding{VideoCodec: "libx264", AudioCodec: "aac", Preset: "veryfast", CRF: 18}
}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	enc     Encoding
}

func New(ffmpegPath, ffprobePath string, enc Encoding) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	def := DefaultEncoding()
	if enc.VideoCodec == "" {
		enc.VideoCodec = def.VideoCodec
	}
	if enc.AudioCodec == "" {
		enc.AudioCodec = def.AudioCodec
	}
	if enc.Preset == "" {
		enc.Preset = def.Preset
	}
	if enc.CRF <= 0 {
		enc.CRF = def.CRF
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, enc: enc}
}

func (a *Adapter) Trim(ctx context.Context, src string, start, end float64, out string) error {
	if end <= start {
		return fmt.Errorf("ffmpeg trim: empty range [%s, %s]", fmtSeconds(start), fmtSeconds(end))
	}
	b, err := a.run(ctx, a.trimArgs(src, start, end, out))
	if err != nil {
		return fmt.Errorf("ffmpeg trim: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ExtractAudio(ctx context.Context, clip, out string) error {
	b, err := a.run(ctx, extractAudioArgs(clip, out))
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) Mux(ctx context.Context, video, audio, out string) error {
	b, err := a.run(ctx, a.muxArgs(video, audio, out))
	if err != nil {
		return fmt.Errorf("ffmpeg mux: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) trimArgs(src string, start, end float64, out string) []string {
	return ffmpeggo.Input(src, ffmpeggo.KwArgs{"ss": fmtSeconds(start)}).
		Output(out, ffmpeggo.KwArgs{
			"t":       fmtSeconds(end - start),
			"c:v":     a.enc.VideoCodec,
			"preset":  a.enc.Preset,
			"crf":     strconv.Itoa(a.enc.CRF),
			"pix_fmt": "yuv420p",
			"c:a":     a.enc.AudioCodec,
		}).
		OverWriteOutput().
		GetArgs()
}

func extractAudioArgs(clip, out string) []string {
	return ffmpeggo.Input(clip).
		Output(out, ffmpeggo.KwArgs{"vn": "", "c:a": "copy"}).
		OverWriteOutput().
		GetArgs()
}

func (a *Adapter) muxArgs(video, audio, out string) []string {
	v := ffmpeggo.Input(video).Video()
	au := ffmpeggo.Input(audio).Audio()
	return ffmpeggo.Output([]*ffmpeggo.Stream{v, au}, out, ffmpeggo.KwArgs{
		"c:v":      "copy",
		"c:a":      a.enc.AudioCodec,
		"shortest": "",
	}).
		OverWriteOutput().
		GetArgs()
}

func (a *Adapter) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	return cmd.CombinedOutput()
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
