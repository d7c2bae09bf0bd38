package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/trendclip/internal/ports"
	"github.com/forPelevin/trendclip/internal/types"
)

// OpenFrames starts a decoder that streams rgba frames of path over a pipe.
func (a *Adapter) OpenFrames(ctx context.Context, path string, info types.VideoInfo) (ports.FrameReader, error) {
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("ffmpeg decode: bad frame size %dx%d", info.Width, info.Height)
	}
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, a.ffmpeg, decodeArgs(path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	return &frameReader{
		cmd:    cmd,
		cancel: cancel,
		out:    stdout,
		stderr: &stderr,
		size:   info.Width * info.Height * 4,
		rect:   image.Rect(0, 0, info.Width, info.Height),
	}, nil
}

// CreateFrames starts an encoder that reads rgba frames from a pipe and
// writes a video-only file at path.
func (a *Adapter) CreateFrames(ctx context.Context, path string, info types.VideoInfo) (ports.FrameWriter, error) {
	if info.Width <= 0 || info.Height <= 0 || info.FPS <= 0 {
		return nil, fmt.Errorf("ffmpeg encode: bad stream %dx%d@%v", info.Width, info.Height, info.FPS)
	}
	cmd := exec.CommandContext(ctx, a.ffmpeg, a.encodeArgs(path, info)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg encode: %w", err)
	}
	return &frameWriter{
		cmd:    cmd,
		in:     stdin,
		stderr: &stderr,
		rect:   image.Rect(0, 0, info.Width, info.Height),
	}, nil
}

func decodeArgs(path string) []string {
	return ffmpeggo.Input(path).
		Output("pipe:", ffmpeggo.KwArgs{"format": "rawvideo", "pix_fmt": "rgba", "an": ""}).
		GetArgs()
}

func (a *Adapter) encodeArgs(path string, info types.VideoInfo) []string {
	return ffmpeggo.Input("pipe:", ffmpeggo.KwArgs{
		"format":  "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", info.Width, info.Height),
		"r":       strconv.FormatFloat(info.FPS, 'f', -1, 64),
	}).
		Output(path, ffmpeggo.KwArgs{
			"c:v":     a.enc.VideoCodec,
			"preset":  a.enc.Preset,
			"crf":     strconv.Itoa(a.enc.CRF),
			"pix_fmt": "yuv420p",
		}).
		OverWriteOutput().
		GetArgs()
}

type frameReader struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	out    io.ReadCloser
	stderr *bytes.Buffer
	size   int
	rect   image.Rectangle
	done   bool
}

func (r *frameReader) Next(dst *image.RGBA) error {
	if r.done {
		return io.EOF
	}
	if dst.Rect != r.rect || len(dst.Pix) != r.size {
		return fmt.Errorf("ffmpeg decode: frame buffer is %v, want %v", dst.Rect, r.rect)
	}
	_, err := io.ReadFull(r.out, dst.Pix)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		r.done = true
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
		return fmt.Errorf("ffmpeg decode: truncated frame\n%s", r.stderr.String())
	default:
		return fmt.Errorf("ffmpeg decode: %w", err)
	}
}

// Close reaps the decoder. A reader closed before EOF kills the process.
func (r *frameReader) Close() error {
	defer r.cancel()
	if !r.done {
		r.cancel()
		_ = r.cmd.Wait()
		return nil
	}
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg decode: %w\n%s", err, r.stderr.String())
	}
	return nil
}

type frameWriter struct {
	cmd    *exec.Cmd
	in     io.WriteCloser
	stderr *bytes.Buffer
	rect   image.Rectangle
	closed bool
}

func (w *frameWriter) Write(frame *image.RGBA) error {
	if frame.Rect != w.rect {
		return fmt.Errorf("ffmpeg encode: frame is %v, want %v", frame.Rect, w.rect)
	}
	rowLen := w.rect.Dx() * 4
	if frame.Stride == rowLen {
		if _, err := w.in.Write(frame.Pix[:rowLen*w.rect.Dy()]); err != nil {
			return fmt.Errorf("ffmpeg encode: %w\n%s", err, w.stderr.String())
		}
		return nil
	}
	for y := 0; y < w.rect.Dy(); y++ {
		off := y * frame.Stride
		if _, err := w.in.Write(frame.Pix[off : off+rowLen]); err != nil {
			return fmt.Errorf("ffmpeg encode: %w\n%s", err, w.stderr.String())
		}
	}
	return nil
}

func (w *frameWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.in.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w\n%s", err, w.stderr.String())
	}
	return nil
}
