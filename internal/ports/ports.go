package ports

import (
	"context"
	"image"

	"github.com/forPelevin/trendclip/internal/types"
)

type VideoTool interface {
	Probe(ctx context.Context, path string) (types.VideoInfo, error)
	// Trim re-encodes [start, end] seconds of src into out.
	Trim(ctx context.Context, src string, start, end float64, out string) error
	// ExtractAudio copies the audio stream of clip into out without re-encoding.
	ExtractAudio(ctx context.Context, clip, out string) error
	// Mux combines the video stream of video with the audio stream of audio.
	Mux(ctx context.Context, video, audio, out string) error
}

// FrameReader yields decoded frames in presentation order. Next returns
// io.EOF after the last frame.
type FrameReader interface {
	Next(dst *image.RGBA) error
	Close() error
}

// FrameWriter encodes frames into a video-only file. Close flushes the encoder.
type FrameWriter interface {
	Write(frame *image.RGBA) error
	Close() error
}

type FrameCodec interface {
	OpenFrames(ctx context.Context, path string, info types.VideoInfo) (FrameReader, error)
	CreateFrames(ctx context.Context, path string, info types.VideoInfo) (FrameWriter, error)
}

type TranscriptSource interface {
	Load(ctx context.Context, path string) ([]types.TranscriptSegment, error)
}
