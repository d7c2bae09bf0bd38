package ffmpeg

import (
	"testing"
)

func indexOf(args []string, s string) int {
	for i, a := range args {
		if a == s {
			return i
		}
	}
	return -1
}

func hasPair(args []string, k, v string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == k && args[i+1] == v {
			return true
		}
	}
	return false
}

func TestTrimArgs(t *testing.T) {
	a := New("", "", Encoding{})
	args := a.trimArgs("in.mp4", 12.5, 27.25, "out.mp4")

	if !hasPair(args, "-i", "in.mp4") {
		t.Fatalf("missing input: %v", args)
	}
	if i, j := indexOf(args, "-ss"), indexOf(args, "-i"); i < 0 || i > j || args[i+1] != "12.500" {
		t.Fatalf("expected input-side seek before -i: %v", args)
	}
	if !hasPair(args, "-t", "14.750") {
		t.Fatalf("expected duration 14.750: %v", args)
	}
	if !hasPair(args, "-c:v", "libx264") || !hasPair(args, "-c:a", "aac") {
		t.Fatalf("expected default codecs: %v", args)
	}
	if indexOf(args, "out.mp4") < 0 || indexOf(args, "-y") < 0 {
		t.Fatalf("expected overwriting output: %v", args)
	}
}

func TestTrimArgs_CustomEncoding(t *testing.T) {
	a := New("", "", Encoding{VideoCodec: "libx265", AudioCodec: "libopus", CRF: 23})
	args := a.trimArgs("in.mp4", 0, 1, "out.mp4")
	if !hasPair(args, "-c:v", "libx265") || !hasPair(args, "-c:a", "libopus") || !hasPair(args, "-crf", "23") {
		t.Fatalf("encoding not applied: %v", args)
	}
	if !hasPair(args, "-preset", "veryfast") {
		t.Fatalf("expected default preset: %v", args)
	}
}

func TestExtractAudioArgs(t *testing.T) {
	args := extractAudioArgs("clip.mp4", "clip.m4a")
	if !hasPair(args, "-i", "clip.mp4") || indexOf(args, "-vn") < 0 || !hasPair(args, "-c:a", "copy") {
		t.Fatalf("unexpected args: %v", args)
	}
	if indexOf(args, "clip.m4a") < 0 {
		t.Fatalf("missing output: %v", args)
	}
}

func TestMuxArgs(t *testing.T) {
	a := New("", "", Encoding{})
	args := a.muxArgs("video.mp4", "audio.m4a", "final.mp4")
	if !hasPair(args, "-i", "video.mp4") || !hasPair(args, "-i", "audio.m4a") {
		t.Fatalf("missing inputs: %v", args)
	}
	if indexOf(args, "video.mp4") > indexOf(args, "audio.m4a") {
		t.Fatalf("video input must come first: %v", args)
	}
	if !hasPair(args, "-c:v", "copy") || !hasPair(args, "-c:a", "aac") {
		t.Fatalf("expected video copy and aac audio: %v", args)
	}
	if indexOf(args, "final.mp4") < 0 {
		t.Fatalf("missing output: %v", args)
	}
}

func TestCodecArgs(t *testing.T) {
	dec := decodeArgs("clip.mp4")
	if !hasPair(dec, "-i", "clip.mp4") || !hasPair(dec, "-f", "rawvideo") && !hasPair(dec, "-format", "rawvideo") {
		t.Fatalf("unexpected decode args: %v", dec)
	}
	if !hasPair(dec, "-pix_fmt", "rgba") || indexOf(dec, "pipe:") < 0 {
		t.Fatalf("decoder must write rgba to a pipe: %v", dec)
	}

	a := New("", "", Encoding{})
	enc := a.encodeArgs("out.mp4", infoFixture())
	if !hasPair(enc, "-s", "640x360") || !hasPair(enc, "-r", "29.97") {
		t.Fatalf("encoder input geometry missing: %v", enc)
	}
	if !hasPair(enc, "-i", "pipe:") || !hasPair(enc, "-pix_fmt", "yuv420p") {
		t.Fatalf("unexpected encode args: %v", enc)
	}
}
