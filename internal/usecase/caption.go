package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/forPelevin/trendclip/internal/domain/captions"
	"github.com/forPelevin/trendclip/internal/domain/clipname"
	"github.com/forPelevin/trendclip/internal/domain/overlay"
	"github.com/forPelevin/trendclip/internal/domain/transcript"
	"github.com/forPelevin/trendclip/internal/ports"
	"github.com/forPelevin/trendclip/internal/store"
	"github.com/forPelevin/trendclip/internal/types"
)

const (
	reasonNotClip    = "not a clip file name"
	reasonNoWindow   = "no window for word"
	reasonNoCaptions = "no relevant captions"
	reasonDuplicate  = "duplicate of"
)

type CaptionInput struct {
	Segments  []types.TranscriptSegment
	Windows   []types.TimeWindow
	Clips     []string
	Style     overlay.Style
	Subtitles bool // write an ASS sidecar next to each captioned clip
	Workers   int
}

type CaptionReport struct {
	Outcome   types.Outcome
	Subtitles string
}

type CaptionResult struct {
	Reports []CaptionReport // in input clip order
}

func (r CaptionResult) Outcomes() []types.Outcome {
	out := make([]types.Outcome, len(r.Reports))
	for i, rep := range r.Reports {
		out[i] = rep.Outcome
	}
	return out
}

// Caption burns captions into every clip in in.Clips, replacing each file in
// place. A failing clip is reported and left untouched; others continue.
// Paths naming an already listed file are skipped so each output has one writer.
func (u Usecase) Caption(ctx context.Context, in CaptionInput) CaptionResult {
	cc := u.ClipCaptioner(in)
	reps := make([]CaptionReport, len(in.Clips))
	first := map[string]string{}
	var todo []int
	for i, p := range in.Clips {
		key := canonicalPath(p)
		if prev, dup := first[key]; dup {
			clip, _ := clipname.Parse(p)
			cc.log.Warn().Str("clip", p).Str("first", prev).Msg("skipping repeated clip path")
			reps[i] = CaptionReport{Outcome: captionOutcome(p, clip, types.StatusSkipped, reasonDuplicate+" "+prev)}
			continue
		}
		first[key] = p
		reps[i] = CaptionReport{Outcome: captionOutcome(p, types.Clip{}, types.StatusFailed, "not started")}
		todo = append(todo, i)
	}
	forEach(ctx, len(todo), in.Workers, func(j int) {
		i := todo[j]
		reps[i] = cc.Caption(ctx, in.Clips[i])
	})
	return CaptionResult{Reports: reps}
}

func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// ClipCaptioner captions single clips against a fixed transcript and window
// table. It is safe for concurrent use.
type ClipCaptioner struct {
	u         Usecase
	idx       *transcript.Index
	windows   []types.TimeWindow
	style     overlay.Style
	subtitles bool
	log       zerolog.Logger
}

func (u Usecase) ClipCaptioner(in CaptionInput) *ClipCaptioner {
	return &ClipCaptioner{
		u:         u,
		idx:       transcript.NewIndex(in.Segments),
		windows:   in.Windows,
		style:     in.Style,
		subtitles: in.Subtitles,
		log:       u.d.Log.With().Str("stage", string(types.StageCaption)).Logger(),
	}
}

func (c *ClipCaptioner) Caption(ctx context.Context, path string) CaptionReport {
	clip, err := clipname.Parse(path)
	if err != nil {
		c.log.Warn().Str("clip", path).Msg("skipping file: " + reasonNotClip)
		return CaptionReport{Outcome: captionOutcome(path, clip, types.StatusSkipped, reasonNotClip)}
	}
	log := c.log.With().Str("word", clip.Word).Str("clip", path).Logger()

	w, ok := store.NthWindow(c.windows, clip.Word, clip.Index)
	if !ok {
		w, ok = store.WindowFor(c.windows, clip.Word)
	}
	if !ok {
		log.Warn().Msg("skipping clip: " + reasonNoWindow)
		return CaptionReport{Outcome: captionOutcome(path, clip, types.StatusSkipped, reasonNoWindow)}
	}
	spans := captions.Spans(c.idx, w)
	if len(spans) == 0 {
		log.Warn().Msg("skipping clip: " + reasonNoCaptions)
		return CaptionReport{Outcome: captionOutcome(path, clip, types.StatusSkipped, reasonNoCaptions)}
	}

	info, err := c.render(ctx, clip, spans)
	if err != nil {
		oerr := &OverlayError{Clip: filepath.Base(path), Err: err}
		log.Error().Err(oerr).Msg("caption failed, clip left unchanged")
		return CaptionReport{Outcome: captionOutcome(path, clip, types.StatusFailed, oerr.Error())}
	}
	log.Info().Int("captions", len(spans)).Msg("clip captioned")

	rep := CaptionReport{Outcome: captionOutcome(path, clip, types.StatusOK, "")}
	if c.subtitles {
		sub := clipname.Sidecar(clip)
		ass := captions.RenderASS(spans, info.Width, info.Height, c.style.Fade)
		if err := os.WriteFile(sub, []byte(ass), 0o644); err != nil {
			log.Warn().Err(err).Msg("subtitle sidecar not written")
			rep.Outcome.Reason = "sidecar: " + err.Error()
		} else {
			rep.Subtitles = sub
		}
	}
	return rep
}

// render re-encodes clip with captions burned in and swaps the result over
// the original. Intermediates are removed on every path.
func (c *ClipCaptioner) render(ctx context.Context, clip types.Clip, spans []types.CaptionSpan) (types.VideoInfo, error) {
	video, frames := c.u.d.Video, c.u.d.Frames

	info, err := video.Probe(ctx, clip.Path)
	if err != nil {
		return types.VideoInfo{}, err
	}
	face, err := overlay.LoadFace(c.style.FontPath, c.style.FontSize)
	if err != nil {
		return info, err
	}
	defer face.Close()
	capt, err := overlay.NewCaptioner(spans, info.FPS, c.style)
	if err != nil {
		return info, err
	}

	dir := filepath.Dir(clip.Path)
	id := uuid.NewString()
	base := filepath.Base(clip.Path)
	videoTmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.video.mp4", base, id))
	audioTmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.audio.m4a", base, id))
	muxTmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.mux.mp4", base, id))
	defer func() {
		os.Remove(videoTmp)
		os.Remove(audioTmp)
		os.Remove(muxTmp)
	}()

	if info.HasAudio {
		if err := video.ExtractAudio(ctx, clip.Path, audioTmp); err != nil {
			return info, err
		}
	}

	n, err := burn(ctx, frames, clip.Path, videoTmp, info, capt, face)
	if err != nil {
		return info, err
	}
	c.log.Debug().Str("clip", clip.Path).Int("frames", n).Msg("frames rendered")

	final := videoTmp
	if info.HasAudio {
		if err := video.Mux(ctx, videoTmp, audioTmp, muxTmp); err != nil {
			return info, err
		}
		final = muxTmp
	}
	if err := os.Rename(final, clip.Path); err != nil {
		return info, err
	}
	return info, nil
}

// burn streams every frame of src through capt into a video-only file at dst
// and returns the number of frames written.
func burn(ctx context.Context, codec ports.FrameCodec, src, dst string, info types.VideoInfo, capt *overlay.Captioner, face font.Face) (n int, err error) {
	r, err := codec.OpenFrames(ctx, src, info)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	w, err := codec.CreateFrames(ctx, dst, info)
	if err != nil {
		return 0, err
	}

	buf := image.NewRGBA(image.Rect(0, 0, info.Width, info.Height))
	canvas := overlay.NewRGBACanvas(buf, face)
	for {
		if err := ctx.Err(); err != nil {
			w.Close()
			return n, err
		}
		if err := r.Next(buf); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			w.Close()
			return n, err
		}
		capt.Apply(canvas, n)
		if err := w.Write(buf); err != nil {
			w.Close()
			return n, err
		}
		n++
	}
	if err := w.Close(); err != nil {
		return n, err
	}
	if n == 0 {
		return 0, errors.New("clip has no frames")
	}
	return n, nil
}

func captionOutcome(path string, c types.Clip, st types.Status, reason string) types.Outcome {
	return types.Outcome{
		Stage:  types.StageCaption,
		Word:   c.Word,
		Index:  c.Index,
		File:   path,
		Status: st,
		Reason: reason,
	}
}
