package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/forPelevin/trendclip/internal/domain/align"
	"github.com/forPelevin/trendclip/internal/domain/clipname"
	"github.com/forPelevin/trendclip/internal/types"
)

// durationSlack absorbs container rounding when comparing a window to the
// probed source duration.
const durationSlack = 1e-3

type ExtractInput struct {
	Source   string
	Windows  []types.TimeWindow
	ClipsDir string
	Workers  int
}

type ExtractResult struct {
	Clips    []types.Clip // successfully written, in window order
	Outcomes []types.Outcome
}

// Extract trims one clip per window. A word seen again gets the next index.
func (u Usecase) Extract(ctx context.Context, in ExtractInput) (ExtractResult, error) {
	log := u.d.Log.With().Str("stage", string(types.StageExtract)).Logger()
	if err := os.MkdirAll(in.ClipsDir, 0o755); err != nil {
		return ExtractResult{}, &InputError{What: "clips dir", Err: err}
	}

	clips := make([]types.Clip, len(in.Windows))
	seq := map[string]int{}
	for i, w := range in.Windows {
		seq[w.Word]++
		clips[i] = clipname.Path(in.ClipsDir, w.Word, seq[w.Word])
	}

	outs := make([]types.Outcome, len(in.Windows))
	for i, c := range clips {
		outs[i] = extractOutcome(c, types.StatusFailed, "not started")
	}
	if len(in.Windows) == 0 {
		return ExtractResult{}, nil
	}

	info, err := u.d.Video.Probe(ctx, in.Source)
	if err != nil {
		log.Error().Str("source", in.Source).Err(err).Msg("probe failed")
		for i, c := range clips {
			outs[i] = extractOutcome(c, types.StatusFailed, (&ExtractionError{Word: c.Word, Index: c.Index, Err: err}).Error())
		}
		return ExtractResult{Outcomes: outs}, nil
	}

	ok := make([]bool, len(clips))
	forEach(ctx, len(clips), in.Workers, func(i int) {
		c, w := clips[i], in.Windows[i]
		if err := u.extractOne(ctx, in.Source, info, w, c); err != nil {
			log.Warn().Str("word", c.Word).Int("index", c.Index).Err(err).Msg("clip skipped")
			outs[i] = extractOutcome(c, types.StatusFailed, err.Error())
			return
		}
		log.Info().Str("word", c.Word).Str("clip", c.Path).Msg("clip extracted")
		outs[i] = extractOutcome(c, types.StatusOK, "")
		ok[i] = true
	})

	res := ExtractResult{Outcomes: outs}
	for i, c := range clips {
		if ok[i] {
			res.Clips = append(res.Clips, c)
		}
	}
	return res, nil
}

func (u Usecase) extractOne(ctx context.Context, src string, info types.VideoInfo, w types.TimeWindow, c types.Clip) error {
	wrap := func(err error) error { return &ExtractionError{Word: c.Word, Index: c.Index, Err: err} }
	if !align.SafeWord(w.Word) {
		return wrap(align.ErrUnsafeKeyword)
	}
	if w.LowerBound < 0 || w.UpperBound <= w.LowerBound {
		return wrap(fmt.Errorf("empty window [%.3f, %.3f]", w.LowerBound, w.UpperBound))
	}
	if info.Duration > 0 && w.UpperBound > info.Duration+durationSlack {
		return wrap(fmt.Errorf("window ends at %.3f past source duration %.3f", w.UpperBound, info.Duration))
	}

	tmp := filepath.Join(filepath.Dir(c.Path), fmt.Sprintf(".%s.%s.part.mp4", filepath.Base(c.Path), uuid.NewString()))
	defer os.Remove(tmp)
	if err := u.d.Video.Trim(ctx, src, w.LowerBound, w.UpperBound, tmp); err != nil {
		return wrap(err)
	}
	if err := os.Rename(tmp, c.Path); err != nil {
		return wrap(err)
	}
	return nil
}

func extractOutcome(c types.Clip, st types.Status, reason string) types.Outcome {
	return types.Outcome{
		Stage:  types.StageExtract,
		Word:   c.Word,
		Index:  c.Index,
		File:   c.Path,
		Status: st,
		Reason: reason,
	}
}
