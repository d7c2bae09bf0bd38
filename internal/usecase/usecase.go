package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/trendclip/internal/domain/align"
	"github.com/forPelevin/trendclip/internal/domain/transcript"
	"github.com/forPelevin/trendclip/internal/ports"
	"github.com/forPelevin/trendclip/internal/types"
)

type Deps struct {
	Video  ports.VideoTool
	Frames ports.FrameCodec
	Log    zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type AlignInput struct {
	Segments  []types.TranscriptSegment
	Keywords  []string
	TimeRange float64
}

type AlignResult struct {
	Windows  []types.TimeWindow
	Outcomes []types.Outcome
}

// Align turns each keyword into a snapped window. Keywords that cannot be
// aligned are reported and skipped; the rest keep their input order.
func (u Usecase) Align(ctx context.Context, in AlignInput) AlignResult {
	log := u.d.Log.With().Str("stage", string(types.StageAlign)).Logger()
	idx := transcript.NewIndex(in.Segments)

	var res AlignResult
	seen := map[string]bool{}
	for _, word := range in.Keywords {
		if ctx.Err() != nil {
			res.Outcomes = append(res.Outcomes, types.Outcome{
				Stage: types.StageAlign, Word: word, Status: types.StatusFailed, Reason: ctx.Err().Error(),
			})
			continue
		}
		// matching is case-insensitive and clip names must not differ by case alone
		key := strings.ToLower(word)
		if seen[key] {
			log.Warn().Str("word", word).Msg("duplicate keyword dropped")
			continue
		}
		seen[key] = true

		w, err := align.Keyword(idx, word, in.TimeRange)
		if err != nil {
			aerr := &AlignmentError{Word: word, Err: err}
			log.Warn().Str("word", word).Err(err).Msg("keyword skipped")
			res.Outcomes = append(res.Outcomes, types.Outcome{
				Stage: types.StageAlign, Word: word, Status: alignStatus(err), Reason: aerr.Error(),
			})
			continue
		}
		log.Debug().
			Str("word", word).
			Float64("original_start", w.OriginalStart).
			Float64("lower_bound", w.LowerBound).
			Float64("upper_bound", w.UpperBound).
			Msg("window aligned")
		res.Windows = append(res.Windows, w)
		res.Outcomes = append(res.Outcomes, types.Outcome{Stage: types.StageAlign, Word: word, Status: types.StatusOK})
	}
	return res
}

func alignStatus(err error) types.Status {
	if errors.Is(err, align.ErrNoOccurrence) || errors.Is(err, align.ErrUnsafeKeyword) {
		return types.StatusSkipped
	}
	return types.StatusFailed
}
