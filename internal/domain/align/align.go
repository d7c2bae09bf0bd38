package align

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"github.com/forPelevin/trendclip/internal/domain/transcript"
	"github.com/forPelevin/trendclip/internal/types"
)

var (
	ErrNoOccurrence   = errors.New("keyword not found in transcript")
	ErrInvertedWindow = errors.New("window upper bound precedes lower bound")
	ErrUnsafeKeyword  = errors.New("keyword cannot be encoded in a clip filename")
)

// Keywords end up as the leading token of "{word}_clip_{n}.mp4". Letters
// and digits of any script are allowed.
var reSafeWord = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_]+$`)

// SafeWord reports whether word survives the clip filename round trip.
func SafeWord(word string) bool { return reSafeWord.MatchString(word) }

// Window builds the raw symmetric window around occ and pulls each edge
// outward to the nearest transcript boundary. An edge with no boundary on its
// side keeps its raw value.
func Window(idx *transcript.Index, occ types.KeywordOccurrence, timeRange float64) (types.TimeWindow, error) {
	if timeRange < 0 || math.IsNaN(timeRange) || math.IsInf(timeRange, 0) {
		return types.TimeWindow{}, fmt.Errorf("invalid time range %v", timeRange)
	}
	half := timeRange / 2
	rawLower := math.Max(0, occ.Start-half)
	rawUpper := occ.Start + half

	lower := idx.BoundaryAtOrBefore(rawLower)
	upper := idx.BoundaryAtOrAfter(rawUpper)
	// Segments that start before zero can only come from broken transcripts.
	if lower < 0 {
		lower = rawLower
	}
	if upper < lower || occ.Start < lower {
		return types.TimeWindow{}, fmt.Errorf("%w: [%.3f, %.3f] around %.3f", ErrInvertedWindow, lower, upper, occ.Start)
	}

	return types.TimeWindow{
		Word:          occ.Word,
		OriginalStart: occ.Start,
		LowerBound:    lower,
		UpperBound:    upper,
	}, nil
}

// Keyword locates the first occurrence of word and aligns a window around it.
func Keyword(idx *transcript.Index, word string, timeRange float64) (types.TimeWindow, error) {
	if !SafeWord(word) {
		return types.TimeWindow{}, fmt.Errorf("%w: %q", ErrUnsafeKeyword, word)
	}
	occ, ok := idx.FirstOccurrence(word)
	if !ok {
		return types.TimeWindow{}, fmt.Errorf("%w: %q", ErrNoOccurrence, word)
	}
	return Window(idx, occ, timeRange)
}
