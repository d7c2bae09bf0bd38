package transcript

import (
	"sort"
	"strings"

	"github.com/forPelevin/trendclip/internal/types"
)

// Index is a read-only, start-ordered view over transcript segments.
type Index struct {
	segs   []types.TranscriptSegment
	starts []float64 // sorted, parallel to segs
	lower  []string  // lowercased text, parallel to segs
}

// NewIndex copies segs and stable-sorts them by start, so equal or overlapping
// times keep their input order.
func NewIndex(segs []types.TranscriptSegment) *Index {
	cp := make([]types.TranscriptSegment, len(segs))
	copy(cp, segs)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Start < cp[j].Start })

	idx := &Index{
		segs:   cp,
		starts: make([]float64, len(cp)),
		lower:  make([]string, len(cp)),
	}
	for i, s := range cp {
		idx.starts[i] = s.Start
		idx.lower[i] = strings.ToLower(s.Text)
	}
	return idx
}

// FirstOccurrence returns the start of the earliest segment whose text
// contains word, compared case-insensitively as a substring.
func (x *Index) FirstOccurrence(word string) (types.KeywordOccurrence, bool) {
	needle := strings.ToLower(strings.TrimSpace(word))
	if needle == "" {
		return types.KeywordOccurrence{}, false
	}
	for i, text := range x.lower {
		if strings.Contains(text, needle) {
			return types.KeywordOccurrence{Word: word, Start: x.segs[i].Start}, true
		}
	}
	return types.KeywordOccurrence{}, false
}

// BoundaryAtOrBefore returns the greatest segment start <= t, or t itself
// when no segment starts that early.
func (x *Index) BoundaryAtOrBefore(t float64) float64 {
	// first start > t
	i := sort.Search(len(x.starts), func(i int) bool { return x.starts[i] > t })
	if i == 0 {
		return t
	}
	return x.starts[i-1]
}

// BoundaryAtOrAfter returns the smallest segment start >= t, or t itself
// when no segment starts that late.
func (x *Index) BoundaryAtOrAfter(t float64) float64 {
	i := sort.SearchFloat64s(x.starts, t)
	if i == len(x.starts) {
		return t
	}
	return x.starts[i]
}

// Overlapping returns every segment whose closed interval [start, end]
// intersects [lower, upper]. Touching endpoints count as overlap.
func (x *Index) Overlapping(lower, upper float64) []types.TranscriptSegment {
	var out []types.TranscriptSegment
	for _, s := range x.segs {
		if s.Start > upper {
			break
		}
		if s.End() >= lower {
			out = append(out, s)
		}
	}
	return out
}
