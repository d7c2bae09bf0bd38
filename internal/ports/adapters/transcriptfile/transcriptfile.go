// Package transcriptfile loads timed transcripts written by an external
// speech-to-text step.
package transcriptfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/forPelevin/trendclip/internal/types"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

// Load reads either a bare JSON array of {text,start,duration} objects or an
// object holding that array under "segments".
func (a *Adapter) Load(ctx context.Context, path string) ([]types.TranscriptSegment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	segs, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", path, err)
	}
	return segs, nil
}

func Decode(b []byte) ([]types.TranscriptSegment, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	var segs []types.TranscriptSegment
	if b[0] == '{' {
		var doc struct {
			Segments []types.TranscriptSegment `json:"segments"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
		segs = doc.Segments
	} else if err := json.Unmarshal(b, &segs); err != nil {
		return nil, err
	}

	for i := range segs {
		segs[i].Text = strings.TrimSpace(segs[i].Text)
		s := segs[i]
		if math.IsNaN(s.Start) || math.IsInf(s.Start, 0) || s.Start < 0 {
			return nil, fmt.Errorf("segment %d: bad start %v", i, s.Start)
		}
		if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration < 0 {
			return nil, fmt.Errorf("segment %d: bad duration %v", i, s.Duration)
		}
	}
	return segs, nil
}
