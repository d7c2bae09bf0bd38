package types

// TranscriptSegment is one timed unit of spoken text. Times are seconds.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

func (s TranscriptSegment) End() float64 { return s.Start + s.Duration }

type KeywordOccurrence struct {
	Word  string
	Start float64
}

// TimeWindow is the source interval selected for one clip.
// Valid windows satisfy 0 <= LowerBound <= OriginalStart <= UpperBound.
type TimeWindow struct {
	Word          string  `json:"word"`
	OriginalStart float64 `json:"original_start"`
	LowerBound    float64 `json:"lower_bound"`
	UpperBound    float64 `json:"upper_bound"`
}

func (w TimeWindow) Duration() float64 { return w.UpperBound - w.LowerBound }

// Clip identifies one extracted clip file. Index starts at 1.
type Clip struct {
	Word  string
	Index int
	Path  string
}

// CaptionSpan is a transcript segment in clip-local time.
type CaptionSpan struct {
	Text     string
	Start    float64
	Duration float64
}

func (c CaptionSpan) End() float64 { return c.Start + c.Duration }

// Keyword is one row of a scored keyword table.
type Keyword struct {
	Item  string
	Value float64
}

type VideoInfo struct {
	Path     string
	Duration float64
	Width    int
	Height   int
	FPS      float64
	HasAudio bool
}

type Stage string

const (
	StageAlign   Stage = "align"
	StageExtract Stage = "extract"
	StageCaption Stage = "caption"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the immutable result of one keyword or clip passing through a stage.
type Outcome struct {
	Stage  Stage  `json:"stage"`
	Word   string `json:"word,omitempty"`
	Index  int    `json:"index,omitempty"`
	File   string `json:"file,omitempty"`
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type Summary struct {
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func Summarize(outs []Outcome) Summary {
	var s Summary
	for _, o := range outs {
		switch o.Status {
		case StatusOK:
			s.Succeeded++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

type Manifest struct {
	Source     string            `json:"source,omitempty"`
	Transcript string            `json:"transcript"`
	TimeRange  float64           `json:"time_range"`
	Windows    []TimeWindow      `json:"windows"`
	Clips      []ManifestClip    `json:"clips"`
	Outcomes   []Outcome         `json:"outcomes"`
	Summary    map[Stage]Summary `json:"summary"`
}

type ManifestClip struct {
	Word          string  `json:"word"`
	Index         int     `json:"index"`
	File          string  `json:"file"`
	OriginalStart float64 `json:"original_start"`
	LowerBound    float64 `json:"lower_bound"`
	UpperBound    float64 `json:"upper_bound"`
	Captioned     bool    `json:"captioned"`
	Subtitles     string  `json:"subtitles,omitempty"`
}
