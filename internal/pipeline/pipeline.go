package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/trendclip/internal/domain/clipname"
	"github.com/forPelevin/trendclip/internal/domain/overlay"
	"github.com/forPelevin/trendclip/internal/ports"
	"github.com/forPelevin/trendclip/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/trendclip/internal/ports/adapters/transcriptfile"
	"github.com/forPelevin/trendclip/internal/store"
	"github.com/forPelevin/trendclip/internal/types"
	"github.com/forPelevin/trendclip/internal/usecase"
	"github.com/forPelevin/trendclip/internal/watch"
)

const (
	WindowsFile  = "adjusted_timestamps.csv"
	ClipsDir     = "clips"
	ManifestFile = "manifest.json"
)

type Config struct {
	Transcript  string
	Source      string
	Keywords    []string
	KeywordsCSV string
	TopN        int
	TimeRange   float64

	// OutDir holds the window table, the clips directory and the manifest.
	OutDir      string
	Concurrency int
	Subtitles   bool
	Style       overlay.Style

	FFmpegPath  string
	FFprobePath string
	Encoding    ffmpeg.Encoding

	Log zerolog.Logger
}

func (c Config) WindowsPath() string  { return filepath.Join(c.outDir(), WindowsFile) }
func (c Config) ClipsPath() string    { return filepath.Join(c.outDir(), ClipsDir) }
func (c Config) ManifestPath() string { return filepath.Join(c.outDir(), ManifestFile) }

func (c Config) outDir() string {
	if c.OutDir == "" {
		return "out"
	}
	return c.OutDir
}

// Validate checks everything a full run needs.
func (c Config) Validate() error {
	if err := c.validateAlign(); err != nil {
		return err
	}
	return c.validateSource()
}

func (c Config) validateAlign() error {
	if err := c.validateTranscript(); err != nil {
		return err
	}
	if len(c.Keywords) == 0 && c.KeywordsCSV == "" {
		return errors.New("keywords are empty: pass a list or a keywords CSV")
	}
	if len(c.Keywords) == 0 {
		if _, err := os.Stat(c.KeywordsCSV); err != nil {
			return fmt.Errorf("stat keywords csv: %w", err)
		}
		if c.TopN <= 0 {
			return fmt.Errorf("top must be > 0")
		}
	}
	if !(c.TimeRange > 0) {
		return fmt.Errorf("time range must be > 0")
	}
	return nil
}

func (c Config) validateTranscript() error {
	if c.Transcript == "" {
		return errors.New("transcript is empty")
	}
	if _, err := os.Stat(c.Transcript); err != nil {
		return fmt.Errorf("stat transcript: %w", err)
	}
	return nil
}

func (c Config) validateSource() error {
	if c.Source == "" {
		return errors.New("source video is empty")
	}
	if _, err := os.Stat(c.Source); err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	return nil
}

func newUsecase(cfg Config) usecase.Usecase {
	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, cfg.Encoding)
	return usecase.New(usecase.Deps{Video: v, Frames: v, Log: cfg.Log})
}

func inputErr(what string, err error) error {
	return &usecase.InputError{What: what, Err: err}
}

// Run executes align, extract and caption in sequence and writes the window
// table and manifest. Only input errors are returned; per-keyword and per-clip
// failures are recorded in the manifest.
func Run(ctx context.Context, cfg Config) (types.Manifest, error) {
	if err := cfg.Validate(); err != nil {
		return types.Manifest{}, inputErr("config", err)
	}
	uc := newUsecase(cfg)

	segs, aligned, err := align(ctx, cfg, uc)
	if err != nil {
		return types.Manifest{}, err
	}

	extracted, err := uc.Extract(ctx, usecase.ExtractInput{
		Source:   cfg.Source,
		Windows:  aligned.Windows,
		ClipsDir: cfg.ClipsPath(),
		Workers:  cfg.Concurrency,
	})
	if err != nil {
		return types.Manifest{}, err
	}

	paths := make([]string, len(extracted.Clips))
	for i, c := range extracted.Clips {
		paths[i] = c.Path
	}
	captioned := uc.Caption(ctx, usecase.CaptionInput{
		Segments:  segs,
		Windows:   aligned.Windows,
		Clips:     paths,
		Style:     cfg.Style,
		Subtitles: cfg.Subtitles,
		Workers:   cfg.Concurrency,
	})

	m := buildManifest(cfg, aligned, extracted, captioned)
	if err := store.WriteManifest(cfg.ManifestPath(), m); err != nil {
		return m, fmt.Errorf("write manifest: %w", err)
	}
	cfg.Log.Info().Str("path", cfg.ManifestPath()).Int("clips", len(m.Clips)).Msg("manifest written")
	return m, nil
}

// Align runs only the align stage and writes the window table.
func Align(ctx context.Context, cfg Config) (usecase.AlignResult, error) {
	if err := cfg.validateAlign(); err != nil {
		return usecase.AlignResult{}, inputErr("config", err)
	}
	_, res, err := align(ctx, cfg, newUsecase(cfg))
	return res, err
}

func align(ctx context.Context, cfg Config, uc usecase.Usecase) ([]types.TranscriptSegment, usecase.AlignResult, error) {
	segs, err := loadTranscript(ctx, transcriptfile.New(), cfg.Transcript)
	if err != nil {
		return nil, usecase.AlignResult{}, err
	}
	words, err := resolveKeywords(cfg)
	if err != nil {
		return nil, usecase.AlignResult{}, err
	}
	cfg.Log.Info().Int("segments", len(segs)).Strs("keywords", words).Msg("aligning keywords")

	res := uc.Align(ctx, usecase.AlignInput{Segments: segs, Keywords: words, TimeRange: cfg.TimeRange})
	if err := os.MkdirAll(cfg.outDir(), 0o755); err != nil {
		return nil, res, inputErr("out dir", err)
	}
	if err := store.WriteWindows(cfg.WindowsPath(), res.Windows); err != nil {
		return nil, res, fmt.Errorf("write windows: %w", err)
	}
	cfg.Log.Info().Str("path", cfg.WindowsPath()).Int("windows", len(res.Windows)).Msg("window table written")
	return segs, res, nil
}

// Extract trims clips for every row of the window table.
func Extract(ctx context.Context, cfg Config) (usecase.ExtractResult, error) {
	if err := cfg.validateSource(); err != nil {
		return usecase.ExtractResult{}, inputErr("config", err)
	}
	windows, err := store.ReadWindows(cfg.WindowsPath())
	if err != nil {
		return usecase.ExtractResult{}, inputErr("window table", err)
	}
	return newUsecase(cfg).Extract(ctx, usecase.ExtractInput{
		Source:   cfg.Source,
		Windows:  windows,
		ClipsDir: cfg.ClipsPath(),
		Workers:  cfg.Concurrency,
	})
}

// Caption captions the given clips, or every .mp4 in the clips directory
// when clips is empty.
func Caption(ctx context.Context, cfg Config, clips []string) (usecase.CaptionResult, error) {
	in, err := captionInput(ctx, cfg)
	if err != nil {
		return usecase.CaptionResult{}, err
	}
	if len(clips) == 0 {
		clips, err = listClips(cfg.ClipsPath())
		if err != nil {
			return usecase.CaptionResult{}, inputErr("clips dir", err)
		}
	}
	in.Clips = clips
	return newUsecase(cfg).Caption(ctx, in), nil
}

func captionInput(ctx context.Context, cfg Config) (usecase.CaptionInput, error) {
	if err := cfg.validateTranscript(); err != nil {
		return usecase.CaptionInput{}, inputErr("config", err)
	}
	segs, err := loadTranscript(ctx, transcriptfile.New(), cfg.Transcript)
	if err != nil {
		return usecase.CaptionInput{}, err
	}
	windows, err := store.ReadWindows(cfg.WindowsPath())
	if err != nil {
		return usecase.CaptionInput{}, inputErr("window table", err)
	}
	return usecase.CaptionInput{
		Segments:  segs,
		Windows:   windows,
		Style:     cfg.Style,
		Subtitles: cfg.Subtitles,
		Workers:   cfg.Concurrency,
	}, nil
}

func loadTranscript(ctx context.Context, src ports.TranscriptSource, path string) ([]types.TranscriptSegment, error) {
	segs, err := src.Load(ctx, path)
	if err != nil {
		return nil, inputErr("transcript", err)
	}
	return segs, nil
}

func resolveKeywords(cfg Config) ([]string, error) {
	if len(cfg.Keywords) > 0 {
		return cfg.Keywords, nil
	}
	ks, err := store.ReadKeywords(cfg.KeywordsCSV)
	if err != nil {
		return nil, inputErr("keywords", err)
	}
	return store.TopN(ks, cfg.TopN), nil
}

func listClips(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != clipname.Ext || e.Name()[0] == '.' {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func buildManifest(cfg Config, a usecase.AlignResult, e usecase.ExtractResult, c usecase.CaptionResult) types.Manifest {
	m := types.Manifest{
		Source:     cfg.Source,
		Transcript: cfg.Transcript,
		TimeRange:  cfg.TimeRange,
		Windows:    a.Windows,
		Summary:    map[types.Stage]types.Summary{},
	}
	capOuts := c.Outcomes()
	m.Outcomes = append(m.Outcomes, a.Outcomes...)
	m.Outcomes = append(m.Outcomes, e.Outcomes...)
	m.Outcomes = append(m.Outcomes, capOuts...)
	m.Summary[types.StageAlign] = types.Summarize(a.Outcomes)
	m.Summary[types.StageExtract] = types.Summarize(e.Outcomes)
	m.Summary[types.StageCaption] = types.Summarize(capOuts)

	reports := map[string]usecase.CaptionReport{}
	for _, r := range c.Reports {
		reports[r.Outcome.File] = r
	}
	rel := func(p string) string {
		if r, err := filepath.Rel(cfg.outDir(), p); err == nil {
			return filepath.ToSlash(r)
		}
		return filepath.ToSlash(p)
	}
	for _, clip := range e.Clips {
		w, ok := store.NthWindow(a.Windows, clip.Word, clip.Index)
		if !ok {
			continue
		}
		mc := types.ManifestClip{
			Word:          clip.Word,
			Index:         clip.Index,
			File:          rel(clip.Path),
			OriginalStart: w.OriginalStart,
			LowerBound:    w.LowerBound,
			UpperBound:    w.UpperBound,
		}
		if r, ok := reports[clip.Path]; ok {
			mc.Captioned = r.Outcome.Status == types.StatusOK
			if r.Subtitles != "" {
				mc.Subtitles = rel(r.Subtitles)
			}
		}
		m.Clips = append(m.Clips, mc)
	}
	return m
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.FrameCodec = (*ffmpeg.Adapter)(nil)
var _ ports.TranscriptSource = (*transcriptfile.Adapter)(nil)

// WatchSettle is how long a new clip must sit before it is captioned.
const WatchSettle = 500 * time.Millisecond

// WatchCaptions captions clips as they appear in the clips directory until
// ctx ends. The window table is re-read for every clip so windows added by a
// concurrent extract are picked up.
func WatchCaptions(ctx context.Context, cfg Config) error {
	base, err := captionInput(ctx, cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ClipsPath(), 0o755); err != nil {
		return inputErr("clips dir", err)
	}
	uc := newUsecase(cfg)

	handler := func(ctx context.Context, path string) error {
		in := base
		if ws, err := store.ReadWindows(cfg.WindowsPath()); err == nil {
			in.Windows = ws
		} else {
			cfg.Log.Warn().Err(err).Msg("window table unreadable, using the copy read at startup")
		}
		rep := uc.ClipCaptioner(in).Caption(ctx, path)
		if rep.Outcome.Status == types.StatusFailed {
			return errors.New(rep.Outcome.Reason)
		}
		return nil
	}
	accept := func(path string) bool {
		_, err := clipname.Parse(path)
		return err == nil
	}

	w, err := watch.New(cfg.ClipsPath(), handler, watch.Options{
		Accept:        accept,
		Settle:        WatchSettle,
		MaxConcurrent: cfg.Concurrency,
	}, cfg.Log)
	if err != nil {
		return inputErr("clips dir", err)
	}
	defer w.Stop()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
