package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/forPelevin/trendclip/internal/store"
	"github.com/forPelevin/trendclip/internal/types"
	"github.com/forPelevin/trendclip/internal/usecase"
)

const transcriptJSON = `[
  {"text": "intro", "start": 0, "duration": 4},
  {"text": "the budget is tight", "start": 5, "duration": 4},
  {"text": "we need funding", "start": 10, "duration": 4},
  {"text": "outro", "start": 20, "duration": 4}
]`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestConfigValidate(t *testing.T) {
	dir := t.TempDir()
	tr := writeFile(t, dir, "t.json", transcriptJSON)
	src := writeFile(t, dir, "in.mp4", "")
	kw := writeFile(t, dir, "kw.csv", "Item,Value\nfunding,3\n")

	base := Config{Transcript: tr, Source: src, Keywords: []string{"funding"}, TimeRange: 10}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid list", func(c *Config) {}, false},
		{"valid csv", func(c *Config) { c.Keywords = nil; c.KeywordsCSV = kw; c.TopN = 5 }, false},
		{"csv needs top", func(c *Config) { c.Keywords = nil; c.KeywordsCSV = kw }, true},
		{"no keywords", func(c *Config) { c.Keywords = nil }, true},
		{"missing transcript", func(c *Config) { c.Transcript = filepath.Join(dir, "nope.json") }, true},
		{"missing source", func(c *Config) { c.Source = "" }, true},
		{"zero range", func(c *Config) { c.TimeRange = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlign_WritesWindowTable(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		Transcript:  writeFile(t, dir, "t.json", transcriptJSON),
		KeywordsCSV: writeFile(t, dir, "kw.csv", "Item,Value\nrocket,9\nfunding,7\nbudget,1\n"),
		TopN:        2,
		TimeRange:   10,
		OutDir:      filepath.Join(dir, "out"),
		Log:         zerolog.Nop(),
	}

	res, err := Align(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	// top 2 are rocket (absent) and funding
	if len(res.Outcomes) != 2 || res.Outcomes[0].Status != types.StatusSkipped {
		t.Fatalf("unexpected outcomes %+v", res.Outcomes)
	}
	ws, err := store.ReadWindows(cfg.WindowsPath())
	if err != nil {
		t.Fatal(err)
	}
	want := []types.TimeWindow{{Word: "funding", OriginalStart: 10, LowerBound: 5, UpperBound: 20}}
	if !reflect.DeepEqual(ws, want) {
		t.Fatalf("window table = %+v, want %+v", ws, want)
	}
}

func TestRun_InputErrorsAreFatal(t *testing.T) {
	dir := t.TempDir()
	_, err := Run(context.Background(), Config{
		Transcript: filepath.Join(dir, "missing.json"),
		Source:     writeFile(t, dir, "in.mp4", ""),
		Keywords:   []string{"x"},
		TimeRange:  10,
		OutDir:     dir,
	})
	var ierr *usecase.InputError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InputError, got %v", err)
	}

	_, err = Run(context.Background(), Config{
		Transcript: writeFile(t, dir, "bad.json", "{not json"),
		Source:     writeFile(t, dir, "in2.mp4", ""),
		Keywords:   []string{"x"},
		TimeRange:  10,
		OutDir:     dir,
		Log:        zerolog.Nop(),
	})
	if !errors.As(err, &ierr) || ierr.What != "transcript" {
		t.Fatalf("expected transcript InputError, got %v", err)
	}
}

func TestExtract_MissingWindowTable(t *testing.T) {
	dir := t.TempDir()
	_, err := Extract(context.Background(), Config{
		Source: writeFile(t, dir, "in.mp4", ""),
		OutDir: filepath.Join(dir, "out"),
	})
	var ierr *usecase.InputError
	if !errors.As(err, &ierr) || ierr.What != "window table" {
		t.Fatalf("expected window table InputError, got %v", err)
	}
}

func TestListClips(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b_clip_1.mp4", "a_clip_1.mp4", ".a_clip_1.mp4.x.video.mp4", "notes.txt"} {
		writeFile(t, dir, n, "")
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := listClips(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a_clip_1.mp4"), filepath.Join(dir, "b_clip_1.mp4")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("listClips = %v, want %v", got, want)
	}
}

func TestBuildManifest(t *testing.T) {
	cfg := Config{Source: "in.mp4", Transcript: "t.json", TimeRange: 10, OutDir: "out"}
	clipPath := filepath.Join("out", "clips", "funding_clip_1.mp4")
	a := usecase.AlignResult{
		Windows: []types.TimeWindow{{Word: "funding", OriginalStart: 10, LowerBound: 5, UpperBound: 20}},
		Outcomes: []types.Outcome{
			{Stage: types.StageAlign, Word: "funding", Status: types.StatusOK},
			{Stage: types.StageAlign, Word: "rocket", Status: types.StatusSkipped},
		},
	}
	e := usecase.ExtractResult{
		Clips:    []types.Clip{{Word: "funding", Index: 1, Path: clipPath}},
		Outcomes: []types.Outcome{{Stage: types.StageExtract, Word: "funding", Index: 1, File: clipPath, Status: types.StatusOK}},
	}
	c := usecase.CaptionResult{Reports: []usecase.CaptionReport{{
		Outcome:   types.Outcome{Stage: types.StageCaption, Word: "funding", Index: 1, File: clipPath, Status: types.StatusOK},
		Subtitles: filepath.Join("out", "clips", "funding_clip_1.ass"),
	}}}

	m := buildManifest(cfg, a, e, c)
	if len(m.Clips) != 1 || len(m.Outcomes) != 4 {
		t.Fatalf("unexpected manifest %+v", m)
	}
	mc := m.Clips[0]
	if mc.File != "clips/funding_clip_1.mp4" || mc.Subtitles != "clips/funding_clip_1.ass" || !mc.Captioned {
		t.Fatalf("unexpected clip entry %+v", mc)
	}
	if mc.LowerBound != 5 || mc.UpperBound != 20 {
		t.Fatalf("window not copied: %+v", mc)
	}
	if s := m.Summary[types.StageAlign]; s.Succeeded != 1 || s.Skipped != 1 {
		t.Fatalf("unexpected align summary %+v", s)
	}
	if s := m.Summary[types.StageCaption]; s.Succeeded != 1 {
		t.Fatalf("unexpected caption summary %+v", s)
	}
}
