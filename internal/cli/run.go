package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/trendclip/internal/config"
	"github.com/forPelevin/trendclip/internal/logging"
	"github.com/forPelevin/trendclip/internal/pipeline"
	"github.com/forPelevin/trendclip/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/trendclip/internal/store"
	"github.com/forPelevin/trendclip/internal/types"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Align keywords, extract clips and burn captions in one pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			m, err := pipeline.Run(ctx, cfg)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), m.Summary)
			fmt.Fprintf(cmd.OutOrStdout(), "manifest: %s\n", cfg.ManifestPath())
			return nil
		},
	}
	addTranscriptFlag(cmd)
	addKeywordFlags(cmd)
	addSourceFlag(cmd)
	addCaptionFlags(cmd)
	return cmd
}

func addTranscriptFlag(cmd *cobra.Command) {
	cmd.Flags().String("transcript", "", "Transcript JSON ([{text,start,duration}])")
}

func addKeywordFlags(cmd *cobra.Command) {
	cmd.Flags().String("keywords", "", "Comma separated keywords")
	cmd.Flags().String("keywords-csv", "", "Scored keyword table with Item,Value columns")
	cmd.Flags().Int("top", 0, "Keywords taken from --keywords-csv by highest Value")
	cmd.Flags().Float64("range", 0, "Window width in seconds around each keyword")
}

func addSourceFlag(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "Source video")
}

func addCaptionFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("subtitles", false, "Also write an ASS subtitle file next to each captioned clip")
	cmd.Flags().String("font", "", "TTF/OTF font for captions (default: built-in Go Regular)")
}

// buildConfig layers flags over the config file and returns a pipeline config.
func buildConfig(cmd *cobra.Command) (pipeline.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	fc, err := config.Load(path)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		fc.OutDir, _ = flags.GetString("out")
	}
	if flags.Changed("concurrency") {
		fc.Concurrency, _ = flags.GetInt("concurrency")
	}
	if f := flags.Lookup("top"); f != nil && f.Changed {
		fc.TopN, _ = flags.GetInt("top")
	}
	if f := flags.Lookup("range"); f != nil && f.Changed {
		fc.TimeRange, _ = flags.GetFloat64("range")
	}
	if f := flags.Lookup("subtitles"); f != nil && f.Changed {
		fc.Captions.Subtitles, _ = flags.GetBool("subtitles")
	}
	if f := flags.Lookup("font"); f != nil && f.Changed {
		fc.Captions.FontPath, _ = flags.GetString("font")
	}
	if err := fc.Validate(); err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}

	logging.Init(verbose, fc.Logging.Format)

	style, err := fc.Style()
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("config: %w", err)
	}

	cfg := pipeline.Config{
		TopN:        fc.TopN,
		TimeRange:   fc.TimeRange,
		OutDir:      fc.OutDir,
		Concurrency: fc.Concurrency,
		Subtitles:   fc.Captions.Subtitles,
		Style:       style,
		FFmpegPath:  fc.FFmpeg.BinaryPath,
		FFprobePath: fc.FFmpeg.ProbePath,
		Encoding: ffmpeg.Encoding{
			VideoCodec: fc.FFmpeg.VideoCodec,
			AudioCodec: fc.FFmpeg.AudioCodec,
			Preset:     fc.FFmpeg.Preset,
			CRF:        fc.FFmpeg.CRF,
		},
		Log: logging.WithComponent(cmd.Name()),
	}

	if cfg.Transcript, err = absFlag(cmd, "transcript"); err != nil {
		return cfg, err
	}
	if cfg.Source, err = absFlag(cmd, "source"); err != nil {
		return cfg, err
	}
	if cfg.KeywordsCSV, err = absFlag(cmd, "keywords-csv"); err != nil {
		return cfg, err
	}
	if f := flags.Lookup("keywords"); f != nil {
		cfg.Keywords = store.SplitList(f.Value.String())
	}
	return cfg, nil
}

// absFlag returns the absolute form of a path flag, or "" when the command
// has no such flag or it is unset.
func absFlag(cmd *cobra.Command, name string) (string, error) {
	f := cmd.Flags().Lookup(name)
	if f == nil || f.Value.String() == "" {
		return "", nil
	}
	return filepath.Abs(f.Value.String())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printSummary(w io.Writer, sum map[types.Stage]types.Summary) {
	for _, st := range []types.Stage{types.StageAlign, types.StageExtract, types.StageCaption} {
		s, ok := sum[st]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "%-8s ok=%d skipped=%d failed=%d\n", st, s.Succeeded, s.Skipped, s.Failed)
	}
}

func printOutcomes(w io.Writer, outs []types.Outcome) {
	for _, o := range outs {
		if o.Status == types.StatusOK {
			continue
		}
		name := o.Word
		if o.File != "" {
			name = filepath.Base(o.File)
		}
		fmt.Fprintf(w, "%-8s %s: %s\n", o.Status, name, o.Reason)
	}
}
