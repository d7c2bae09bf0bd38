package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forPelevin/trendclip/internal/pipeline"
	"github.com/forPelevin/trendclip/internal/types"
)

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align",
		Short: "Write the window table for each keyword found in the transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			res, err := pipeline.Align(ctx, cfg)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), res.Outcomes)
			printSummary(cmd.OutOrStdout(), map[types.Stage]types.Summary{types.StageAlign: types.Summarize(res.Outcomes)})
			fmt.Fprintf(cmd.OutOrStdout(), "windows: %s\n", cfg.WindowsPath())
			return nil
		},
	}
	addTranscriptFlag(cmd)
	addKeywordFlags(cmd)
	return cmd
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Trim one clip per row of the window table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			res, err := pipeline.Extract(ctx, cfg)
			if err != nil {
				return err
			}
			printOutcomes(cmd.OutOrStdout(), res.Outcomes)
			printSummary(cmd.OutOrStdout(), map[types.Stage]types.Summary{types.StageExtract: types.Summarize(res.Outcomes)})
			return nil
		},
	}
	addSourceFlag(cmd)
	return cmd
}

func newCaptionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caption [clip...]",
		Short: "Burn captions into clips (all clips in the output directory by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			if watch, _ := cmd.Flags().GetBool("watch"); watch {
				if len(args) > 0 {
					return fmt.Errorf("--watch does not take clip arguments")
				}
				return pipeline.WatchCaptions(ctx, cfg)
			}

			res, err := pipeline.Caption(ctx, cfg, args)
			if err != nil {
				return err
			}
			outs := res.Outcomes()
			printOutcomes(cmd.OutOrStdout(), outs)
			printSummary(cmd.OutOrStdout(), map[types.Stage]types.Summary{types.StageCaption: types.Summarize(outs)})
			return nil
		},
	}
	addTranscriptFlag(cmd)
	addCaptionFlags(cmd)
	cmd.Flags().Bool("watch", false, "Keep running and caption clips as they appear")
	return cmd
}
