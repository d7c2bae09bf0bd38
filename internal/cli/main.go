package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "trendclip",
		Short:        "Cut captioned clips around trending keywords in a long video",
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", "", "Config file (default: ./trendclip.yaml, ./config.yaml, ~/.trendclip/config.yaml or $TRENDCLIP_CONFIG)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
	root.PersistentFlags().String("out", "", "Output directory (window table, clips/, manifest.json)")
	root.PersistentFlags().Int("concurrency", 0, "Clips processed in parallel (0 = number of CPUs)")

	root.AddCommand(newRunCmd(), newAlignCmd(), newExtractCmd(), newCaptionCmd())
	return root
}
