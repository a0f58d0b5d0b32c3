package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/dataset"
	"github.com/northcart/promoplan/internal/summary"
)

var (
	summaryDataDir string
	summaryTopK    int
	summaryOutput  string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Build and print the product summary table",
	Long: `Loads the order CSVs and prints the per-product summary the optimizer
consumes (average price, weekly demand, discounted price, promoted demand)
without solving. Useful for inspecting optimizer inputs or producing a
fixture for 'promoplan optimize'.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if summaryTopK > 0 {
			cfg.Summary.TopK = summaryTopK
		}
		dir := cfg.Data.Dir
		if summaryDataDir != "" {
			dir = summaryDataDir
		}

		lines, err := dataset.NewLoader(nil).Load(ctx, dir)
		if err != nil {
			return eris.Wrap(err, "summary: load dataset")
		}

		summaries, err := summary.Build(lines, newPolicy())
		if err != nil {
			return eris.Wrap(err, "summary: build")
		}

		zap.L().Info("summary: built", zap.Int("candidates", len(summaries)))
		return printJSON(summaries, summaryOutput)
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryDataDir, "data-dir", "", "directory of order CSVs (default from config)")
	summaryCmd.Flags().IntVar(&summaryTopK, "top-k", 0, "candidate count override (default from config)")
	summaryCmd.Flags().StringVar(&summaryOutput, "output", "", "write JSON to file (default: stdout)")
	rootCmd.AddCommand(summaryCmd)
}
