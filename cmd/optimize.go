package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/northcart/promoplan/internal/promo"
)

var (
	optimizeInput  string
	optimizeBudget float64
	optimizeOutput string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Solve a promotion selection problem from a summary file",
	Long: `Reads a product summary JSON file (as produced by 'promoplan summary')
and solves the promotion selection problem for the given budget. This runs
the optimizer in isolation, without the dataset or the stored plan history.

Example:
  promoplan summary --data-dir data --output summary.json
  promoplan optimize --input summary.json --budget 500`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := os.ReadFile(optimizeInput)
		if err != nil {
			return eris.Wrap(err, "optimize: read input")
		}
		var summaries []promo.ProductSummary
		if err := json.Unmarshal(data, &summaries); err != nil {
			return eris.Wrap(err, "optimize: parse input")
		}

		budget := cfg.Optimizer.Budget
		if cmd.Flags().Changed("budget") {
			budget = optimizeBudget
		}

		result, err := newOptimizer().Optimize(cmd.Context(), summaries, budget)
		if err != nil {
			return eris.Wrap(err, "optimize")
		}
		return printJSON(result, optimizeOutput)
	},
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeInput, "input", "", "product summary JSON file (required)")
	optimizeCmd.Flags().Float64Var(&optimizeBudget, "budget", 0, "weekly discount budget (default from config)")
	optimizeCmd.Flags().StringVar(&optimizeOutput, "output", "", "write result JSON to file (default: stdout)")
	_ = optimizeCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(optimizeCmd)
}
