package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runDataDir string
	runBudget  float64
	runTopK    int
	runOutput  string
	runNoCache bool
	runJSON    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full promotion planning pipeline",
	Long: `Loads the order CSVs, builds the product summary, solves the promotion
selection problem under the discount budget, renders the manager brief, and
persists the plan.

Examples:
  # Plan with config defaults
  promoplan run --data-dir data

  # Larger budget, top 10 candidates, JSON to file
  promoplan run --data-dir data --budget 1500 --top-k 10 --json --output plan.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if runTopK > 0 {
			cfg.Summary.TopK = runTopK
		}
		budget := cfg.Optimizer.Budget
		if cmd.Flags().Changed("budget") {
			budget = runBudget
		}

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "run: init store")
		}
		defer st.Close() //nolint:errcheck

		p := newPipeline(st, !runNoCache)
		dir := cfg.Data.Dir
		if runDataDir != "" {
			dir = runDataDir
		}

		plan, err := p.Run(ctx, dir, budget)
		if err != nil {
			return eris.Wrap(err, "run: pipeline")
		}

		zap.L().Info("run: plan complete",
			zap.String("plan_id", plan.ID),
			zap.Float64("budget", plan.Budget),
			zap.Strings("promoted", plan.Result.PromotedProducts),
			zap.Float64("expected_revenue", plan.Result.ExpectedRevenue),
			zap.Float64("discount_cost", plan.Result.DiscountCost),
		)

		if runJSON {
			return printJSON(plan, runOutput)
		}
		fmt.Fprintln(os.Stdout, plan.Brief)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "directory of order CSVs (default from config)")
	runCmd.Flags().Float64Var(&runBudget, "budget", 0, "weekly discount budget (default from config)")
	runCmd.Flags().IntVar(&runTopK, "top-k", 0, "candidate count override (default from config)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the full plan as JSON instead of the brief")
	runCmd.Flags().StringVar(&runOutput, "output", "", "write JSON output to file (default: stdout)")
	runCmd.Flags().BoolVar(&runNoCache, "no-cache", false, "skip the memoized result cache")
	rootCmd.AddCommand(runCmd)
}
