package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	plansLimit  int
	plansID     string
	plansOutput string
)

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "List or show persisted promotion plans",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "plans: init store")
		}
		defer st.Close() //nolint:errcheck

		if plansID != "" {
			plan, err := st.GetPlan(ctx, plansID)
			if err != nil {
				return eris.Wrap(err, "plans: get")
			}
			return printJSON(plan, plansOutput)
		}

		plans, err := st.ListPlans(ctx, plansLimit)
		if err != nil {
			return eris.Wrap(err, "plans: list")
		}
		return printJSON(plans, plansOutput)
	},
}

func init() {
	plansCmd.Flags().IntVar(&plansLimit, "limit", 20, "max plans to list")
	plansCmd.Flags().StringVar(&plansID, "id", "", "show a single plan by ID")
	plansCmd.Flags().StringVar(&plansOutput, "output", "", "write JSON to file (default: stdout)")
	rootCmd.AddCommand(plansCmd)
}
