package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "promoplan",
	Short: "Retail promotion planning pipeline",
	Long:  "Ingests order history, summarizes per-product demand and pricing, solves the weekly promotion selection problem under a discount budget, and renders the plan as a manager brief.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
