package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/brief"
	"github.com/northcart/promoplan/internal/pipeline"
	"github.com/northcart/promoplan/internal/promo"
	"github.com/northcart/promoplan/internal/store"
	"github.com/northcart/promoplan/internal/summary"
)

// newPolicy builds the candidate policy from config.
func newPolicy() summary.Policy {
	return summary.Policy{
		TopK:         cfg.Summary.TopK,
		DiscountRate: cfg.Summary.DiscountRate,
		DemandUplift: cfg.Summary.DemandUplift,
	}
}

// newOptimizer builds the solver from config.
func newOptimizer() *promo.Optimizer {
	return promo.NewOptimizer(
		cfg.Optimizer.MaxNodes,
		time.Duration(cfg.Optimizer.TimeoutSecs)*time.Second,
	)
}

// newRenderer selects the brief renderer. The Claude renderer needs an API
// key; without one the run downgrades to the offline template with a
// warning instead of failing.
func newRenderer() brief.Renderer {
	if cfg.Brief.Renderer != "claude" {
		return brief.NewTemplateRenderer()
	}
	if cfg.Anthropic.Key == "" {
		zap.L().Warn("PROMO_ANTHROPIC_KEY not set, using template renderer")
		return brief.NewTemplateRenderer()
	}
	client := brief.NewMessageClient(cfg.Anthropic.Key)
	return brief.NewClaudeRenderer(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)
}

// openStore opens and migrates the plan database.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// newPipeline assembles the full pipeline on top of an open store.
func newPipeline(st store.Store, useCache bool) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Policy:    newPolicy(),
		Optimizer: newOptimizer(),
		Renderer:  newRenderer(),
		Store:     st,
		UseCache:  useCache,
	})
}

// printJSON writes v as indented JSON to stdout or, when path is non-empty,
// to the named file.
func printJSON(v any, path string) error {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close() //nolint:errcheck
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
