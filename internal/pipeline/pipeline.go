// Package pipeline wires the planning stages together: dataset load,
// product summary construction, promotion optimization, brief rendering,
// and plan persistence.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/brief"
	"github.com/northcart/promoplan/internal/dataset"
	"github.com/northcart/promoplan/internal/promo"
	"github.com/northcart/promoplan/internal/store"
	"github.com/northcart/promoplan/internal/summary"
)

// Pipeline executes one full planning run per invocation. It holds no
// per-run state; concurrent runs build independent summaries and solve
// independent models.
type Pipeline struct {
	loader    *dataset.Loader
	policy    summary.Policy
	optimizer *promo.Optimizer
	renderer  brief.Renderer
	fallback  *brief.TemplateRenderer
	store     store.Store
	useCache  bool
}

// Options configures a Pipeline.
type Options struct {
	Loader    *dataset.Loader
	Policy    summary.Policy
	Optimizer *promo.Optimizer
	// Renderer generates the plan brief; nil means the template renderer.
	Renderer brief.Renderer
	// Store persists plans and memoized results; nil disables persistence.
	Store store.Store
	// UseCache consults the store's result cache before solving.
	UseCache bool
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		loader:    opts.Loader,
		policy:    opts.Policy,
		optimizer: opts.Optimizer,
		renderer:  opts.Renderer,
		fallback:  brief.NewTemplateRenderer(),
		store:     opts.Store,
		useCache:  opts.UseCache && opts.Store != nil,
	}
	if p.loader == nil {
		p.loader = dataset.NewLoader(nil)
	}
	if p.optimizer == nil {
		p.optimizer = promo.NewOptimizer(0, 0)
	}
	if p.renderer == nil {
		p.renderer = p.fallback
	}
	return p
}

// Run executes the full pipeline against the CSV directory and returns the
// persisted plan. A renderer failure downgrades to the template brief
// rather than failing the run; optimizer and builder failures propagate.
func (p *Pipeline) Run(ctx context.Context, dir string, budget float64) (*promo.Plan, error) {
	lines, err := p.loader.Load(ctx, dir)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load dataset")
	}

	summaries, err := summary.Build(lines, p.policy)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: build summary")
	}

	result, err := p.Solve(ctx, summaries, budget)
	if err != nil {
		return nil, err
	}

	plan := &promo.Plan{
		Budget:  budget,
		Summary: summaries,
		Result:  result,
	}
	plan.Brief = p.renderBrief(ctx, plan)

	if p.store != nil {
		if err := p.store.CreatePlan(ctx, plan); err != nil {
			return nil, eris.Wrap(err, "pipeline: persist plan")
		}
	}
	return plan, nil
}

// Solve runs the optimizer for prepared summaries, going through the
// memoization cache when one is configured.
func (p *Pipeline) Solve(ctx context.Context, summaries []promo.ProductSummary, budget float64) (*promo.Result, error) {
	var fingerprint string
	if p.useCache {
		fingerprint = promo.Fingerprint(summaries, budget)
		cached, err := p.store.GetCachedResult(ctx, fingerprint)
		if err != nil {
			zap.L().Warn("pipeline: cache lookup failed", zap.Error(err))
		} else if cached != nil {
			zap.L().Info("pipeline: cache hit", zap.String("fingerprint", fingerprint[:12]))
			return cached, nil
		}
	}

	result, err := p.optimizer.Optimize(ctx, summaries, budget)
	if err != nil {
		return nil, err
	}

	if p.useCache {
		if err := p.store.PutCachedResult(ctx, fingerprint, result); err != nil {
			zap.L().Warn("pipeline: cache store failed", zap.Error(err))
		}
	}
	return result, nil
}

func (p *Pipeline) renderBrief(ctx context.Context, plan *promo.Plan) string {
	text, err := p.renderer.Render(ctx, plan)
	if err == nil {
		return text
	}
	zap.L().Warn("pipeline: renderer failed, falling back to template", zap.Error(err))
	text, err = p.fallback.Render(ctx, plan)
	if err != nil {
		zap.L().Error("pipeline: template fallback failed", zap.Error(err))
		return ""
	}
	return text
}
