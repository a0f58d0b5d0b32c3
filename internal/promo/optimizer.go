package promo

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/bip"
)

// Optimizer solves promotion selection problems. It holds no per-solve
// state: one Optimizer may serve concurrent solves, each building its own
// formulation.
type Optimizer struct {
	maxNodes int64
	timeout  time.Duration
}

// NewOptimizer creates an Optimizer. maxNodes bounds the branch-and-bound
// search (0 = solver default); timeout bounds wall-clock solve time
// (0 = no timeout beyond the caller's context).
func NewOptimizer(maxNodes int64, timeout time.Duration) *Optimizer {
	return &Optimizer{maxNodes: maxNodes, timeout: timeout}
}

// formulation holds the precomputed linear coefficients for one product.
// Revenue is base + x*delta for the binary choice x; cost is charged at the
// promoted demand level, a deliberate policy carried over from the original
// planning model.
type formulation struct {
	base  float64 // avg_price * weekly_demand, revenue if not promoted
	delta float64 // promo revenue minus base revenue
	cost  float64 // (avg_price - discount_price) * promo_demand
}

// Optimize selects the revenue-maximizing subset of products to promote
// under the discount budget. The solve is exact; on success the result is
// deterministic for identical inputs. Failures wrap ErrInvalidInput,
// ErrInfeasible, or ErrSolverFailure.
func (o *Optimizer) Optimize(ctx context.Context, summaries []ProductSummary, budget float64) (*Result, error) {
	if err := ValidateSummaries(summaries); err != nil {
		return nil, err
	}
	if math.IsNaN(budget) || math.IsInf(budget, 0) {
		return nil, eris.Wrap(ErrInvalidInput, "promo: budget must be finite")
	}
	if budget < 0 {
		return nil, eris.Wrapf(ErrInfeasible, "promo: negative budget %.4f", budget)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	items := make([]bip.Item, len(summaries))
	var baseRevenue float64
	for i, s := range summaries {
		f := formulate(s)
		baseRevenue += f.base
		items[i] = bip.Item{ID: s.ProductID, Value: f.delta, Weight: f.cost}
	}

	start := time.Now()
	sol, err := bip.Solve(ctx, items, budget, bip.Options{MaxNodes: o.maxNodes})
	if err != nil {
		return nil, eris.Wrapf(ErrSolverFailure, "promo: solve: %v", err)
	}

	promoted := make([]string, 0, len(sol.Chosen))
	var cost float64
	for _, idx := range sol.Chosen {
		promoted = append(promoted, summaries[idx].ProductID)
		cost += formulate(summaries[idx]).cost
	}

	result := &Result{
		PromotedProducts: promoted,
		ExpectedRevenue:  baseRevenue + sol.Objective,
		DiscountCost:     cost,
		Status:           StatusOptimal,
	}

	zap.L().Info("promo: solved",
		zap.Int("candidates", len(summaries)),
		zap.Float64("budget", budget),
		zap.Int("promoted", len(promoted)),
		zap.Float64("expected_revenue", result.ExpectedRevenue),
		zap.Float64("discount_cost", result.DiscountCost),
		zap.Int64("nodes", sol.Nodes),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

func formulate(s ProductSummary) formulation {
	base := s.AvgPrice * s.WeeklyDemandForecast
	promoRev := s.DiscountPrice * s.PromoDemandForecast
	return formulation{
		base:  base,
		delta: promoRev - base,
		cost:  (s.AvgPrice - s.DiscountPrice) * s.PromoDemandForecast,
	}
}

// ValidateSummaries rejects malformed candidate rows before any solve is
// attempted: non-finite or negative numeric fields, a discount price above
// the average price, empty or duplicate product IDs.
func ValidateSummaries(summaries []ProductSummary) error {
	seen := make(map[string]struct{}, len(summaries))
	for i, s := range summaries {
		if s.ProductID == "" {
			return eris.Wrapf(ErrInvalidInput, "promo: row %d: empty product_id", i)
		}
		if _, dup := seen[s.ProductID]; dup {
			return eris.Wrapf(ErrInvalidInput, "promo: duplicate product_id %s", s.ProductID)
		}
		seen[s.ProductID] = struct{}{}

		fields := []struct {
			name  string
			value float64
		}{
			{"avg_price", s.AvgPrice},
			{"weekly_demand_forecast", s.WeeklyDemandForecast},
			{"discount_price", s.DiscountPrice},
			{"promo_demand_forecast", s.PromoDemandForecast},
		}
		for _, f := range fields {
			if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
				return eris.Wrapf(ErrInvalidInput, "promo: product %s: %s is not finite", s.ProductID, f.name)
			}
			if f.value < 0 {
				return eris.Wrapf(ErrInvalidInput, "promo: product %s: %s is negative (%.4f)", s.ProductID, f.name, f.value)
			}
		}
		if s.DiscountPrice > s.AvgPrice {
			return eris.Wrapf(ErrInvalidInput, "promo: product %s: discount_price %.4f exceeds avg_price %.4f",
				s.ProductID, s.DiscountPrice, s.AvgPrice)
		}
	}
	return nil
}
