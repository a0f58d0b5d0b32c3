// Package summary derives per-product pricing and demand summaries from raw
// order lines: the input-preparation stage in front of the promotion
// optimizer.
package summary

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/dataset"
	"github.com/northcart/promoplan/internal/promo"
)

// Policy holds the business-policy knobs for candidate construction. The
// discount rate and demand uplift are policy, not structural constants, so
// they are always caller-supplied.
type Policy struct {
	// TopK is how many highest-revenue products become candidates.
	TopK int
	// DiscountRate is the promoted price as a fraction of average price,
	// in (0, 1].
	DiscountRate float64
	// DemandUplift is the multiplier applied to baseline weekly demand when
	// promoted. Must be positive.
	DemandUplift float64
}

// DefaultPolicy returns the reference policy: top 5 products, 10% discount,
// 20% demand uplift.
func DefaultPolicy() Policy {
	return Policy{TopK: 5, DiscountRate: 0.90, DemandUplift: 1.20}
}

func (p Policy) validate() error {
	if p.TopK <= 0 {
		return eris.Wrapf(promo.ErrConfiguration, "summary: top_k must be positive, got %d", p.TopK)
	}
	if p.DiscountRate <= 0 || p.DiscountRate > 1 {
		return eris.Wrapf(promo.ErrConfiguration, "summary: discount_rate must be in (0, 1], got %g", p.DiscountRate)
	}
	if p.DemandUplift <= 0 {
		return eris.Wrapf(promo.ErrConfiguration, "summary: demand_uplift must be positive, got %g", p.DemandUplift)
	}
	return nil
}

type productAgg struct {
	id       string
	revenue  float64
	count    int
	priceSum float64
}

// Build selects the top-K products by historical revenue and produces one
// ProductSummary per candidate, sorted by product ID. Weekly demand is the
// observed line count spread over the dataset's full date span; a span of
// zero or negative weeks is rejected rather than propagated as a division
// blow-up.
func Build(lines []dataset.OrderLine, policy Policy) ([]promo.ProductSummary, error) {
	if err := policy.validate(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, eris.Wrap(promo.ErrConfiguration, "summary: no order lines")
	}

	minTS, maxTS := lines[0].PurchasedAt, lines[0].PurchasedAt
	aggs := make(map[string]*productAgg)
	for _, line := range lines {
		if line.PurchasedAt.Before(minTS) {
			minTS = line.PurchasedAt
		}
		if line.PurchasedAt.After(maxTS) {
			maxTS = line.PurchasedAt
		}
		agg, ok := aggs[line.ProductID]
		if !ok {
			agg = &productAgg{id: line.ProductID}
			aggs[line.ProductID] = agg
		}
		agg.revenue += line.Price
		agg.priceSum += line.Price
		agg.count++
	}

	weeks := maxTS.Sub(minTS).Hours() / (24 * 7)
	if weeks <= 0 {
		return nil, eris.Wrapf(promo.ErrConfiguration,
			"summary: degenerate date span %s to %s", minTS.Format("2006-01-02"), maxTS.Format("2006-01-02"))
	}

	ranked := make([]*productAgg, 0, len(aggs))
	for _, agg := range aggs {
		ranked = append(ranked, agg)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].revenue != ranked[j].revenue {
			return ranked[i].revenue > ranked[j].revenue
		}
		return ranked[i].id < ranked[j].id
	})
	if len(ranked) > policy.TopK {
		ranked = ranked[:policy.TopK]
	}

	summaries := make([]promo.ProductSummary, 0, len(ranked))
	for _, agg := range ranked {
		avgPrice := agg.priceSum / float64(agg.count)
		weeklyDemand := float64(agg.count) / weeks
		summaries = append(summaries, promo.ProductSummary{
			ProductID:            agg.id,
			AvgPrice:             avgPrice,
			WeeklyDemandForecast: weeklyDemand,
			DiscountPrice:        avgPrice * policy.DiscountRate,
			PromoDemandForecast:  weeklyDemand * policy.DemandUplift,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ProductID < summaries[j].ProductID
	})

	zap.L().Info("summary: built",
		zap.Int("products", len(aggs)),
		zap.Int("candidates", len(summaries)),
		zap.Float64("span_weeks", weeks),
		zap.Float64("discount_rate", policy.DiscountRate),
		zap.Float64("demand_uplift", policy.DemandUplift),
	)

	return summaries, nil
}
