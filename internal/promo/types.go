// Package promo formulates and solves the weekly promotion selection
// problem: given per-product price and demand summaries and a discount
// budget, choose the subset of products to put on promotion that maximizes
// expected revenue.
package promo

import "time"

// ProductSummary is one candidate product's pricing and demand profile, the
// optimizer's sole input besides the budget. All numeric fields are treated
// as given; the optimizer never recomputes the discount policy.
type ProductSummary struct {
	ProductID            string  `json:"product_id"`
	AvgPrice             float64 `json:"avg_price"`
	WeeklyDemandForecast float64 `json:"weekly_demand_forecast"`
	DiscountPrice        float64 `json:"discount_price"`
	PromoDemandForecast  float64 `json:"promo_demand_forecast"`
}

// Status classifies a successful solve.
type Status string

// StatusOptimal means the solver proved the returned assignment optimal.
const StatusOptimal Status = "optimal"

// Result is the outcome of a solve.
type Result struct {
	// PromotedProducts lists the chosen product IDs, ascending. Never nil.
	PromotedProducts []string `json:"promoted_products"`
	// ExpectedRevenue is the objective value at the optimum: total expected
	// weekly revenue across all candidates under the chosen assignment.
	ExpectedRevenue float64 `json:"expected_revenue"`
	// DiscountCost is the forgone margin actually incurred by the chosen
	// promotions. It is evaluated from the assignment, not assumed equal to
	// the budget, and is at most the budget within solver tolerance.
	DiscountCost float64 `json:"discount_cost"`
	Status       Status  `json:"status"`
}

// Plan is a full pipeline outcome: the inputs that produced a Result plus
// the rendered brief, as persisted by the store.
type Plan struct {
	ID        string           `json:"id"`
	Budget    float64          `json:"budget"`
	Summary   []ProductSummary `json:"product_summary"`
	Result    *Result          `json:"result"`
	Brief     string           `json:"brief,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
