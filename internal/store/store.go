// Package store persists promotion plans and memoized solve results.
package store

import (
	"context"

	"github.com/northcart/promoplan/internal/promo"
)

// Store defines the persistence interface for the planning pipeline.
type Store interface {
	// Plans
	CreatePlan(ctx context.Context, plan *promo.Plan) error
	GetPlan(ctx context.Context, id string) (*promo.Plan, error)
	ListPlans(ctx context.Context, limit int) ([]promo.Plan, error)

	// Result cache, keyed by promo.Fingerprint of the solve inputs. The
	// cache belongs to the calling layer; the optimizer itself never reads
	// or writes it.
	GetCachedResult(ctx context.Context, fingerprint string) (*promo.Result, error)
	PutCachedResult(ctx context.Context, fingerprint string, result *promo.Result) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
