package promo

import "github.com/rotisserie/eris"

// Failure sentinels. Every error returned by this package (and by the
// summary builder) wraps exactly one of these, so callers classify with
// errors.Is while the wrap message carries the specifics.
var (
	// ErrInvalidInput marks malformed numeric input: negative or non-finite
	// fields, a discount price above the average price, or duplicate rows.
	ErrInvalidInput = eris.New("invalid input")

	// ErrInfeasible marks a problem with no feasible assignment. With the
	// empty promotion set always available this only occurs for a negative
	// budget.
	ErrInfeasible = eris.New("infeasible")

	// ErrSolverFailure marks a solve that terminated without a proven
	// optimum: cancellation, timeout, or node-budget exhaustion.
	ErrSolverFailure = eris.New("solver failure")

	// ErrConfiguration marks malformed builder or policy parameters, such
	// as a degenerate date span or a non-positive top-K.
	ErrConfiguration = eris.New("configuration error")
)
