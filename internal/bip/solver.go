// Package bip solves small binary integer programs of the knapsack form:
// maximize the summed value of chosen items subject to a single capacity
// constraint on their summed weight. The solve is exact (branch-and-bound
// with an LP-relaxation bound), not a heuristic.
package bip

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
)

// Tolerance is the absolute tolerance used for capacity and objective
// comparisons.
const Tolerance = 1e-9

// DefaultMaxNodes bounds the branch-and-bound search when Options.MaxNodes
// is unset. Problems in this codebase have at most dozens of items, so the
// limit exists to convert a pathological blow-up into an error instead of a
// hang.
const DefaultMaxNodes = 5_000_000

// ctxCheckInterval is how many nodes are expanded between context checks.
const ctxCheckInterval = 1024

// ErrNodeLimit is returned when the search exceeds its node budget without
// proving optimality.
var ErrNodeLimit = eris.New("bip: node limit exceeded")

// Item is one binary decision: take it (gain Value, consume Weight) or not.
type Item struct {
	ID     string
	Value  float64
	Weight float64
}

// Options configures a solve.
type Options struct {
	// MaxNodes bounds the number of branch-and-bound nodes expanded.
	// Zero means DefaultMaxNodes.
	MaxNodes int64
}

// Solution is a proven-optimal assignment.
type Solution struct {
	// Chosen holds indices into the input slice, ascending.
	Chosen []int
	// Objective is the summed value of the chosen items.
	Objective float64
	// Weight is the summed weight of the chosen items.
	Weight float64
	// Nodes is the number of search nodes expanded.
	Nodes int64
}

// candidate is an item worth branching on, tagged with its input index.
type candidate struct {
	idx     int
	value   float64
	weight  float64
	density float64
}

// Solve returns an optimal subset of items whose total weight fits within
// capacity. Items with non-positive value are never taken; items with
// positive value and non-positive weight are always taken. The search order
// is deterministic (value density descending, item ID ascending on ties), so
// repeated solves on identical input return the identical solution.
func Solve(ctx context.Context, items []Item, capacity float64, opts Options) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "bip: solve cancelled")
	}
	if math.IsNaN(capacity) || math.IsInf(capacity, 0) {
		return nil, eris.New("bip: capacity must be finite")
	}
	if capacity < -Tolerance {
		return nil, eris.Errorf("bip: negative capacity %g", capacity)
	}
	for i, it := range items {
		if !isFinite(it.Value) || !isFinite(it.Weight) {
			return nil, eris.Errorf("bip: item %d (%s) has non-finite coefficients", i, it.ID)
		}
	}

	maxNodes := opts.MaxNodes
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}

	// Preselect: zero-weight gains are free, non-positive values are dead.
	var chosen []int
	var fixedValue, fixedWeight float64
	var cands []candidate
	for i, it := range items {
		switch {
		case it.Value <= Tolerance:
			// Never improves the objective.
		case it.Weight <= Tolerance:
			chosen = append(chosen, i)
			fixedValue += it.Value
			fixedWeight += math.Max(it.Weight, 0)
		default:
			cands = append(cands, candidate{
				idx:     i,
				value:   it.Value,
				weight:  it.Weight,
				density: it.Value / it.Weight,
			})
		}
	}

	sort.Slice(cands, func(a, b int) bool {
		ca, cb := cands[a], cands[b]
		if ca.density != cb.density {
			return ca.density > cb.density
		}
		return items[ca.idx].ID < items[cb.idx].ID
	})

	// The empty selection is always feasible and seeds the incumbent.
	s := &search{
		cands:    cands,
		capacity: capacity,
		maxNodes: maxNodes,
		ctx:      ctx,
		bestTake: make([]bool, len(cands)),
		take:     make([]bool, len(cands)),
	}
	if err := s.branch(0, 0, 0); err != nil {
		return nil, err
	}

	for i, taken := range s.bestTake {
		if taken {
			chosen = append(chosen, cands[i].idx)
		}
	}
	sort.Ints(chosen)

	return &Solution{
		Chosen:    chosen,
		Objective: fixedValue + s.bestValue,
		Weight:    fixedWeight + s.bestWeight,
		Nodes:     s.nodes,
	}, nil
}

type search struct {
	cands    []candidate
	capacity float64
	maxNodes int64
	ctx      context.Context

	nodes      int64
	bestValue  float64
	bestWeight float64
	bestTake   []bool
	take       []bool
}

// branch explores the subtree rooted at position i with the given partial
// value and weight. The include branch is explored first, so among multiple
// optima the one taking the densest items wins deterministically.
func (s *search) branch(i int, value, weight float64) error {
	s.nodes++
	if s.nodes > s.maxNodes {
		return ErrNodeLimit
	}
	if s.nodes%ctxCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return eris.Wrap(err, "bip: solve cancelled")
		}
	}

	// Strictly-better replacement plus include-first descent makes the
	// returned optimum stable across runs when ties exist.
	if value > s.bestValue+Tolerance {
		s.bestValue = value
		s.bestWeight = weight
		copy(s.bestTake, s.take)
	}
	if i == len(s.cands) {
		return nil
	}
	if value+s.bound(i, s.capacity-weight) <= s.bestValue+Tolerance {
		return nil
	}

	c := s.cands[i]
	if weight+c.weight <= s.capacity+Tolerance {
		s.take[i] = true
		if err := s.branch(i+1, value+c.value, weight+c.weight); err != nil {
			return err
		}
		s.take[i] = false
	}
	return s.branch(i+1, value, weight)
}

// bound is the LP-relaxation optimum for the remaining items: fill greedily
// by density and take a fractional share of the first item that overflows.
func (s *search) bound(i int, remaining float64) float64 {
	var b float64
	for ; i < len(s.cands); i++ {
		c := s.cands[i]
		if c.weight <= remaining {
			b += c.value
			remaining -= c.weight
			continue
		}
		if remaining > 0 {
			b += c.density * remaining
		}
		break
	}
	return b
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
