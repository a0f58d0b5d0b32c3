package bip

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveBasic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		items      []Item
		capacity   float64
		wantChosen []int
		wantObj    float64
	}{
		{
			name: "both items exceed capacity alone",
			items: []Item{
				{ID: "p1", Value: 80, Weight: 120},
				{ID: "p2", Value: 80, Weight: 120},
			},
			capacity:   50,
			wantChosen: nil,
			wantObj:    0,
		},
		{
			name: "only one fits",
			items: []Item{
				{ID: "p1", Value: 80, Weight: 120},
				{ID: "p2", Value: 80, Weight: 120},
			},
			capacity:   150,
			wantChosen: []int{0}, // tie broken by ID ascending
			wantObj:    80,
		},
		{
			name: "both fit",
			items: []Item{
				{ID: "p1", Value: 80, Weight: 120},
				{ID: "p2", Value: 80, Weight: 120},
			},
			capacity:   240,
			wantChosen: []int{0, 1},
			wantObj:    160,
		},
		{
			name: "greedy order is not optimal",
			items: []Item{
				{ID: "a", Value: 60, Weight: 10}, // densest
				{ID: "b", Value: 100, Weight: 20},
				{ID: "c", Value: 120, Weight: 30},
			},
			capacity:   50,
			wantChosen: []int{1, 2}, // 220 beats 60+100=160 and 60+120=180
			wantObj:    220,
		},
		{
			name: "negative value never chosen",
			items: []Item{
				{ID: "bad", Value: -10, Weight: 1},
				{ID: "good", Value: 5, Weight: 1},
			},
			capacity:   100,
			wantChosen: []int{1},
			wantObj:    5,
		},
		{
			name: "zero weight positive value always chosen",
			items: []Item{
				{ID: "free", Value: 7, Weight: 0},
				{ID: "heavy", Value: 1, Weight: 50},
			},
			capacity:   0,
			wantChosen: []int{0},
			wantObj:    7,
		},
		{
			name:       "no items",
			items:      nil,
			capacity:   10,
			wantChosen: nil,
			wantObj:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sol, err := Solve(context.Background(), tt.items, tt.capacity, Options{})
			require.NoError(t, err)
			if tt.wantChosen == nil {
				assert.Empty(t, sol.Chosen)
			} else {
				assert.Equal(t, tt.wantChosen, sol.Chosen)
			}
			assert.InDelta(t, tt.wantObj, sol.Objective, 1e-9)
		})
	}
}

func TestSolveRespectsCapacity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		items := make([]Item, 12)
		for i := range items {
			items[i] = Item{
				ID:     string(rune('a' + i)),
				Value:  rng.Float64() * 100,
				Weight: rng.Float64()*50 + 1,
			}
		}
		capacity := rng.Float64() * 200

		sol, err := Solve(context.Background(), items, capacity, Options{})
		require.NoError(t, err)

		var weight float64
		for _, idx := range sol.Chosen {
			weight += items[idx].Weight
		}
		assert.LessOrEqual(t, weight, capacity+Tolerance)
		assert.InDelta(t, weight, sol.Weight, 1e-9)
	}
}

func TestSolveMatchesBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 100; trial++ {
		n := 2 + rng.Intn(9)
		items := make([]Item, n)
		for i := range items {
			items[i] = Item{
				ID:     string(rune('a' + i)),
				Value:  rng.Float64()*80 - 10, // some negative values
				Weight: rng.Float64() * 40,
			}
		}
		capacity := rng.Float64() * 100

		sol, err := Solve(context.Background(), items, capacity, Options{})
		require.NoError(t, err)

		best := 0.0
		for mask := 0; mask < 1<<n; mask++ {
			var value, weight float64
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					value += items[i].Value
					weight += items[i].Weight
				}
			}
			if weight <= capacity+Tolerance && value > best {
				best = value
			}
		}
		assert.InDelta(t, best, sol.Objective, 1e-6, "trial %d", trial)
	}
}

func TestSolveMonotoneInCapacity(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 30; trial++ {
		items := make([]Item, 10)
		for i := range items {
			items[i] = Item{
				ID:     string(rune('a' + i)),
				Value:  rng.Float64()*50 + 1, // strictly positive
				Weight: rng.Float64()*30 + 1,
			}
		}

		prev := -1.0
		for _, capacity := range []float64{0, 20, 40, 80, 160, 320} {
			sol, err := Solve(context.Background(), items, capacity, Options{})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, sol.Objective, prev-Tolerance,
				"objective decreased when capacity grew to %g", capacity)
			prev = sol.Objective
		}
	}
}

func TestSolveDeterministic(t *testing.T) {
	t.Parallel()

	items := []Item{
		{ID: "p3", Value: 80, Weight: 120},
		{ID: "p1", Value: 80, Weight: 120},
		{ID: "p2", Value: 80, Weight: 120},
	}

	first, err := Solve(context.Background(), items, 150, Options{})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, solveErr := Solve(context.Background(), items, 150, Options{})
		require.NoError(t, solveErr)
		assert.Equal(t, first.Chosen, again.Chosen)
		assert.Equal(t, first.Objective, again.Objective)
	}
	// Equal densities tie-break on ID: p1 at input index 1 wins.
	assert.Equal(t, []int{1}, first.Chosen)
}

func TestSolveInvalidInputs(t *testing.T) {
	t.Parallel()

	_, err := Solve(context.Background(), []Item{{ID: "x", Value: 1, Weight: 1}}, -5, Options{})
	assert.Error(t, err)

	_, err = Solve(context.Background(), []Item{{ID: "x", Value: math.NaN(), Weight: 1}}, 10, Options{})
	assert.Error(t, err)

	_, err = Solve(context.Background(), []Item{{ID: "x", Value: 1, Weight: math.Inf(1)}}, 10, Options{})
	assert.Error(t, err)

	_, err = Solve(context.Background(), nil, math.NaN(), Options{})
	assert.Error(t, err)
}

func TestSolveNodeLimit(t *testing.T) {
	t.Parallel()

	// Plenty of items with a tiny node budget.
	items := make([]Item, 24)
	rng := rand.New(rand.NewSource(5))
	for i := range items {
		items[i] = Item{
			ID:     string(rune('a' + i)),
			Value:  rng.Float64()*10 + 1,
			Weight: rng.Float64()*10 + 1,
		}
	}

	_, err := Solve(context.Background(), items, 60, Options{MaxNodes: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeLimit)
}

func TestSolveCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := make([]Item, 30)
	rng := rand.New(rand.NewSource(9))
	for i := range items {
		items[i] = Item{
			ID:     string(rune('a' + i)),
			Value:  rng.Float64()*10 + 1,
			Weight: rng.Float64()*10 + 1,
		}
	}

	_, err := Solve(ctx, items, 75, Options{})
	assert.Error(t, err)
}
