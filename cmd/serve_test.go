package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northcart/promoplan/internal/pipeline"
	"github.com/northcart/promoplan/internal/promo"
	"github.com/northcart/promoplan/internal/store"
	"github.com/northcart/promoplan/internal/summary"
)

func newTestServer(t *testing.T) (*serverDeps, http.Handler) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "plans.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	deps := &serverDeps{
		store: st,
		pipeline: pipeline.New(pipeline.Options{
			Policy:   summary.DefaultPolicy(),
			Store:    st,
			UseCache: true,
		}),
		dataDir: filepath.Join("..", "internal", "dataset", "testdata", "olist"),
		budget:  500,
	}
	return deps, newRouter(deps, []string{"*"})
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestOptimizeEndpoint(t *testing.T) {
	_, handler := newTestServer(t)

	body := map[string]any{
		"product_summary": []promo.ProductSummary{
			{ProductID: "P1", AvgPrice: 10, WeeklyDemandForecast: 100, DiscountPrice: 9, PromoDemandForecast: 120},
			{ProductID: "P2", AvgPrice: 20, WeeklyDemandForecast: 50, DiscountPrice: 18, PromoDemandForecast: 60},
		},
		"budget": 150,
	}
	rec := postJSON(t, handler, "/api/optimize", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result promo.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.PromotedProducts, 1)
	assert.InDelta(t, 2080, result.ExpectedRevenue, 1e-6)
	assert.InDelta(t, 120, result.DiscountCost, 1e-6)
}

func TestOptimizeEndpointValidation(t *testing.T) {
	_, handler := newTestServer(t)

	tests := []struct {
		name     string
		body     any
		wantCode int
	}{
		{
			name:     "empty summary",
			body:     map[string]any{"product_summary": []promo.ProductSummary{}, "budget": 100},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "discount above average",
			body: map[string]any{
				"product_summary": []promo.ProductSummary{
					{ProductID: "x", AvgPrice: 1, WeeklyDemandForecast: 1, DiscountPrice: 2, PromoDemandForecast: 1},
				},
				"budget": 100,
			},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "negative budget",
			body: map[string]any{
				"product_summary": []promo.ProductSummary{
					{ProductID: "x", AvgPrice: 10, WeeklyDemandForecast: 1, DiscountPrice: 9, PromoDemandForecast: 1.2},
				},
				"budget": -5,
			},
			wantCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, handler, "/api/optimize", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	// Malformed JSON body.
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlansEndpoints(t *testing.T) {
	deps, handler := newTestServer(t)

	// Empty store lists an empty array, not null.
	req := httptest.NewRequest(http.MethodGet, "/api/plans", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	plan := &promo.Plan{
		Budget:  500,
		Summary: []promo.ProductSummary{{ProductID: "P1", AvgPrice: 10, WeeklyDemandForecast: 1, DiscountPrice: 9, PromoDemandForecast: 1.2}},
		Result:  &promo.Result{PromotedProducts: []string{"P1"}, ExpectedRevenue: 10.8, DiscountCost: 1.2, Status: promo.StatusOptimal},
	}
	require.NoError(t, deps.store.CreatePlan(context.Background(), plan))

	req = httptest.NewRequest(http.MethodGet, "/api/plans/"+plan.ID, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got promo.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, plan.ID, got.ID)
	assert.Equal(t, plan.Result, got.Result)

	req = httptest.NewRequest(http.MethodGet, "/api/plans/unknown-id", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/plans?limit=bogus", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunPlanEndpointAccepted(t *testing.T) {
	_, handler := newTestServer(t)

	rec := postJSON(t, handler, "/api/plans", map[string]any{"budget": 300})
	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.InDelta(t, 300, resp["budget"].(float64), 1e-9)
}
