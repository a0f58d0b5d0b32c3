package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/northcart/promoplan/internal/pipeline"
	"github.com/northcart/promoplan/internal/promo"
	"github.com/northcart/promoplan/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return eris.Wrap(err, "serve: init store")
		}
		defer st.Close() //nolint:errcheck

		deps := &serverDeps{
			store:    st,
			pipeline: newPipeline(st, true),
			dataDir:  cfg.Data.Dir,
			budget:   cfg.Optimizer.Budget,
		}
		router := newRouter(deps, cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// serverDeps holds what the handlers need. Each request builds its own
// solve state; nothing is shared between in-flight solves.
type serverDeps struct {
	store    store.Store
	pipeline *pipeline.Pipeline
	dataDir  string
	budget   float64
}

// newRouter builds the chi router for the dashboard API.
func newRouter(deps *serverDeps, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/optimize", deps.handleOptimize)
	r.Post("/api/plans", deps.handleRunPlan)
	r.Get("/api/plans", deps.handleListPlans)
	r.Get("/api/plans/{id}", deps.handleGetPlan)

	return r
}

// handleOptimize solves a posted product summary synchronously.
func (d *serverDeps) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductSummary []promo.ProductSummary `json:"product_summary"`
		Budget         float64                `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.ProductSummary) == 0 {
		writeError(w, http.StatusBadRequest, "product_summary is required")
		return
	}

	result, err := d.pipeline.Solve(r.Context(), req.ProductSummary, req.Budget)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, promo.ErrInvalidInput), errors.Is(err, promo.ErrConfiguration):
			status = http.StatusBadRequest
		case errors.Is(err, promo.ErrInfeasible):
			status = http.StatusUnprocessableEntity
		}
		zap.L().Warn("serve: optimize failed", zap.Error(err))
		writeError(w, status, eris.Cause(err).Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleRunPlan starts a full pipeline run asynchronously.
func (d *serverDeps) handleRunPlan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DataDir string   `json:"data_dir"`
		Budget  *float64 `json:"budget"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dir := req.DataDir
	if dir == "" {
		dir = d.dataDir
	}
	budget := d.budget
	if req.Budget != nil {
		budget = *req.Budget
	}

	// Run asynchronously; the plan lands in the store.
	go func() {
		plan, err := d.pipeline.Run(context.WithoutCancel(r.Context()), dir, budget)
		if err != nil {
			zap.L().Error("serve: pipeline run failed",
				zap.String("data_dir", dir),
				zap.Float64("budget", budget),
				zap.Error(err),
			)
			return
		}
		zap.L().Info("serve: pipeline run complete",
			zap.String("plan_id", plan.ID),
			zap.Strings("promoted", plan.Result.PromotedProducts),
		)
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status": "accepted",
		"budget": budget,
	})
}

func (d *serverDeps) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	plans, err := d.store.ListPlans(r.Context(), limit)
	if err != nil {
		zap.L().Error("serve: list plans failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list plans failed")
		return
	}
	if plans == nil {
		plans = []promo.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (d *serverDeps) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	plan, err := d.store.GetPlan(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "plan not found")
			return
		}
		zap.L().Error("serve: get plan failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get plan failed")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
