package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-dispatch/internal/api/models"
	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/data"
	"bess-dispatch/internal/logger"
	"bess-dispatch/internal/report"
	"bess-dispatch/internal/store"
	"bess-dispatch/internal/strategy"
)

// BacktestHandler handles simulation requests and stored results
type BacktestHandler struct {
	engine     *backtest.Engine
	store      store.Store
	log        logger.Logger
	batteryDir string
	workers    int
}

// NewBacktestHandler creates a new backtest handler. workers bounds batch
// runs; 0 means one per CPU.
func NewBacktestHandler(engine *backtest.Engine, st store.Store, log logger.Logger, batteryDir string, workers int) *BacktestHandler {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &BacktestHandler{
		engine:     engine,
		store:      st,
		log:        log,
		batteryDir: batteryDir,
		workers:    workers,
	}
}

// Simulate handles POST /api/v1/simulate
func (h *BacktestHandler) Simulate(c *gin.Context) {
	var req models.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err)
		return
	}

	sc, err := resolveScenario(h.batteryDir, req.Config)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidConfig, err)
		return
	}

	series := data.Normalize(req.Series)
	policy, err := strategy.New(sc.policy, series, sc.asset, sc.revenue.DegradationCostPerMWh)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidConfig, err)
		return
	}

	result, err := h.engine.Run(c.Request.Context(), series, sc.asset, policy, sc.revenue)
	if err != nil {
		respondRunError(c, err)
		return
	}

	summary := report.Aggregate(result)
	id, err := h.save(c, summary, result.Ledger)
	if err != nil {
		respondError(c, http.StatusInternalServerError, models.CodeSimulationError, err)
		return
	}
	summary.ID = id

	response := models.SimulateResponse{
		ID:      id,
		Status:  "completed",
		Summary: summary,
	}
	if req.Options.IncludeWindows {
		response.ChargeWindows, response.DischargeWindows = report.DailyWindows(result.Ledger)
	}
	if req.Options.IncludeLedger {
		response.Ledger = result.Ledger
	}
	c.JSON(http.StatusOK, response)
}

// Compare handles POST /api/v1/compare
func (h *BacktestHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err)
		return
	}

	sc, err := resolveScenario(h.batteryDir, req.Config)
	if err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidConfig, err)
		return
	}

	lookahead := strategy.DefaultLookaheadPeriods
	switch {
	case req.LookaheadPeriods != nil:
		lookahead = *req.LookaheadPeriods
	case sc.policy.LookaheadPeriods != nil:
		lookahead = *sc.policy.LookaheadPeriods
	}

	series := data.Normalize(req.Series)
	runs, err := h.engine.RunComparison(c.Request.Context(), series, sc.asset, lookahead, sc.revenue)
	if err != nil {
		respondRunError(c, err)
		return
	}

	cmp := report.CompareRuns(runs)
	greedyID, err := h.save(c, cmp.Greedy, runs.Greedy.Ledger)
	if err != nil {
		respondError(c, http.StatusInternalServerError, models.CodeSimulationError, err)
		return
	}
	optimizedID, err := h.save(c, cmp.Optimized, runs.Optimized.Ledger)
	if err != nil {
		respondError(c, http.StatusInternalServerError, models.CodeSimulationError, err)
		return
	}
	cmp.Greedy.ID = greedyID
	cmp.Optimized.ID = optimizedID

	c.JSON(http.StatusOK, models.CompareResponse{
		GreedyID:    greedyID,
		OptimizedID: optimizedID,
		Comparison:  cmp,
	})
}

// Batch handles POST /api/v1/batch. Each variation is merged onto the base
// config; a variation that fails does not fail the others.
func (h *BacktestHandler) Batch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, err)
		return
	}
	if len(req.Variations) == 0 {
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, errors.New("at least one variation is required"))
		return
	}
	if req.Workers < 0 {
		respondError(c, http.StatusBadRequest, models.CodeInvalidRequest, fmt.Errorf("workers must be >= 0, got %d", req.Workers))
		return
	}

	series := data.Normalize(req.Series)
	results := make([]models.BatchResult, len(req.Variations))
	jobs := make([]backtest.Job, 0, len(req.Variations))
	jobIndex := make([]int, 0, len(req.Variations))

	for i, variation := range req.Variations {
		results[i].Name = variation.Name
		sc, err := resolveScenario(h.batteryDir, mergeScenario(req.BaseConfig, variation.Config))
		if err != nil {
			results[i].Status = "failed"
			results[i].Error = &models.ErrorDetail{Code: models.CodeInvalidConfig, Message: err.Error()}
			continue
		}
		jobs = append(jobs, backtest.Job{
			ID:      variation.Name,
			Series:  series,
			Asset:   sc.asset,
			Policy:  sc.policy,
			Revenue: sc.revenue,
		})
		jobIndex = append(jobIndex, i)
	}

	workers := req.Workers
	if workers == 0 {
		workers = h.workers
	}
	outcomes := h.engine.RunBatch(c.Request.Context(), jobs, workers)

	for k, o := range outcomes {
		r := &results[jobIndex[k]]
		if o.Err != nil {
			code := models.CodeSimulationError
			if isConfigError(o.Err) {
				code = models.CodeInvalidConfig
			}
			r.Status = "failed"
			r.Error = &models.ErrorDetail{Code: code, Message: o.Err.Error()}
			continue
		}
		summary := report.Aggregate(o.Result)
		id, err := h.save(c, summary, o.Result.Ledger)
		if err != nil {
			r.Status = "failed"
			r.Error = &models.ErrorDetail{Code: models.CodeSimulationError, Message: err.Error()}
			continue
		}
		summary.ID = id
		r.ID = id
		r.Status = "completed"
		r.Summary = &summary
	}

	c.JSON(http.StatusOK, models.BatchResponse{Results: results})
}

// GetResult handles GET /api/v1/results/:id
func (h *BacktestHandler) GetResult(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.ResultResponse{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Summary:   rec.Summary,
	})
}

// GetLedger handles GET /api/v1/results/:id/ledger. ?format=csv returns
// the same columns as the CLI ledger export.
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	rec, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.ID+".csv"))
		c.Status(http.StatusOK)
		if err := backtest.WriteLedger(c.Writer, rec.Ledger); err != nil {
			h.log.Errorf("write ledger %s: %v", rec.ID, err)
		}
		return
	}
	ledger := rec.Ledger
	if ledger == nil {
		ledger = []backtest.LedgerRow{}
	}
	c.JSON(http.StatusOK, gin.H{"id": rec.ID, "ledger": ledger})
}

func (h *BacktestHandler) lookup(c *gin.Context) (store.Record, bool) {
	id := c.Param("id")
	rec, err := h.store.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, models.CodeNotFound, fmt.Errorf("result %q not found or expired", id))
		return store.Record{}, false
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, models.CodeInternal, err)
		return store.Record{}, false
	}
	return rec, true
}

func (h *BacktestHandler) save(c *gin.Context, summary report.ScenarioResult, ledger []backtest.LedgerRow) (string, error) {
	id, err := h.store.Save(c.Request.Context(), store.Record{Summary: summary, Ledger: ledger})
	if err != nil {
		h.log.Errorf("save result: %v", err)
		return "", fmt.Errorf("save result: %w", err)
	}
	return id, nil
}
