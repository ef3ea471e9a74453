package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"schoolhub-backend/application/ports"
	"schoolhub-backend/application/sweep"
	"schoolhub-backend/domain/events"
	"schoolhub-backend/pkg/observability"

	"go.uber.org/zap"
)

// SweepHandler exposes the overdue sweep over HTTP. The scheduler invokes it
// once per day; staff can trigger it manually.
type SweepHandler struct {
	engine   *sweep.Engine
	eventBus ports.EventBus
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	logger   *zap.Logger
	now      func() time.Time
}

// NewSweepHandler creates a new sweep handler. Metrics, tracer and eventBus
// may be nil; the sweep itself does not depend on them.
func NewSweepHandler(
	engine *sweep.Engine,
	eventBus ports.EventBus,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *SweepHandler {
	return &SweepHandler{
		engine:   engine,
		eventBus: eventBus,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger,
		now:      time.Now,
	}
}

// RunSweep handles POST /loans/sweep
func (h *SweepHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var summary sweep.RunSummary
	run := func(ctx context.Context) error {
		var err error
		summary, err = h.engine.RunSweep(ctx, h.now())
		return err
	}

	var err error
	if h.tracer != nil {
		err = h.tracer.TraceFunction(r.Context(), "RunSweep", run)
	} else {
		err = run(r.Context())
	}

	if err != nil {
		h.logger.Error("Overdue sweep failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
		})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSweep(r.Context(), summary.NewlyOverdue, summary.DueToday, summary.DueSoon, time.Since(started))
	}

	if h.eventBus != nil {
		event := events.NewSweepCompleted(summary.CheckedAt, summary.NewlyOverdue, summary.DueToday, summary.DueSoon)
		if err := h.eventBus.Publish(r.Context(), event); err != nil {
			h.logger.Warn("Failed to publish sweep completion event", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summary); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
