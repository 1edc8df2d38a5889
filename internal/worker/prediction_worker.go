package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/city-issue-service/internal/service"
)

// PredictionWorker drives the periodic resolution-time prediction pass.
type PredictionWorker struct {
	predictions *service.PredictionService
	interval    time.Duration
	logger      *zap.Logger
}

// NewPredictionWorker constructs the worker.
func NewPredictionWorker(predictions *service.PredictionService, interval time.Duration, logger *zap.Logger) *PredictionWorker {
	return &PredictionWorker{
		predictions: predictions,
		interval:    interval,
		logger:      logger,
	}
}

// Run loops until ctx is done. Each pass is bounded by the tick interval so a
// slow advisory call cannot stall the next tick indefinitely.
func (w *PredictionWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("prediction worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("prediction worker stopped")
			return
		case <-ticker.C:
			passCtx, cancel := context.WithTimeout(ctx, w.interval)
			w.predictions.PredictPending(passCtx)
			cancel()
		}
	}
}
