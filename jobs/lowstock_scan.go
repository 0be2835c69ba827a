package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockledger/stockledger/internal/alerts"
	jobmetrics "github.com/stockledger/stockledger/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LowStockScanJob recomputes the low-stock worklist on a schedule and
// publishes firing entries for UI reactivity.
type LowStockScanJob struct {
	Service *alerts.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLowStockScanJob initialises the scan handler.
func NewLowStockScanJob(service *alerts.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("lowstock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLowStockScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	entries, err := j.Service.LowStock(ctx)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}
	for _, entry := range entries {
		logger.Warn("low stock",
			slog.Int64("item_id", entry.ItemID),
			slog.String("sku", entry.SKU),
			slog.Int64("on_hand", entry.OnHand),
			slog.Int64("threshold", entry.ReorderThreshold),
			slog.Int64("deficit", entry.Deficit))
	}
	j.metrics().AddLowStockAlerts(len(entries))
	if payload.Publish {
		if err := j.Service.Publish(ctx, entries); err != nil {
			logger.Warn("publish low stock entries", slog.Any("error", err))
		}
	}
	logger.Info("low stock scan completed", slog.Int("firing", len(entries)))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskLowStockScan))
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
