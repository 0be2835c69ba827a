package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockledger/stockledger/internal/jobs"
	"github.com/stockledger/stockledger/internal/ledger"
)

// LedgerIntegrityJob verifies that the materialised on-hand projection
// matches a fold of the raw movement log for every projected item.
type LedgerIntegrityJob struct {
	Service *ledger.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob initialises the integrity scan handler.
func NewLedgerIntegrityJob(service *ledger.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity scan.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLedgerIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	ids := []int64{payload.ItemID}
	if payload.ItemID == 0 {
		var err error
		ids, err = j.Service.ProjectedItemIDs(ctx)
		if err != nil {
			resultErr = err
			return resultErr
		}
	}

	mismatches := 0
	for _, id := range ids {
		onHand, folded, err := j.Service.VerifyProjection(ctx, id)
		if err != nil {
			resultErr = err
			return resultErr
		}
		if onHand != folded {
			mismatches++
			logger.Error("projection mismatch",
				slog.Int64("item_id", id),
				slog.Int64("on_hand", onHand),
				slog.Int64("folded", folded))
		}
	}
	if mismatches > 0 {
		resultErr = fmt.Errorf("ledger integrity: %d projection mismatch(es)", mismatches)
		return resultErr
	}
	logger.Info("ledger integrity scan completed", slog.Int("items", len(ids)))
	return nil
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskLedgerIntegrity))
}

func (j *LedgerIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
