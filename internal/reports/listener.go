package reports

import (
	"context"
	"log/slog"

	"github.com/stockledger/stockledger/internal/ledger"
)

// LedgerListener invalidates the report cache whenever a movement is
// appended. Implements ledger.IntegrationHandler.
type LedgerListener struct {
	cache  *Cache
	logger *slog.Logger
}

// NewLedgerListener constructs the listener.
func NewLedgerListener(cache *Cache, logger *slog.Logger) *LedgerListener {
	return &LedgerListener{cache: cache, logger: logger}
}

// HandleMovementRecorded bumps the cache version. Invalidation failure is
// logged but never fails the append; the version key TTL-free design means
// the worst case is one stale read until the next successful bump.
func (l *LedgerListener) HandleMovementRecorded(ctx context.Context, evt ledger.MovementRecordedEvent) error {
	if l == nil || l.cache == nil {
		return nil
	}
	if err := l.cache.Bump(ctx); err != nil && l.logger != nil {
		l.logger.Warn("bump report cache", slog.Any("error", err), slog.Int64("movement_id", evt.Movement.ID))
	}
	return nil
}
