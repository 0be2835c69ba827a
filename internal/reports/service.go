package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/stockledger/stockledger/internal/alerts"
)

// Summary is the dashboard rollup for one reporting period.
type Summary struct {
	PeriodStart   string `json:"period_start,omitempty"`
	PeriodEnd     string `json:"period_end,omitempty"`
	ItemCount     int64  `json:"item_count"`
	InboundCount  int64  `json:"inbound_count"`
	OutboundCount int64  `json:"outbound_count"`
	AlertCount    int64  `json:"alert_count"`
}

// Repository exposes the count queries the aggregator relies on.
type Repository interface {
	ActiveItemCount(ctx context.Context) (int64, error)
	MovementCounts(ctx context.Context, from, to time.Time) (inbound, outbound int64, err error)
}

// AlertSource supplies the current low-stock worklist.
type AlertSource interface {
	LowStock(ctx context.Context) ([]alerts.Entry, error)
}

// Service composes catalog, ledger and alert views into summary statistics.
// Purely read-side; it never mutates ledger or catalog state.
type Service struct {
	repo   Repository
	alerts AlertSource
	cache  *Cache
}

// NewService wires a Repository with the alert source and cache helper.
func NewService(repo Repository, alertSource AlertSource, cache *Cache) *Service {
	return &Service{repo: repo, alerts: alertSource, cache: cache}
}

// Summary computes the dashboard summary for the period. Results are cached
// under a version key bumped on every ledger append, so repeated calls with
// no intervening movement are served from cache and stay identical.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	if s == nil || s.repo == nil {
		return Summary{}, fmt.Errorf("reports service not initialised")
	}
	key, err := s.cache.BuildKey(ctx, "reports", "summary", dateToken(from), dateToken(to))
	if err != nil {
		return Summary{}, err
	}
	var summary Summary
	err = s.cache.FetchJSON(ctx, key, &summary, func(ctx context.Context) (interface{}, error) {
		return s.build(ctx, from, to)
	})
	return summary, err
}

func (s *Service) build(ctx context.Context, from, to time.Time) (Summary, error) {
	itemCount, err := s.repo.ActiveItemCount(ctx)
	if err != nil {
		return Summary{}, err
	}
	inbound, outbound, err := s.repo.MovementCounts(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{
		PeriodStart:   dateToken(from),
		PeriodEnd:     dateToken(to),
		ItemCount:     itemCount,
		InboundCount:  inbound,
		OutboundCount: outbound,
	}
	if s.alerts != nil {
		entries, err := s.alerts.LowStock(ctx)
		if err != nil {
			return Summary{}, err
		}
		summary.AlertCount = int64(len(entries))
	}
	return summary, nil
}

func dateToken(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}
