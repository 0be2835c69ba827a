package consol

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// DBRepository defines the required persistence behaviour for the service.
type DBRepository interface {
	MovementsInWindow(ctx context.Context, from, to time.Time) ([]MovementRow, error)
}

// Service builds consolidated reporting rollups.
type Service struct {
	repo DBRepository
}

// NewService constructs a consolidation service instance.
func NewService(repo DBRepository) *Service {
	return &Service{repo: repo}
}

type groupKey struct {
	date     string
	itemID   int64
	supplier string
}

// Consolidate filters ledger movements by calendar date window and free-text
// query, then rolls them up per (date, item, supplier). The same item from
// two suppliers on the same day yields two rows; supplier traceability is a
// reporting requirement. Adjustments land in the inbound or outbound bucket
// by their direction, the same convention the quantity projection uses, so
// report totals always reconcile with live quantities.
func (s *Service) Consolidate(ctx context.Context, filters Filters) ([]Row, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("consol service not initialised")
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Before(filters.From) {
		return nil, fmt.Errorf("consol: window end precedes start")
	}
	movements, err := s.repo.MovementsInWindow(ctx, filters.From, filters.To)
	if err != nil {
		return nil, err
	}

	folder := cases.Fold()
	query := folder.String(strings.TrimSpace(filters.Query))

	groups := make(map[groupKey]*Row)
	for _, m := range movements {
		if query != "" &&
			!strings.Contains(folder.String(m.ItemName), query) &&
			!strings.Contains(folder.String(m.Supplier), query) {
			continue
		}
		key := groupKey{
			date:     m.OccurredAt.UTC().Format("2006-01-02"),
			itemID:   m.ItemID,
			supplier: m.Supplier,
		}
		row, ok := groups[key]
		if !ok {
			row = &Row{Date: key.date, ItemID: m.ItemID, ItemName: m.ItemName, Supplier: m.Supplier}
			groups[key] = row
		}
		if m.Direction == "OUT" {
			row.OutboundTotal += m.Quantity
		} else {
			row.InboundTotal += m.Quantity
		}
	}

	rows := make([]Row, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		if rows[i].ItemName != rows[j].ItemName {
			return rows[i].ItemName < rows[j].ItemName
		}
		return rows[i].Supplier < rows[j].Supplier
	})
	return rows, nil
}
