package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockledger/stockledger/internal/alerts"
	"github.com/stockledger/stockledger/internal/catalog"
	"github.com/stockledger/stockledger/internal/consol"
	"github.com/stockledger/stockledger/internal/ledger"
	"github.com/stockledger/stockledger/internal/shared"
)

// memoryStore backs every module in the flow tests with the same state, the
// way the database does in production.
type memoryStore struct {
	items     map[int64]catalog.Item
	movements []ledger.Movement
	levels    map[int64]ledger.Level
	nextItem  int64
	nextMove  int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[int64]catalog.Item), levels: make(map[int64]ledger.Level)}
}

// catalog.Repository

func (s *memoryStore) List(ctx context.Context, filters catalog.ListFilters) ([]catalog.Item, int, error) {
	out := []catalog.Item{}
	for _, it := range s.items {
		if filters.ActiveOnly && !it.Active {
			continue
		}
		out = append(out, it)
	}
	return out, len(out), nil
}

func (s *memoryStore) Get(ctx context.Context, id int64) (catalog.Item, error) {
	if it, ok := s.items[id]; ok {
		return it, nil
	}
	return catalog.Item{}, shared.ErrNotFound
}

func (s *memoryStore) GetBySKU(ctx context.Context, sku string) (catalog.Item, error) {
	for _, it := range s.items {
		if it.SKU == sku {
			return it, nil
		}
	}
	return catalog.Item{}, shared.ErrNotFound
}

func (s *memoryStore) Create(ctx context.Context, item catalog.Item) (catalog.Item, error) {
	s.nextItem++
	item.ID = s.nextItem
	item.Active = true
	s.items[item.ID] = item
	return item, nil
}

func (s *memoryStore) Update(ctx context.Context, id int64, item catalog.Item) error {
	existing, ok := s.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	existing.Name = item.Name
	existing.ReorderThreshold = item.ReorderThreshold
	s.items[id] = existing
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, id int64) error {
	delete(s.items, id)
	return nil
}

func (s *memoryStore) Deactivate(ctx context.Context, id int64) error {
	it, ok := s.items[id]
	if !ok {
		return shared.ErrNotFound
	}
	it.Active = false
	s.items[id] = it
	return nil
}

func (s *memoryStore) HasMovements(ctx context.Context, id int64) (bool, error) {
	for _, m := range s.movements {
		if m.ItemID == id {
			return true, nil
		}
	}
	return false, nil
}

// ledger.RepositoryPort

func (s *memoryStore) WithTx(ctx context.Context, fn func(context.Context, ledger.TxRepository) error) error {
	return fn(ctx, s)
}

func (s *memoryStore) ListByItem(ctx context.Context, itemID int64) ([]ledger.Movement, error) {
	out := []ledger.Movement{}
	for _, m := range s.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memoryStore) ListAll(ctx context.Context, filter ledger.ListFilter) ([]ledger.Movement, error) {
	return append([]ledger.Movement(nil), s.movements...), nil
}

func (s *memoryStore) QuantityOf(ctx context.Context, itemID int64) (int64, error) {
	return s.levels[itemID].OnHand, nil
}

func (s *memoryStore) FoldQuantity(ctx context.Context, itemID int64) (int64, error) {
	var total int64
	for _, m := range s.movements {
		if m.ItemID == itemID {
			total += m.Delta()
		}
	}
	return total, nil
}

func (s *memoryStore) LevelItemIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	for id := range s.levels {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *memoryStore) GetLevelForUpdate(ctx context.Context, itemID int64) (ledger.Level, error) {
	if level, ok := s.levels[itemID]; ok {
		return level, nil
	}
	return ledger.Level{ItemID: itemID}, ledger.ErrLevelNotFound
}

func (s *memoryStore) InsertMovement(ctx context.Context, m ledger.Movement) (int64, error) {
	s.nextMove++
	m.ID = s.nextMove
	s.movements = append(s.movements, m)
	return m.ID, nil
}

func (s *memoryStore) UpsertLevel(ctx context.Context, level ledger.Level) error {
	s.levels[level.ItemID] = level
	return nil
}

// alerts.DBRepository

func (s *memoryStore) LowStock(ctx context.Context) ([]alerts.Entry, error) {
	out := []alerts.Entry{}
	for id, it := range s.items {
		if !it.Active {
			continue
		}
		onHand := s.levels[id].OnHand
		if onHand <= it.ReorderThreshold {
			out = append(out, alerts.Entry{
				ItemID:           id,
				SKU:              it.SKU,
				Name:             it.Name,
				OnHand:           onHand,
				ReorderThreshold: it.ReorderThreshold,
				Deficit:          it.ReorderThreshold - onHand,
			})
		}
	}
	return out, nil
}

// consol.DBRepository

func (s *memoryStore) MovementsInWindow(ctx context.Context, from, to time.Time) ([]consol.MovementRow, error) {
	out := []consol.MovementRow{}
	for _, m := range s.movements {
		if !from.IsZero() && m.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && m.OccurredAt.After(to) {
			continue
		}
		out = append(out, consol.MovementRow{
			ItemID:     m.ItemID,
			ItemName:   s.items[m.ItemID].Name,
			Supplier:   m.Supplier,
			Direction:  string(m.Direction),
			Quantity:   m.Quantity,
			OccurredAt: m.OccurredAt,
		})
	}
	return out, nil
}

func TestLowStockFlow(t *testing.T) {
	store := newMemoryStore()
	catalogSvc := catalog.NewService(store, nil)
	ledgerSvc := ledger.NewService(store, catalogSvc, nil, nil, nil)
	alertSvc := alerts.NewService(store, nil)
	ctx := context.Background()

	item, err := catalogSvc.Create(ctx, catalog.Item{SKU: "WID-1", Name: "Widget", ReorderThreshold: 10})
	require.NoError(t, err)

	// Healthy stock: no alert.
	_, err = ledgerSvc.Record(ctx, ledger.RecordInput{ItemID: item.ID, Type: ledger.MovementInbound, Quantity: 50, Supplier: "Acme", Operator: "dina"})
	require.NoError(t, err)

	entries, err := alertSvc.LowStock(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	// Issue stock down to the threshold boundary; the boundary itself fires.
	_, err = ledgerSvc.Record(ctx, ledger.RecordInput{ItemID: item.ID, Type: ledger.MovementOutbound, Quantity: 40, Operator: "dina"})
	require.NoError(t, err)

	entries, err = alertSvc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(10), entries[0].OnHand)
	require.Equal(t, int64(0), entries[0].Deficit)

	// Deeper below threshold, the deficit grows.
	_, err = ledgerSvc.Record(ctx, ledger.RecordInput{ItemID: item.ID, Type: ledger.MovementAdjustment, Direction: ledger.DirectionOut, Quantity: 5, Operator: "dina"})
	require.NoError(t, err)

	entries, err = alertSvc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(5), entries[0].Deficit)

	qty, err := ledgerSvc.QuantityOf(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, int64(5), qty)
}

func TestConsolidationReconcilesWithLedger(t *testing.T) {
	store := newMemoryStore()
	catalogSvc := catalog.NewService(store, nil)
	ledgerSvc := ledger.NewService(store, catalogSvc, nil, nil, nil)
	ledgerSvc.WithClock(func() time.Time {
		return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	})
	consolSvc := consol.NewService(store)
	ctx := context.Background()

	item, err := catalogSvc.Create(ctx, catalog.Item{SKU: "WID-1", Name: "Widget", ReorderThreshold: 0})
	require.NoError(t, err)

	inputs := []ledger.RecordInput{
		{ItemID: item.ID, Type: ledger.MovementInbound, Quantity: 100, Supplier: "Acme", Operator: "dina"},
		{ItemID: item.ID, Type: ledger.MovementInbound, Quantity: 20, Supplier: "Globex", Operator: "dina"},
		{ItemID: item.ID, Type: ledger.MovementOutbound, Quantity: 30, Supplier: "Acme", Operator: "dina"},
		{ItemID: item.ID, Type: ledger.MovementAdjustment, Direction: ledger.DirectionIn, Quantity: 5, Supplier: "Acme", Operator: "dina"},
	}
	for _, in := range inputs {
		_, err := ledgerSvc.Record(ctx, in)
		require.NoError(t, err)
	}

	rows, err := consolSvc.Consolidate(ctx, consol.Filters{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	var inbound, outbound int64
	for _, row := range rows {
		inbound += row.InboundTotal
		outbound += row.OutboundTotal
	}

	// Report totals always reconcile with the live projection.
	qty, err := ledgerSvc.QuantityOf(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, qty, inbound-outbound)

	onHand, folded, err := ledgerSvc.VerifyProjection(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, folded, onHand)
}
