package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockledger/stockledger/internal/shared"
)

type memoryRepo struct {
	levels    map[int64]Level
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{levels: make(map[int64]Level)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := make([]Movement, len(r.movements))
	copy(before, r.movements)
	levels := make(map[int64]Level, len(r.levels))
	for k, v := range r.levels {
		levels[k] = v
	}
	nextID := r.nextID
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.movements = before
		r.levels = levels
		r.nextID = nextID
		return err
	}
	return nil
}

func (r *memoryRepo) ListByItem(ctx context.Context, itemID int64) ([]Movement, error) {
	out := []Movement{}
	for _, m := range r.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListAll(ctx context.Context, filter ListFilter) ([]Movement, error) {
	out := []Movement{}
	for _, m := range r.movements {
		if !filter.From.IsZero() && m.OccurredAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.OccurredAt.After(filter.To) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *memoryRepo) QuantityOf(ctx context.Context, itemID int64) (int64, error) {
	return r.levels[itemID].OnHand, nil
}

func (r *memoryRepo) FoldQuantity(ctx context.Context, itemID int64) (int64, error) {
	var total int64
	for _, m := range r.movements {
		if m.ItemID == itemID {
			total += m.Delta()
		}
	}
	return total, nil
}

func (r *memoryRepo) LevelItemIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	for id := range r.levels {
		ids = append(ids, id)
	}
	return ids, nil
}

func (tx *memoryTx) GetLevelForUpdate(ctx context.Context, itemID int64) (Level, error) {
	if level, ok := tx.repo.levels[itemID]; ok {
		return level, nil
	}
	return Level{ItemID: itemID}, ErrLevelNotFound
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	tx.repo.movements = append(tx.repo.movements, m)
	return m.ID, nil
}

func (tx *memoryTx) UpsertLevel(ctx context.Context, level Level) error {
	tx.repo.levels[level.ItemID] = level
	return nil
}

type allowAllItems struct{}

func (allowAllItems) ActiveItem(ctx context.Context, itemID int64) (bool, error) {
	return true, nil
}

// knownItems maps item id to its active flag; ids absent from the map do not
// exist at all.
type knownItems map[int64]bool

func (k knownItems) ActiveItem(ctx context.Context, itemID int64) (bool, error) {
	active, ok := k[itemID]
	if !ok {
		return false, shared.ErrNotFound
	}
	return active, nil
}

type memoryIdemStore struct {
	keys map[string]string
}

func newMemoryIdemStore() *memoryIdemStore {
	return &memoryIdemStore{keys: make(map[string]string)}
}

func (s *memoryIdemStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := s.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = module
	return nil
}

func (s *memoryIdemStore) Delete(ctx context.Context, key string) error {
	delete(s.keys, key)
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	svc := NewService(repo, allowAllItems{}, nil, nil, nil)
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return base })
	return svc
}

func TestRecordAndQuantity(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	m, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 50, Supplier: "Acme", Operator: "dina"})
	require.NoError(t, err)
	require.Equal(t, DirectionIn, m.Direction)
	require.NotZero(t, m.ID)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementOutbound, Quantity: 30, Operator: "dina"})
	require.NoError(t, err)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementAdjustment, Direction: DirectionOut, Quantity: 15, Operator: "dina"})
	require.NoError(t, err)

	qty, err := svc.QuantityOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(5), qty)
}

func TestInsufficientStockRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 10, Operator: "dina"})
	require.NoError(t, err)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementOutbound, Quantity: 11, Operator: "dina"})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// A rejected movement must leave both the log and the projection untouched.
	qty, err := svc.QuantityOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), qty)

	history, err := svc.ListByItem(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestOutboundFromEmptyRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Record(context.Background(), RecordInput{ItemID: 7, Type: MovementOutbound, Quantity: 1, Operator: "dina"})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestQuantityValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 0, Operator: "dina"})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: -5, Operator: "dina"})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdjustmentRequiresDirection(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementAdjustment, Quantity: 5, Operator: "dina"})
	require.ErrorIs(t, err, ErrInvalidMovement)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Direction: DirectionOut, Quantity: 5, Operator: "dina"})
	require.ErrorIs(t, err, ErrInvalidMovement)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: "TRANSFER", Quantity: 5, Operator: "dina"})
	require.ErrorIs(t, err, ErrInvalidMovement)
}

func TestUnknownItemRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, knownItems{1: true}, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ItemID: 2, Type: MovementInbound, Quantity: 5, Operator: "dina"})
	require.ErrorIs(t, err, ErrUnknownItem)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 5, Operator: "dina"})
	require.NoError(t, err)
}

func TestTombstonedItemRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, knownItems{1: false}, nil, nil, nil)

	_, err := svc.Record(context.Background(), RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 5, Operator: "dina"})
	require.ErrorIs(t, err, shared.ErrInactiveItem)

	history, err := svc.ListByItem(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestOperatorRequired(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	_, err := svc.Record(context.Background(), RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 5})
	require.Error(t, err)
}

func TestProjectionMatchesFold(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	inputs := []RecordInput{
		{ItemID: 1, Type: MovementInbound, Quantity: 100, Operator: "dina"},
		{ItemID: 1, Type: MovementOutbound, Quantity: 40, Operator: "dina"},
		{ItemID: 1, Type: MovementAdjustment, Direction: DirectionIn, Quantity: 3, Operator: "dina"},
		{ItemID: 1, Type: MovementAdjustment, Direction: DirectionOut, Quantity: 13, Operator: "dina"},
	}
	for _, in := range inputs {
		_, err := svc.Record(ctx, in)
		require.NoError(t, err)
	}

	onHand, folded, err := svc.VerifyProjection(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, folded, onHand)
	require.Equal(t, int64(50), onHand)
}

func TestMovementTimestampsUTC(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, allowAllItems{}, nil, nil, nil)
	jakarta := time.FixedZone("WIB", 7*3600)
	svc.WithClock(func() time.Time {
		return time.Date(2026, 3, 10, 2, 30, 0, 0, jakarta)
	})

	m, err := svc.Record(context.Background(), RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 1, Operator: "dina"})
	require.NoError(t, err)
	require.Equal(t, time.UTC, m.OccurredAt.Location())
	require.Equal(t, 19, m.OccurredAt.Hour())
	require.Equal(t, 9, m.OccurredAt.Day())
}

func TestIntegrationEventCarriesOnHand(t *testing.T) {
	repo := newMemoryRepo()
	var got MovementRecordedEvent
	handler := integrationFunc(func(ctx context.Context, evt MovementRecordedEvent) error {
		got = evt
		return nil
	})
	svc := NewService(repo, allowAllItems{}, nil, nil, handler)
	ctx := context.Background()

	_, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 25, Operator: "dina"})
	require.NoError(t, err)
	require.Equal(t, int64(25), got.OnHand)
	require.Equal(t, MovementInbound, got.Movement.Type)
}

func TestIntegrationFailureDoesNotFailRecord(t *testing.T) {
	repo := newMemoryRepo()
	handler := integrationFunc(func(ctx context.Context, evt MovementRecordedEvent) error {
		return context.DeadlineExceeded
	})
	svc := NewService(repo, allowAllItems{}, nil, nil, handler)
	ctx := context.Background()

	// The movement commits before the hook runs, so a hook failure must not
	// surface as a failed append.
	m, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 8, Operator: "dina"})
	require.NoError(t, err)
	require.NotZero(t, m.ID)

	qty, err := svc.QuantityOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(8), qty)
}

func TestDuplicateRefIDRejected(t *testing.T) {
	repo := newMemoryRepo()
	store := newMemoryIdemStore()
	svc := NewService(repo, allowAllItems{}, nil, store, nil)
	ctx := context.Background()
	refID := "5f0c6f21-9ad0-4c38-9a9a-8f3f6f0c2d11"

	_, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 10, Operator: "dina", RefID: refID})
	require.NoError(t, err)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 10, Operator: "dina", RefID: refID})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)

	// The replay must not double-append.
	history, err := svc.ListByItem(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)

	qty, err := svc.QuantityOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(10), qty)
}

func TestFailedWriteReleasesIdempotencyKey(t *testing.T) {
	repo := newMemoryRepo()
	store := newMemoryIdemStore()
	svc := NewService(repo, allowAllItems{}, nil, store, nil)
	ctx := context.Background()
	refID := "9d2b1c30-43aa-4e56-b1f4-6d7c9e0a5b22"

	_, err := svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementOutbound, Quantity: 5, Operator: "dina", RefID: refID})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Empty(t, store.keys)

	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementInbound, Quantity: 20, Operator: "dina"})
	require.NoError(t, err)

	// The key was rolled back with the failed write, so retrying with the
	// same ref id goes through.
	_, err = svc.Record(ctx, RecordInput{ItemID: 1, Type: MovementOutbound, Quantity: 5, Operator: "dina", RefID: refID})
	require.NoError(t, err)

	qty, err := svc.QuantityOf(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(15), qty)
}

type integrationFunc func(context.Context, MovementRecordedEvent) error

func (f integrationFunc) HandleMovementRecorded(ctx context.Context, evt MovementRecordedEvent) error {
	return f(ctx, evt)
}
