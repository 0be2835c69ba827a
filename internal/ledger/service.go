package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stockledger/stockledger/internal/platform/httpx"
	"github.com/stockledger/stockledger/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByItem(ctx context.Context, itemID int64) ([]Movement, error)
	ListAll(ctx context.Context, filter ListFilter) ([]Movement, error)
	QuantityOf(ctx context.Context, itemID int64) (int64, error)
	FoldQuantity(ctx context.Context, itemID int64) (int64, error)
	LevelItemIDs(ctx context.Context) ([]int64, error)
}

// ItemChecker reports whether an item exists and accepts movements.
type ItemChecker interface {
	ActiveItem(ctx context.Context, itemID int64) (bool, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort registers processed request keys so replays are rejected.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service coordinates ledger operations.
type Service struct {
	repo        RepositoryPort
	items       ItemChecker
	audit       AuditPort
	idempotency IdempotencyPort
	integration IntegrationHandler
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, items ItemChecker, audit AuditPort, idem IdempotencyPort, integration IntegrationHandler) *Service {
	return &Service{repo: repo, items: items, audit: audit, idempotency: idem, integration: integration, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Record appends one immutable movement. This is the only write path into the
// ledger. The sufficient-stock check and the append run inside one
// repeatable-read transaction with the level row locked, so two concurrent
// outbound calls against the same item cannot both pass the check against a
// stale quantity.
func (s *Service) Record(ctx context.Context, input RecordInput) (Movement, error) {
	direction, err := resolveDirection(input.Type, input.Direction)
	if err != nil {
		return Movement{}, err
	}
	if input.Quantity <= 0 {
		return Movement{}, ErrInvalidQuantity
	}
	if input.ItemID <= 0 {
		return Movement{}, ErrUnknownItem
	}
	if input.Operator == "" {
		return Movement{}, fmt.Errorf("ledger: operator attribution required: %w", httpx.ErrValidation)
	}
	active, err := s.items.ActiveItem(ctx, input.ItemID)
	if errors.Is(err, shared.ErrNotFound) {
		return Movement{}, ErrUnknownItem
	}
	if err != nil {
		return Movement{}, err
	}
	if !active {
		return Movement{}, shared.ErrInactiveItem
	}
	if input.RefID != "" {
		if _, err := uuid.Parse(input.RefID); err != nil {
			return Movement{}, fmt.Errorf("ledger: invalid ref id: %w", err)
		}
	}

	now := s.now().UTC()
	movement := Movement{
		ItemID:     input.ItemID,
		Type:       input.Type,
		Direction:  direction,
		Quantity:   input.Quantity,
		Supplier:   input.Supplier,
		Operator:   input.Operator,
		Note:       input.Note,
		RefID:      input.RefID,
		OccurredAt: now,
	}

	insertedKey := false
	key := ""
	if s.idempotency != nil && input.RefID != "" {
		key = fmt.Sprintf("movement:%s", input.RefID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "ledger"); err != nil {
			return Movement{}, err
		}
		insertedKey = true
	}

	var onHand int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		level, err := tx.GetLevelForUpdate(ctx, input.ItemID)
		if err != nil && !errors.Is(err, ErrLevelNotFound) {
			return err
		}
		newOnHand := level.OnHand + movement.Delta()
		if newOnHand < 0 {
			return ErrInsufficientStock
		}
		id, err := tx.InsertMovement(ctx, movement)
		if err != nil {
			return err
		}
		movement.ID = id
		movement.CreatedAt = now
		level.ItemID = input.ItemID
		level.OnHand = newOnHand
		if err := tx.UpsertLevel(ctx, level); err != nil {
			return err
		}
		onHand = newOnHand
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Movement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Operator: input.Operator,
			Action:   fmt.Sprintf("ledger:%s", movement.Type),
			Entity:   "stock_movement",
			EntityID: strconv.FormatInt(movement.ID, 10),
			Meta: map[string]any{
				"item_id":   movement.ItemID,
				"direction": movement.Direction,
				"quantity":  movement.Quantity,
				"supplier":  movement.Supplier,
				"on_hand":   onHand,
			},
		})
	}
	if s.integration != nil {
		// The movement is already durable at this point. Post-commit hooks
		// are best effort and must not turn a recorded append into an error.
		_ = s.integration.HandleMovementRecorded(ctx, MovementRecordedEvent{Movement: movement, OnHand: onHand})
	}
	return movement, nil
}

// QuantityOf returns the current on-hand quantity for the item.
func (s *Service) QuantityOf(ctx context.Context, itemID int64) (int64, error) {
	if itemID <= 0 {
		return 0, ErrUnknownItem
	}
	return s.repo.QuantityOf(ctx, itemID)
}

// ListByItem returns the item's movement history, oldest first.
func (s *Service) ListByItem(ctx context.Context, itemID int64) ([]Movement, error) {
	if itemID <= 0 {
		return nil, ErrUnknownItem
	}
	return s.repo.ListByItem(ctx, itemID)
}

// ListAll returns movements in the window, oldest first.
func (s *Service) ListAll(ctx context.Context, filter ListFilter) ([]Movement, error) {
	return s.repo.ListAll(ctx, filter)
}

// VerifyProjection compares the materialised level with a fold of the raw
// log. The two must agree after every accepted Record.
func (s *Service) VerifyProjection(ctx context.Context, itemID int64) (onHand, folded int64, err error) {
	onHand, err = s.repo.QuantityOf(ctx, itemID)
	if err != nil {
		return 0, 0, err
	}
	folded, err = s.repo.FoldQuantity(ctx, itemID)
	if err != nil {
		return 0, 0, err
	}
	return onHand, folded, nil
}

// ProjectedItemIDs lists every item carrying a projection row.
func (s *Service) ProjectedItemIDs(ctx context.Context) ([]int64, error) {
	return s.repo.LevelItemIDs(ctx)
}

func resolveDirection(t MovementType, d Direction) (Direction, error) {
	switch t {
	case MovementInbound:
		if d != "" && d != DirectionIn {
			return "", ErrInvalidMovement
		}
		return DirectionIn, nil
	case MovementOutbound:
		if d != "" && d != DirectionOut {
			return "", ErrInvalidMovement
		}
		return DirectionOut, nil
	case MovementAdjustment:
		if d != DirectionIn && d != DirectionOut {
			return "", ErrInvalidMovement
		}
		return d, nil
	default:
		return "", ErrInvalidMovement
	}
}
