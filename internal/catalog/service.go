package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stockledger/stockledger/internal/platform/httpx"
	"github.com/stockledger/stockledger/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates catalog operations.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// List returns items matching the filters plus a total count.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Item, int, error) {
	return s.repo.List(ctx, filters)
}

// Get loads one item by id.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	if id <= 0 {
		return Item{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// GetBySKU loads one item by its SKU code.
func (s *Service) GetBySKU(ctx context.Context, sku string) (Item, error) {
	if sku == "" {
		return Item{}, shared.ErrNotFound
	}
	return s.repo.GetBySKU(ctx, sku)
}

// Create registers a new item.
func (s *Service) Create(ctx context.Context, item Item) (Item, error) {
	if err := s.validate(item); err != nil {
		return Item{}, err
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return Item{}, err
	}
	s.auditLog(ctx, "catalog:create", created.ID, map[string]any{"sku": created.SKU, "name": created.Name})
	return created, nil
}

// Update mutates descriptive fields only. Quantity is never writable here;
// stock changes go through the ledger.
func (s *Service) Update(ctx context.Context, id int64, item Item) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	if err := s.validate(item); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, item); err != nil {
		return err
	}
	s.auditLog(ctx, "catalog:update", id, map[string]any{"name": item.Name, "threshold": item.ReorderThreshold})
	return nil
}

// Delete removes an item. Items with ledger history are tombstoned instead of
// hard-deleted so historical consolidation and ledger queries stay valid.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrNotFound
	}
	hasHistory, err := s.repo.HasMovements(ctx, id)
	if err != nil {
		return err
	}
	if hasHistory {
		if err := s.repo.Deactivate(ctx, id); err != nil {
			return err
		}
		s.auditLog(ctx, "catalog:tombstone", id, nil)
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditLog(ctx, "catalog:delete", id, nil)
	return nil
}

// ActiveItem reports whether the item accepts movements. An unknown id
// surfaces shared.ErrNotFound so callers can tell a missing item apart from
// a tombstoned one.
func (s *Service) ActiveItem(ctx context.Context, id int64) (bool, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return item.Active, nil
}

func (s *Service) validate(item Item) error {
	if item.SKU == "" {
		return fmt.Errorf("catalog: sku required: %w", httpx.ErrValidation)
	}
	if item.Name == "" {
		return fmt.Errorf("catalog: name required: %w", httpx.ErrValidation)
	}
	if item.ReorderThreshold < 0 {
		return ErrInvalidThreshold
	}
	return nil
}

func (s *Service) auditLog(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "item",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
