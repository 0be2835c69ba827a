package catalog

import (
	"fmt"
	"time"

	"github.com/stockledger/stockledger/internal/platform/httpx"
)

// Item represents one trackable stock-keeping unit.
type Item struct {
	ID               int64     `json:"id"`
	SKU              string    `json:"sku"`
	Name             string    `json:"name"`
	CategoryID       int64     `json:"category_id"`
	Unit             string    `json:"unit"`
	ReorderThreshold int64     `json:"reorder_threshold"`
	DefaultSupplier  string    `json:"default_supplier"`
	Location         string    `json:"location"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ListFilters narrows catalog listings.
type ListFilters struct {
	Search     string
	CategoryID *int64
	ActiveOnly bool
	Page       int
	PerPage    int
}

// ErrDuplicateSKU indicates the SKU is already taken.
var ErrDuplicateSKU = fmt.Errorf("catalog: sku already exists: %w", httpx.ErrDuplicate)

// ErrInvalidThreshold indicates a negative reorder threshold.
var ErrInvalidThreshold = fmt.Errorf("catalog: reorder threshold must be >= 0: %w", httpx.ErrValidation)
