package shared

import (
	"fmt"

	"github.com/stockledger/stockledger/internal/platform/httpx"
)

// Domain sentinels wrap the httpx ones, so httpx.RespondError can pick the
// status code without importing domain packages.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = httpx.ErrNotFound
	// ErrInactiveItem rejects writes against a tombstoned item. Distinct
	// from ErrNotFound: the item exists and history queries still resolve it.
	ErrInactiveItem = fmt.Errorf("item is inactive: %w", httpx.ErrConflict)
)
