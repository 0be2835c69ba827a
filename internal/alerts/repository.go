package alerts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads low-stock rows.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LowStock returns active items whose on-hand quantity is at or below their
// reorder threshold, most severe deficit first. Items without a level row
// count as zero on hand.
func (r *Repository) LowStock(ctx context.Context) ([]Entry, error) {
	if r == nil {
		return nil, errors.New("alerts repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.sku, i.name, i.default_supplier, COALESCE(l.on_hand, 0) AS on_hand, i.reorder_threshold
FROM items i
LEFT JOIN stock_levels l ON l.item_id = i.id
WHERE i.active AND COALESCE(l.on_hand, 0) <= i.reorder_threshold
ORDER BY i.reorder_threshold - COALESCE(l.on_hand, 0) DESC, i.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ItemID, &e.SKU, &e.Name, &e.DefaultSupplier, &e.OnHand, &e.ReorderThreshold); err != nil {
			return nil, err
		}
		e.Deficit = e.ReorderThreshold - e.OnHand
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
