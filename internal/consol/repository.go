package consol

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads movement rows for consolidation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MovementsInWindow returns all movements whose occurred_at falls inside the
// inclusive window, joined with the owning item's name. Tombstoned items are
// included on purpose so historical reporting stays complete.
func (r *Repository) MovementsInWindow(ctx context.Context, from, to time.Time) ([]MovementRow, error) {
	if r == nil {
		return nil, errors.New("consol repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT m.item_id, i.name, m.supplier, m.direction, m.quantity, m.occurred_at
FROM stock_movements m
JOIN items i ON i.id = m.item_id
WHERE m.occurred_at BETWEEN COALESCE($1, '-infinity') AND COALESCE($2, 'infinity')
ORDER BY m.occurred_at ASC, m.id ASC`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []MovementRow{}
	for rows.Next() {
		var row MovementRow
		if err := rows.Scan(&row.ItemID, &row.ItemName, &row.Supplier, &row.Direction, &row.Quantity, &row.OccurredAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
