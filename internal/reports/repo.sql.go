package reports

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ActiveItemCount returns the catalog size excluding tombstoned items.
func (r *PGRepository) ActiveItemCount(ctx context.Context) (int64, error) {
	if r == nil {
		return 0, errors.New("reports repository not initialised")
	}
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM items WHERE active`).Scan(&count)
	return count, err
}

// MovementCounts counts movements by direction inside the window. These are
// counts of transactions, not quantity sums; adjustments are counted by
// their declared direction.
func (r *PGRepository) MovementCounts(ctx context.Context, from, to time.Time) (int64, int64, error) {
	if r == nil {
		return 0, 0, errors.New("reports repository not initialised")
	}
	var inbound, outbound int64
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*) FILTER (WHERE direction = 'IN'),
COUNT(*) FILTER (WHERE direction = 'OUT')
FROM stock_movements
WHERE occurred_at BETWEEN COALESCE($1, '-infinity') AND COALESCE($2, 'infinity')`,
		nullTime(from), nullTime(to)).Scan(&inbound, &outbound)
	return inbound, outbound, err
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
