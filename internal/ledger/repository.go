package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists ledger data in PostgreSQL. The stock_movements table is
// append-only; there is no update or delete statement anywhere in this file.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetLevelForUpdate(ctx context.Context, itemID int64) (Level, error)
	InsertMovement(ctx context.Context, m Movement) (int64, error)
	UpsertLevel(ctx context.Context, level Level) error
}

type txRepository struct {
	tx pgx.Tx
}

// ErrLevelNotFound indicates a missing stock level row.
var ErrLevelNotFound = errors.New("stock level not found")

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const movementColumns = `id, item_id, movement_type, direction, quantity, supplier, operator, note, ref_id, occurred_at, created_at`

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		var refID *string
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Type, &m.Direction, &m.Quantity, &m.Supplier, &m.Operator, &m.Note, &refID, &m.OccurredAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		if refID != nil {
			m.RefID = *refID
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// ListByItem returns the full movement history of one item, oldest first,
// with a stable id tie-break for equal timestamps.
func (r *Repository) ListByItem(ctx context.Context, itemID int64) ([]Movement, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements
WHERE item_id=$1
ORDER BY occurred_at ASC, id ASC`, itemID)
	if err != nil {
		return nil, err
	}
	return scanMovements(rows)
}

// ListAll returns movements inside the optional time window, oldest first.
func (r *Repository) ListAll(ctx context.Context, filter ListFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 10000
	}
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+` FROM stock_movements
WHERE occurred_at BETWEEN COALESCE($1, '-infinity') AND COALESCE($2, 'infinity')
ORDER BY occurred_at ASC, id ASC
LIMIT $3`, nullTime(filter.From), nullTime(filter.To), limit)
	if err != nil {
		return nil, err
	}
	return scanMovements(rows)
}

// QuantityOf reads the materialised on-hand quantity. Missing rows mean zero.
func (r *Repository) QuantityOf(ctx context.Context, itemID int64) (int64, error) {
	var onHand int64
	err := r.pool.QueryRow(ctx, `SELECT on_hand FROM stock_levels WHERE item_id=$1`, itemID).Scan(&onHand)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return onHand, err
}

// FoldQuantity recomputes the on-hand quantity from the raw movement log.
// Used by the integrity scan to verify the projection.
func (r *Repository) FoldQuantity(ctx context.Context, itemID int64) (int64, error) {
	var folded int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN direction='OUT' THEN -quantity ELSE quantity END), 0)
FROM stock_movements WHERE item_id=$1`, itemID).Scan(&folded)
	return folded, err
}

// LevelItemIDs lists every item with a stock level row.
func (r *Repository) LevelItemIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT item_id FROM stock_levels ORDER BY item_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepository) GetLevelForUpdate(ctx context.Context, itemID int64) (Level, error) {
	var level Level
	err := r.tx.QueryRow(ctx, `SELECT item_id, on_hand, updated_at FROM stock_levels WHERE item_id=$1 FOR UPDATE`, itemID).
		Scan(&level.ItemID, &level.OnHand, &level.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Level{ItemID: itemID}, ErrLevelNotFound
		}
		return Level{}, err
	}
	return level, nil
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO stock_movements (item_id, movement_type, direction, quantity, supplier, operator, note, ref_id, occurred_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW()) RETURNING id`,
		m.ItemID, string(m.Type), string(m.Direction), m.Quantity, m.Supplier, m.Operator, m.Note, nullString(m.RefID), m.OccurredAt).Scan(&id)
	return id, err
}

func (r *txRepository) UpsertLevel(ctx context.Context, level Level) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_levels (item_id, on_hand, updated_at)
VALUES ($1,$2,NOW())
ON CONFLICT (item_id) DO UPDATE SET on_hand=EXCLUDED.on_hand, updated_at=NOW()`, level.ItemID, level.OnHand)
	return err
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
