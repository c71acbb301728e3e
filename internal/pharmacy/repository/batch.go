package repository

import (
	"context"
	"iter"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/shopspring/decimal"
)

const batchColumns = `id, product_id, store_id, batch_number, expiry_date, received_date,
	initial_quantity, current_quantity, unit_cost, selling_price, status, created_at, updated_at`

// BatchRepository handles stock batch persistence
type BatchRepository struct {
	db *database.DB
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a batch
func (r *BatchRepository) Create(ctx context.Context, b *domain.StockBatch) error {
	query := `
		INSERT INTO stock_batches (
			product_id, store_id, batch_number, expiry_date, received_date,
			initial_quantity, current_quantity, unit_cost, selling_price, status
		) VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Q(ctx).QueryRowxContext(ctx, query,
		b.ProductID, b.StoreID, b.BatchNumber, b.ExpiryDate, b.ReceivedDate,
		b.InitialQuantity, b.CurrentQuantity, b.UnitCost, b.SellingPrice, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	return database.Classify(err)
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id int64) (*domain.StockBatch, error) {
	var b domain.StockBatch
	query := `SELECT ` + batchColumns + ` FROM stock_batches WHERE id = $1`
	if err := r.db.Q(ctx).GetContext(ctx, &b, query, id); err != nil {
		return nil, notFoundOr(err, "batch")
	}
	return &b, nil
}

// Snapshot sums quantity and quantity × unit cost over the product's ACTIVE
// batches in a single statement.
func (r *BatchRepository) Snapshot(ctx context.Context, productID int64) (domain.StockSnapshot, error) {
	var s domain.StockSnapshot
	query := `
		SELECT COALESCE(SUM(current_quantity), 0) AS current_quantity,
			COALESCE(SUM(current_quantity * unit_cost), 0) AS value
		FROM stock_batches
		WHERE product_id = $1 AND status = 'ACTIVE'
	`
	if err := r.db.Q(ctx).GetContext(ctx, &s, query, productID); err != nil {
		return domain.StockSnapshot{}, database.Classify(err)
	}
	return s, nil
}

// LowestActivePrice returns the minimum selling price of saleable batches.
// The result is invalid when the product has none.
func (r *BatchRepository) LowestActivePrice(ctx context.Context, productID int64) (decimal.NullDecimal, error) {
	var price decimal.NullDecimal
	query := `
		SELECT MIN(selling_price) FROM stock_batches
		WHERE product_id = $1 AND status = 'ACTIVE' AND current_quantity > 0
	`
	if err := r.db.Q(ctx).GetContext(ctx, &price, query, productID); err != nil {
		return decimal.NullDecimal{}, database.Classify(err)
	}
	return price, nil
}

// ActiveFEFO streams the product's saleable batches, soonest expiry first
// (ties by id), at most limit of them. Every range over the sequence runs the
// query again. The rows stay open while the caller's loop body runs, so the
// body must not issue statements on the same transaction.
func (r *BatchRepository) ActiveFEFO(ctx context.Context, productID int64, limit int) iter.Seq2[*domain.StockBatch, error] {
	query := `
		SELECT ` + batchColumns + ` FROM stock_batches
		WHERE product_id = $1 AND status = 'ACTIVE' AND current_quantity > 0
		ORDER BY expiry_date, id
		LIMIT $2
	`
	return func(yield func(*domain.StockBatch, error) bool) {
		rows, err := r.db.Q(ctx).QueryxContext(ctx, query, productID, limit)
		if err != nil {
			yield(nil, database.Classify(err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var b domain.StockBatch
			if err := rows.StructScan(&b); err != nil {
				yield(nil, database.Classify(err))
				return
			}
			if !yield(&b, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, database.Classify(err))
		}
	}
}

// LockSaleable locks the product's saleable batches at a store that have not
// expired by today, in FEFO order. Must run inside a transaction.
func (r *BatchRepository) LockSaleable(ctx context.Context, productID, storeID int64, today domain.Date) ([]*domain.StockBatch, error) {
	query := `
		SELECT ` + batchColumns + ` FROM stock_batches
		WHERE product_id = $1 AND store_id = $2 AND status = 'ACTIVE'
			AND current_quantity > 0 AND expiry_date > $3::date
		ORDER BY expiry_date, id
		FOR UPDATE
	`
	batches := []*domain.StockBatch{}
	if err := r.db.Q(ctx).SelectContext(ctx, &batches, query, productID, storeID, today); err != nil {
		return nil, database.Classify(err)
	}
	return batches, nil
}

// Deduct takes qty units from a batch, marking it DEPLETED when it reaches zero.
// Returns the remaining quantity and status.
func (r *BatchRepository) Deduct(ctx context.Context, batchID int64, qty int) (int, string, error) {
	query := `
		UPDATE stock_batches SET
			current_quantity = current_quantity - $2,
			status = CASE WHEN current_quantity - $2 = 0 THEN 'DEPLETED' ELSE status END
		WHERE id = $1
		RETURNING current_quantity, status
	`
	var (
		remaining int
		status    string
	)
	err := r.db.Q(ctx).QueryRowxContext(ctx, query, batchID, qty).Scan(&remaining, &status)
	if err != nil {
		return 0, "", notFoundOr(err, "batch")
	}
	return remaining, status, nil
}

// HasStock reports whether any batch of the product still holds quantity
func (r *BatchRepository) HasStock(ctx context.Context, productID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM stock_batches WHERE product_id = $1 AND current_quantity > 0)`
	if err := r.db.Q(ctx).GetContext(ctx, &exists, query, productID); err != nil {
		return false, database.Classify(err)
	}
	return exists, nil
}

// ExpiringBetween returns ACTIVE batches with after < expiry_date <= through,
// soonest first (ties by id), at most limit of them.
func (r *BatchRepository) ExpiringBetween(ctx context.Context, after, through domain.Date, limit int) ([]domain.ExpiringBatch, error) {
	query := `
		SELECT b.id AS batch_id, b.product_id, p.product_name, b.batch_number, b.expiry_date,
			b.current_quantity, s.store_name
		FROM stock_batches b
		JOIN products p ON p.id = b.product_id
		JOIN stores s ON s.id = b.store_id
		WHERE b.status = 'ACTIVE' AND b.expiry_date > $1::date AND b.expiry_date <= $2::date
		ORDER BY b.expiry_date, b.id
		LIMIT $3
	`
	batches := []domain.ExpiringBatch{}
	if err := r.db.Q(ctx).SelectContext(ctx, &batches, query, after, through, limit); err != nil {
		return nil, database.Classify(err)
	}
	return batches, nil
}

// CountExpiringBetween counts the batches ExpiringBetween would return without a limit
func (r *BatchRepository) CountExpiringBetween(ctx context.Context, after, through domain.Date) (int, error) {
	var n int
	query := `
		SELECT COUNT(*) FROM stock_batches
		WHERE status = 'ACTIVE' AND expiry_date > $1::date AND expiry_date <= $2::date
	`
	if err := r.db.Q(ctx).GetContext(ctx, &n, query, after, through); err != nil {
		return 0, database.Classify(err)
	}
	return n, nil
}
