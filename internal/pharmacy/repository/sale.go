package repository

import (
	"context"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
)

// SaleRepository handles sale transaction persistence
type SaleRepository struct {
	db *database.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *database.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts a sale and its items. Call it inside a transaction so the
// items and the stock deductions commit together.
func (r *SaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	q := r.db.Q(ctx)

	query := `
		INSERT INTO sale_transactions (receipt_number, store_id, transaction_type, total_amount, performed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, transaction_date, created_at
	`
	if err := q.QueryRowxContext(ctx, query,
		s.ReceiptNumber, s.StoreID, s.TransactionType, s.TotalAmount, s.PerformedBy,
	).Scan(&s.ID, &s.TransactionDate, &s.CreatedAt); err != nil {
		return database.Classify(err)
	}

	itemQuery := `
		INSERT INTO sale_items (sale_id, product_id, batch_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range s.Items {
		item := &s.Items[i]
		item.SaleID = s.ID
		if err := q.QueryRowxContext(ctx, itemQuery,
			item.SaleID, item.ProductID, item.BatchID, item.Quantity, item.UnitPrice, item.LineTotal,
		).Scan(&item.ID); err != nil {
			return database.Classify(err)
		}
	}

	return nil
}

// GetByID loads a sale with its items
func (r *SaleRepository) GetByID(ctx context.Context, id int64) (*domain.Sale, error) {
	var s domain.Sale
	query := `
		SELECT t.id, t.receipt_number, t.store_id, s.store_name, t.transaction_type,
			t.transaction_date, t.total_amount, t.performed_by, t.created_at
		FROM sale_transactions t
		JOIN stores s ON s.id = t.store_id
		WHERE t.id = $1
	`
	if err := r.db.Q(ctx).GetContext(ctx, &s, query, id); err != nil {
		return nil, notFoundOr(err, "sale")
	}

	itemQuery := `
		SELECT i.id, i.sale_id, i.product_id, p.product_name, i.batch_id, b.batch_number,
			i.quantity, i.unit_price, i.line_total
		FROM sale_items i
		JOIN products p ON p.id = i.product_id
		JOIN stock_batches b ON b.id = i.batch_id
		WHERE i.sale_id = $1
		ORDER BY i.id
	`
	s.Items = []domain.SaleItem{}
	if err := r.db.Q(ctx).SelectContext(ctx, &s.Items, itemQuery, id); err != nil {
		return nil, database.Classify(err)
	}
	return &s, nil
}

// Summary counts SALE transactions in [from, to) and sums their totals
func (r *SaleRepository) Summary(ctx context.Context, from, to time.Time) (domain.DailySummary, error) {
	var out domain.DailySummary
	query := `
		SELECT COUNT(*) AS transactions, COALESCE(SUM(total_amount), 0) AS total_amount
		FROM sale_transactions
		WHERE transaction_type = 'SALE' AND transaction_date >= $1 AND transaction_date < $2
	`
	if err := r.db.Q(ctx).GetContext(ctx, &out, query, from, to); err != nil {
		return domain.DailySummary{}, database.Classify(err)
	}
	return out, nil
}

// TopProducts ranks products by units sold in SALE transactions within
// [from, to). Ties go to revenue, then product id.
func (r *SaleRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	query := `
		SELECT i.product_id, p.product_code, p.product_name,
			SUM(i.quantity) AS quantity_sold,
			COALESCE(SUM(i.line_total), 0) AS revenue,
			COUNT(DISTINCT i.sale_id) AS transactions
		FROM sale_items i
		JOIN sale_transactions t ON t.id = i.sale_id
		JOIN products p ON p.id = i.product_id
		WHERE t.transaction_type = 'SALE' AND t.transaction_date >= $1 AND t.transaction_date < $2
		GROUP BY i.product_id, p.product_code, p.product_name
		ORDER BY quantity_sold DESC, revenue DESC, i.product_id
		LIMIT $3
	`
	top := []domain.TopProduct{}
	if err := r.db.Q(ctx).SelectContext(ctx, &top, query, from, to, limit); err != nil {
		return nil, database.Classify(err)
	}
	return top, nil
}

// Recent returns the latest sales, newest first
func (r *SaleRepository) Recent(ctx context.Context, limit int) ([]domain.Sale, error) {
	query := `
		SELECT t.id, t.receipt_number, t.store_id, s.store_name, t.transaction_type,
			t.transaction_date, t.total_amount, t.performed_by, t.created_at
		FROM sale_transactions t
		JOIN stores s ON s.id = t.store_id
		ORDER BY t.transaction_date DESC, t.id DESC
		LIMIT $1
	`
	sales := []domain.Sale{}
	if err := r.db.Q(ctx).SelectContext(ctx, &sales, query, limit); err != nil {
		return nil, database.Classify(err)
	}
	return sales, nil
}
