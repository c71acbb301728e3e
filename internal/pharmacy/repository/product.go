package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
)

const productColumns = `id, product_code, product_name, generic_name, barcode, min_stock, max_stock,
	reorder_level, status, unit_name, unit_symbol, strength, dosage_form, storage_conditions,
	created_at, updated_at`

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a product and fills in its id and timestamps
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			product_code, product_name, generic_name, barcode, min_stock, max_stock,
			reorder_level, status, unit_name, unit_symbol, strength, dosage_form, storage_conditions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`

	err := r.db.Q(ctx).QueryRowxContext(ctx, query,
		p.ProductCode, p.ProductName, p.GenericName, p.Barcode, p.MinStock, p.MaxStock,
		p.ReorderLevel, p.Status, p.UnitName, p.UnitSymbol, p.Strength, p.DosageForm,
		p.StorageConditions,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return database.Classify(err)
}

// SetBarcode assigns a barcode to an existing product
func (r *ProductRepository) SetBarcode(ctx context.Context, id int64, barcode string) error {
	result, err := r.db.Q(ctx).ExecContext(ctx, `UPDATE products SET barcode = $2 WHERE id = $1`, id, barcode)
	if err != nil {
		return database.Classify(err)
	}
	return expectOne(result, "product")
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := r.db.Q(ctx).GetContext(ctx, &p, query, id); err != nil {
		return nil, notFoundOr(err, "product")
	}
	return &p, nil
}

// GetByBarcode finds a product by exact barcode
func (r *ProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`
	if err := r.db.Q(ctx).GetContext(ctx, &p, query, barcode); err != nil {
		return nil, notFoundOr(err, "product")
	}
	return &p, nil
}

// GetByCode finds a product by its product code
func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE product_code = $1`
	if err := r.db.Q(ctx).GetContext(ctx, &p, query, code); err != nil {
		return nil, notFoundOr(err, "product")
	}
	return &p, nil
}

// FindFirst returns the first product, by name, whose code, name, generic
// name or barcode contains term (case-insensitive).
func (r *ProductRepository) FindFirst(ctx context.Context, term string) (*domain.Product, error) {
	var p domain.Product
	query := `
		SELECT ` + productColumns + ` FROM products
		WHERE product_code ILIKE $1 OR product_name ILIKE $1
			OR generic_name ILIKE $1 OR barcode ILIKE $1
		ORDER BY product_name, id
		LIMIT 1
	`
	if err := r.db.Q(ctx).GetContext(ctx, &p, query, likePattern(term)); err != nil {
		return nil, notFoundOr(err, "product")
	}
	return &p, nil
}

// List returns a page of products ordered by name, plus the total match count
func (r *ProductRepository) List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(product_code ILIKE $%d OR product_name ILIKE $%d OR generic_name ILIKE $%d OR barcode ILIKE $%d)",
			n, n, n, n))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.Q(ctx).GetContext(ctx, &total, `SELECT COUNT(*) FROM products`+clause, args...); err != nil {
		return nil, 0, database.Classify(err)
	}

	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY product_name, id LIMIT $%d OFFSET $%d`,
		productColumns, clause, len(args)-1, len(args))

	products := []*domain.Product{}
	if err := r.db.Q(ctx).SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, database.Classify(err)
	}
	return products, total, nil
}

// Update writes every mutable field. The product code is immutable.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products SET
			product_name = $2, generic_name = $3, barcode = $4, min_stock = $5, max_stock = $6,
			reorder_level = $7, status = $8, unit_name = $9, unit_symbol = $10, strength = $11,
			dosage_form = $12, storage_conditions = $13
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.Q(ctx).QueryRowxContext(ctx, query,
		p.ID, p.ProductName, p.GenericName, p.Barcode, p.MinStock, p.MaxStock,
		p.ReorderLevel, p.Status, p.UnitName, p.UnitSymbol, p.Strength, p.DosageForm,
		p.StorageConditions,
	).Scan(&p.UpdatedAt)
	return notFoundOr(err, "product")
}

// Delete removes a product. Products referenced by batches or sales cannot be removed.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Q(ctx).ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == "23503" {
			return errors.Conflict("product has stock or sales history; set its status to DISCONTINUED instead")
		}
		return database.Classify(err)
	}
	return expectOne(result, "product")
}

// Count returns the number of catalog entries
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Q(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, database.Classify(err)
	}
	return n, nil
}

// MonitoredProducts returns every product with min_stock > 0 together with its
// current ACTIVE stock. Products without batches report 0.
func (r *ProductRepository) MonitoredProducts(ctx context.Context) ([]domain.MonitoredProduct, error) {
	query := `
		SELECT p.id AS product_id, p.product_name, p.min_stock, p.unit_name, p.unit_symbol,
			COALESCE(SUM(b.current_quantity), 0) AS current_quantity
		FROM products p
		LEFT JOIN stock_batches b ON b.product_id = p.id AND b.status = 'ACTIVE'
		WHERE p.min_stock > 0
		GROUP BY p.id, p.product_name, p.min_stock, p.unit_name, p.unit_symbol
	`
	products := []domain.MonitoredProduct{}
	if err := r.db.Q(ctx).SelectContext(ctx, &products, query); err != nil {
		return nil, database.Classify(err)
	}
	return products, nil
}

func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func notFoundOr(err error, resource string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	return database.Classify(err)
}

func expectOne(result sql.Result, resource string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return database.Classify(err)
	}
	if affected == 0 {
		return errors.NotFound(resource)
	}
	return nil
}
