package repository

import (
	"context"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/database"
)

// StoreRepository handles store persistence
type StoreRepository struct {
	db *database.DB
}

// NewStoreRepository creates a new store repository
func NewStoreRepository(db *database.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// Create inserts a store
func (r *StoreRepository) Create(ctx context.Context, s *domain.Store) error {
	query := `
		INSERT INTO stores (store_code, store_name, address, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.Q(ctx).QueryRowxContext(ctx, query, s.StoreCode, s.StoreName, s.Address, s.Status).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	return database.Classify(err)
}

// GetByID gets a store by ID
func (r *StoreRepository) GetByID(ctx context.Context, id int64) (*domain.Store, error) {
	var s domain.Store
	if err := r.db.Q(ctx).GetContext(ctx, &s, `SELECT * FROM stores WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, "store")
	}
	return &s, nil
}

// GetByCode gets a store by its store code
func (r *StoreRepository) GetByCode(ctx context.Context, code string) (*domain.Store, error) {
	var s domain.Store
	if err := r.db.Q(ctx).GetContext(ctx, &s, `SELECT * FROM stores WHERE store_code = $1`, code); err != nil {
		return nil, notFoundOr(err, "store")
	}
	return &s, nil
}

// List lists all stores by name
func (r *StoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	stores := []*domain.Store{}
	if err := r.db.Q(ctx).SelectContext(ctx, &stores, `SELECT * FROM stores ORDER BY store_name, id`); err != nil {
		return nil, database.Classify(err)
	}
	return stores, nil
}

// Count returns the number of stores
func (r *StoreRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Q(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM stores`); err != nil {
		return 0, database.Classify(err)
	}
	return n, nil
}
