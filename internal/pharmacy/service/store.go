package service

import (
	"context"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// StoreRequest is the body of a store create call
type StoreRequest struct {
	StoreCode string  `json:"store_code" validate:"required,max=20"`
	StoreName string  `json:"store_name" validate:"required,max=100"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	Status    string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// StoreService manages store locations
type StoreService struct {
	stores StoreDirectory
	logger *logger.Logger
}

// NewStoreService creates a new store service
func NewStoreService(stores StoreDirectory, log *logger.Logger) *StoreService {
	return &StoreService{stores: stores, logger: log.WithComponent("stores")}
}

// CreateStore adds a store
func (s *StoreService) CreateStore(ctx context.Context, req *StoreRequest) (*domain.Store, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}
	store := &domain.Store{
		StoreCode: req.StoreCode,
		StoreName: req.StoreName,
		Address:   req.Address,
		Status:    req.Status,
	}
	if store.Status == "" {
		store.Status = domain.StoreActive
	}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("store_id", store.ID).Str("store_code", store.StoreCode).Msg("store created")
	return store, nil
}

// GetStore gets a store by ID
func (s *StoreService) GetStore(ctx context.Context, id int64) (*domain.Store, error) {
	return s.stores.GetByID(ctx, id)
}

// ListStores lists every store by name
func (s *StoreService) ListStores(ctx context.Context) ([]*domain.Store, error) {
	return s.stores.List(ctx)
}
