package product

import (
	"context"
	"fmt"

	"tillbook/internal/core/id"
	"tillbook/internal/core/tx"
	"tillbook/internal/core/types"
	"tillbook/pkg/logger"
)

// Service provides catalog operations for products.
// Stock and cost mutations are not exposed here; they belong to the stock ledger.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new product catalog service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// CreateInput carries the fields a caller may set on creation.
type CreateInput struct {
	TenantID id.ID
	SKU      string
	Name     string
	Price    types.Money
	MinStock int64
}

// Create registers a new product.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Product, error) {
	p := NewProduct(in.TenantID, in.SKU, in.Name, in.Price, in.MinStock)
	if err := p.Validate(ctx); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
	return p, nil
}

// UpdateInput carries mutable catalog fields.
type UpdateInput struct {
	Name     string
	Price    types.Money
	MinStock int64
	IsActive bool
}

// Update modifies catalog fields of an existing product.
// Quantity and cost are deliberately untouched here.
func (s *Service) Update(ctx context.Context, tenantID, productID id.ID, in UpdateInput) (*Product, error) {
	var p *Product
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetForUpdate(ctx, tenantID, productID)
		if err != nil {
			return err
		}

		p.Name = in.Name
		p.Price = in.Price
		p.MinStock = in.MinStock
		p.IsActive = in.IsActive
		p.Touch()

		if err := p.Validate(ctx); err != nil {
			return err
		}
		return s.repo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID fetches a single product.
func (s *Service) GetByID(ctx context.Context, tenantID, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, tenantID, productID)
}

// List fetches products with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, tenantID, f)
}

// Delete soft-deletes a product. Past movements keep referencing it.
func (s *Service) Delete(ctx context.Context, tenantID, productID id.ID) error {
	if err := s.repo.SoftDelete(ctx, tenantID, productID); err != nil {
		return err
	}
	logger.Info(ctx, "product deleted", "id", productID)
	return nil
}
