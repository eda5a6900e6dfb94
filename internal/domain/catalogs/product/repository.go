package product

import (
	"context"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// ListFilter narrows product listings.
type ListFilter struct {
	Search     string // matches SKU or name
	ActiveOnly bool
	Limit      int
	Offset     int
}

// Repository defines persistence operations for products.
// Soft-deleted rows are invisible to every method except where noted.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, tenantID, productID id.ID) (*Product, error)

	// GetForUpdate loads the product with a row-level lock (FOR UPDATE).
	// Must be called within a transaction; the lock is held until commit.
	// All read-then-write quantity/cost mutations go through this.
	GetForUpdate(ctx context.Context, tenantID, productID id.ID) (*Product, error)

	// UpdateStock sets the on-hand quantity. Only the stock ledger calls this.
	UpdateStock(ctx context.Context, tenantID, productID id.ID, quantity int64) error

	// UpdateCost sets the weighted-average cost. Only the stock ledger calls this.
	UpdateCost(ctx context.Context, tenantID, productID id.ID, cost types.Money) error

	List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Product, error)

	// ListLowStock returns active products with quantity <= min_stock.
	ListLowStock(ctx context.Context, tenantID id.ID) ([]*Product, error)

	SoftDelete(ctx context.Context, tenantID, productID id.ID) error
}
