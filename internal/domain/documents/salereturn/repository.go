package salereturn

import (
	"context"
	"time"

	"tillbook/internal/core/id"
)

// ListFilter narrows return listings.
type ListFilter struct {
	SaleID *id.ID
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Repository persists return documents.
type Repository interface {
	Create(ctx context.Context, r *Return) error

	// GetByID loads the return with its items.
	GetByID(ctx context.Context, tenantID, returnID id.ID) (*Return, error)

	List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Return, error)

	// ReturnedQuantities sums previously returned quantities per original
	// sale line for one sale.
	ReturnedQuantities(ctx context.Context, tenantID, saleID id.ID) (map[id.ID]int64, error)
}
