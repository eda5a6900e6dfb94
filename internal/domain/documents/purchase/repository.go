package purchase

import (
	"context"
	"time"

	"tillbook/internal/core/id"
)

// ListFilter narrows purchase order listings.
type ListFilter struct {
	Status OrderStatus // empty means any
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Repository persists purchase orders and their items.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error

	// GetByID loads the order with its items.
	GetByID(ctx context.Context, tenantID, orderID id.ID) (*Order, error)

	List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Order, error)
}
