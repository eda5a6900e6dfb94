// Package purchase implements purchase orders and manual purchases that feed
// inventory through weighted-average costing.
package purchase

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusReceived  OrderStatus = "RECEIVED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Order is a purchase order document.
type Order struct {
	entity.BaseEntity

	// Number is the human-readable identifier, PO-YYYYMMDD-NNNN.
	Number string      `db:"number" json:"number"`
	Status OrderStatus `db:"status" json:"status"`

	Supplier string      `db:"supplier" json:"supplier"`
	Total    types.Money `db:"total" json:"total"`
	Notes    string      `db:"notes" json:"notes,omitempty"`

	CreatedBy id.ID `db:"created_by" json:"createdBy"`

	Items []*OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is one ordered line with its negotiated unit cost.
type OrderItem struct {
	ID          id.ID       `db:"id" json:"id"`
	OrderID     id.ID       `db:"order_id" json:"orderId"`
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitCost    types.Money `db:"unit_cost" json:"unitCost"`
	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
}

// Validate checks invariant fields.
func (o *Order) Validate(ctx context.Context) error {
	if len(o.Items) == 0 {
		return apperror.NewValidation("purchase order must have at least one item")
	}
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("productId", it.ProductID)
		}
		if it.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("productId", it.ProductID)
		}
	}
	return nil
}

// Recalculate derives the order total from its items.
func (o *Order) Recalculate() {
	total := types.Zero()
	for _, it := range o.Items {
		total = total.Add(it.Subtotal)
	}
	o.Total = total
}
