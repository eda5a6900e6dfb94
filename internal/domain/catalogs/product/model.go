// Package product provides the product catalog.
//
// Quantity and Cost are owned by the stock ledger: every change to them goes
// through a recorded movement or a WAC recomputation, never a plain update.
package product

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Product represents a sellable item with its current stock state.
type Product struct {
	entity.BaseEntity

	SKU  string `db:"sku" json:"sku"`
	Name string `db:"name" json:"name"`

	// Price is the current selling price per unit
	Price types.Money `db:"price" json:"price"`

	// Cost is the weighted-average cost per unit, recomputed on every
	// purchase-driven stock increase
	Cost types.Money `db:"cost" json:"cost"`

	// Quantity is the current on-hand quantity; always equals the sum of
	// all movement deltas since creation, never negative
	Quantity int64 `db:"quantity" json:"quantity"`

	// MinStock is the low-stock threshold (qty <= MinStock flags the product)
	MinStock int64 `db:"min_stock" json:"minStock"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewProduct creates a product with zero stock and zero cost.
func NewProduct(tenantID id.ID, sku, name string, price types.Money, minStock int64) *Product {
	return &Product{
		BaseEntity: entity.NewBaseEntity(tenantID),
		SKU:        sku,
		Name:       name,
		Price:      price,
		Cost:       types.Zero(),
		MinStock:   minStock,
		IsActive:   true,
	}
}

// Validate checks invariant fields.
func (p *Product) Validate(ctx context.Context) error {
	if id.IsNil(p.TenantID) {
		return apperror.NewValidation("tenant is required").WithDetail("field", "tenantId")
	}
	if p.SKU == "" {
		return apperror.NewValidation("sku is required").WithDetail("field", "sku")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").WithDetail("field", "price")
	}
	if p.MinStock < 0 {
		return apperror.NewValidation("min stock must not be negative").WithDetail("field", "minStock")
	}
	return nil
}

// IsLowStock reports whether the product is at or below its threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// IsOutOfStock reports whether the product has no units on hand.
func (p *Product) IsOutOfStock() bool {
	return p.Quantity == 0
}
