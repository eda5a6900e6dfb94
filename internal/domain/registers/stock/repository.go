// Package stock implements the append-only stock movement ledger and the
// weighted-average costing that rides on it.
package stock

import (
	"context"
	"time"

	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	Type   entity.MovementType // empty means any
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// DeadStockItem is a product that holds stock but has not sold recently.
type DeadStockItem struct {
	ProductID    id.ID       `db:"product_id" json:"productId"`
	SKU          string      `db:"sku" json:"sku"`
	Name         string      `db:"name" json:"name"`
	Quantity     int64       `db:"quantity" json:"quantity"`
	Cost         types.Money `db:"cost" json:"cost"`
	LastSoldAt   *time.Time  `db:"last_sold_at" json:"lastSoldAt,omitempty"`
	StockValue   types.Money `db:"stock_value" json:"stockValue"`
	DaysInactive int64       `json:"daysInactive"`
}

// Repository persists stock movements. Movements are append-only; there is
// no update or delete.
type Repository interface {
	CreateMovement(ctx context.Context, m *entity.StockMovement) error

	ListByProduct(ctx context.Context, tenantID, productID id.ID, f MovementFilter) ([]*entity.StockMovement, error)

	// DeadStock returns products with quantity > 0 and no OUT movement
	// at or after since.
	DeadStock(ctx context.Context, tenantID id.ID, since time.Time) ([]*DeadStockItem, error)
}
