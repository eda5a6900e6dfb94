// Package salereturn implements returns against completed sales: eligibility
// window, per-line over-return bounds, stock restoration, and refund booking.
package salereturn

import (
	"time"

	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// ReturnWindow is how long after completion a sale accepts returns.
const ReturnWindow = 72 * time.Hour

// Return is a return document against a single sale.
type Return struct {
	entity.BaseEntity

	// Number is the human-readable identifier, RTN-YYYYMMDD-NNNN.
	Number string `db:"number" json:"number"`

	SaleID     id.ID  `db:"sale_id" json:"saleId"`
	SaleNumber string `db:"sale_number" json:"saleNumber"`

	Total types.Money `db:"total" json:"total"`

	Reason      string `db:"reason" json:"reason,omitempty"`
	ProcessedBy id.ID  `db:"processed_by" json:"processedBy"`

	Items []*ReturnItem `db:"-" json:"items,omitempty"`
}

// ReturnItem is one returned line, tied to the original sale line so the
// cumulative returned quantity per line can be bounded.
type ReturnItem struct {
	ID          id.ID       `db:"id" json:"id"`
	ReturnID    id.ID       `db:"return_id" json:"returnId"`
	SaleItemID  id.ID       `db:"sale_item_id" json:"saleItemId"`
	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int64       `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	Subtotal    types.Money `db:"subtotal" json:"subtotal"`
}
