// Package opname implements stock opname (physical count) documents: a
// snapshot of system quantity against a counted quantity, and the adjustment
// that reconciles them.
package opname

import (
	"time"

	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
)

// Opname is a single-product count document.
type Opname struct {
	entity.BaseEntity

	ProductID   id.ID  `db:"product_id" json:"productId"`
	ProductName string `db:"product_name" json:"productName"`

	// SystemQty is the on-hand quantity snapshotted at creation.
	SystemQty int64 `db:"system_qty" json:"systemQty"`
	// ActualQty is the physically counted quantity.
	ActualQty int64 `db:"actual_qty" json:"actualQty"`
	// Difference is ActualQty - SystemQty.
	Difference int64 `db:"difference" json:"difference"`

	Notes string `db:"notes" json:"notes,omitempty"`

	Processed   bool       `db:"processed" json:"processed"`
	ProcessedAt *time.Time `db:"processed_at" json:"processedAt,omitempty"`
	ProcessedBy *id.ID     `db:"processed_by" json:"processedBy,omitempty"`

	CreatedBy id.ID `db:"created_by" json:"createdBy"`
}
