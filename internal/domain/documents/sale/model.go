// Package sale implements sales transactions: drafting, completion with
// payment and stock deduction, voiding, and day-end locking.
package sale

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// Status is the lifecycle state of a sale.
type Status string

const (
	// StatusDraft is an open cart; no stock or cash effect yet.
	StatusDraft Status = "DRAFT"
	// StatusCompleted means payment settled and stock deducted.
	StatusCompleted Status = "COMPLETED"
	// StatusLocked is a completed sale past the day-end sweep; it can no
	// longer be voided, only returned against.
	StatusLocked Status = "LOCKED"
)

// Transaction is a sale document.
type Transaction struct {
	entity.BaseEntity

	// Number is the human-readable identifier, TRX-YYYYMMDD-NNNN.
	Number string `db:"number" json:"number"`
	Status Status `db:"status" json:"status"`

	Subtotal types.Money `db:"subtotal" json:"subtotal"`
	Discount types.Money `db:"discount" json:"discount"`
	Total    types.Money `db:"total" json:"total"`

	PaymentMethod string      `db:"payment_method" json:"paymentMethod"`
	PaymentAmount types.Money `db:"payment_amount" json:"paymentAmount"`
	ChangeAmount  types.Money `db:"change_amount" json:"changeAmount"`

	CashierID   id.ID      `db:"cashier_id" json:"cashierId"`
	Notes       string     `db:"notes" json:"notes,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`

	Items []*Item `db:"-" json:"items,omitempty"`
}

// Item is one line of a sale. Product name and price are captured at sale
// time so later catalog edits do not rewrite history.
type Item struct {
	ID            id.ID       `db:"id" json:"id"`
	TransactionID id.ID       `db:"transaction_id" json:"transactionId"`
	ProductID     id.ID       `db:"product_id" json:"productId"`
	ProductName   string      `db:"product_name" json:"productName"`
	Quantity      int64       `db:"quantity" json:"quantity"`
	UnitPrice     types.Money `db:"unit_price" json:"unitPrice"`
	Subtotal      types.Money `db:"subtotal" json:"subtotal"`
}

// Validate checks invariant fields.
func (t *Transaction) Validate(ctx context.Context) error {
	if len(t.Items) == 0 {
		return apperror.NewValidation("sale must have at least one item")
	}
	for _, it := range t.Items {
		if it.Quantity <= 0 {
			return apperror.NewValidation("item quantity must be positive").
				WithDetail("productId", it.ProductID)
		}
	}
	if t.Discount.IsNegative() {
		return apperror.NewValidation("discount cannot be negative")
	}
	if t.Discount.GreaterThan(t.Subtotal) {
		return apperror.NewValidation("discount cannot exceed subtotal")
	}
	return nil
}

// Recalculate derives subtotal and total from the items and discount.
func (t *Transaction) Recalculate() {
	subtotal := types.Zero()
	for _, it := range t.Items {
		subtotal = subtotal.Add(it.Subtotal)
	}
	t.Subtotal = subtotal
	t.Total = subtotal.Sub(t.Discount)
}
