// Package cash implements the cash and expense ledger: income and expense
// entries, verification, and the one-way sync from completed sales.
package cash

import (
	"context"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// TransactionType is the direction of a cash entry.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// System category codes. Entries in these categories are booked by the
// engine, not by users.
const (
	CategoryPurchaseInventory = "PURCHASE_INVENTORY"
	CategoryReturnRefund      = "RETURN_REFUND"
)

// CashTransaction is a single entry in the cash ledger.
type CashTransaction struct {
	entity.BaseEntity

	// Number is the human-readable identifier, CSH-YYYYMMDD-NNNN.
	Number string          `db:"number" json:"number"`
	Type   TransactionType `db:"type" json:"type"`
	Amount types.Money     `db:"amount" json:"amount"`

	PaymentMethod string `db:"payment_method" json:"paymentMethod"`

	CategoryID *id.ID `db:"category_id" json:"categoryId,omitempty"`

	// SaleID links entries produced by sales: the synced INCOME entry and
	// refund EXPENSE entries both point at the originating sale.
	SaleID *id.ID `db:"sale_id" json:"saleId,omitempty"`

	Description     string    `db:"description" json:"description"`
	TransactionDate time.Time `db:"transaction_date" json:"transactionDate"`

	// IsVerified is one-way: once set, the entry is immutable.
	IsVerified bool       `db:"is_verified" json:"isVerified"`
	VerifiedBy *id.ID     `db:"verified_by" json:"verifiedBy,omitempty"`
	VerifiedAt *time.Time `db:"verified_at" json:"verifiedAt,omitempty"`

	CreatedBy id.ID `db:"created_by" json:"createdBy"`
}

// Validate checks invariant fields.
func (t *CashTransaction) Validate(ctx context.Context) error {
	if !t.Type.Valid() {
		return apperror.NewValidation("unknown transaction type").WithDetail("type", string(t.Type))
	}
	if !t.Amount.IsPositive() {
		return apperror.NewValidation("amount must be positive").WithDetail("amount", t.Amount)
	}
	if t.PaymentMethod == "" {
		return apperror.NewValidation("payment method is required").WithDetail("field", "paymentMethod")
	}
	return nil
}

// Category groups cash entries for reporting.
type Category struct {
	entity.BaseEntity

	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	// IsSystem marks engine-managed categories that users cannot edit.
	IsSystem bool `db:"is_system" json:"isSystem"`
}
