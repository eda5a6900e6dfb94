package cash

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// ListFilter narrows cash transaction listings.
type ListFilter struct {
	Type       TransactionType // empty means any
	CategoryID *id.ID
	From       *time.Time
	To         *time.Time
	Limit      int
	Offset     int
}

// Balance is the running ledger position: sum(income) - sum(expense) in
// total and per payment method.
type Balance struct {
	Total    types.Money            `json:"total"`
	ByMethod map[string]types.Money `json:"byMethod"`
}

// CashFlowSummary aggregates the ledger over a period.
type CashFlowSummary struct {
	TotalIncome  types.Money `db:"total_income" json:"totalIncome"`
	TotalExpense types.Money `db:"total_expense" json:"totalExpense"`
	NetFlow      types.Money `json:"netFlow"`
	EntryCount   int64       `db:"entry_count" json:"entryCount"`
}

// ExpenseByCategory is one category's expense total over a period.
type ExpenseByCategory struct {
	CategoryID   *id.ID      `db:"category_id" json:"categoryId,omitempty"`
	CategoryName string      `db:"category_name" json:"categoryName"`
	Total        types.Money `db:"total" json:"total"`
	EntryCount   int64       `db:"entry_count" json:"entryCount"`
}

// SaleInfo is the slice of a completed sale the ledger needs for syncing.
type SaleInfo struct {
	Total         types.Money `db:"total" json:"total"`
	PaymentMethod string      `db:"payment_method" json:"paymentMethod"`
	Number        string      `db:"number" json:"number"`
	CompletedAt   *time.Time  `db:"completed_at" json:"completedAt"`
	CashierID     id.ID       `db:"cashier_id" json:"cashierId"`
}

// Repository persists cash transactions and categories.
type Repository interface {
	Create(ctx context.Context, t *CashTransaction) error
	Update(ctx context.Context, t *CashTransaction) error
	SoftDelete(ctx context.Context, tenantID, txID id.ID) error

	GetByID(ctx context.Context, tenantID, txID id.ID) (*CashTransaction, error)

	// FindIncomeBySale returns the synced INCOME entry for a sale, or a
	// not-found error. Refund expenses linked to the same sale do not match.
	FindIncomeBySale(ctx context.Context, tenantID, saleID id.ID) (*CashTransaction, error)

	List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*CashTransaction, error)

	// GetBalance returns the running balance, total and per payment method.
	GetBalance(ctx context.Context, tenantID id.ID) (*Balance, error)

	GetCashFlowSummary(ctx context.Context, tenantID id.ID, from, to time.Time) (*CashFlowSummary, error)
	GetExpenseByCategory(ctx context.Context, tenantID id.ID, from, to time.Time) ([]*ExpenseByCategory, error)

	// EnsureCategory upserts a category by (tenant, code) and returns its ID.
	EnsureCategory(ctx context.Context, tenantID id.ID, code, name string, isSystem bool) (id.ID, error)
	ListCategories(ctx context.Context, tenantID id.ID) ([]*Category, error)

	// GetSaleForSync reads the sale fields needed to book the income entry.
	GetSaleForSync(ctx context.Context, tenantID, saleID id.ID) (*SaleInfo, error)
}
