package sale

import (
	"context"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// ListFilter narrows sale listings.
type ListFilter struct {
	Status    Status // empty means any
	CashierID *id.ID
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// DashboardStats summarises completed sales over a period.
type DashboardStats struct {
	TotalSales       types.Money            `db:"total_sales" json:"totalSales"`
	TransactionCount int64                  `db:"transaction_count" json:"transactionCount"`
	AverageSale      types.Money            `json:"averageSale"`
	ItemsSold        int64                  `db:"items_sold" json:"itemsSold"`
	ByPaymentMethod  map[string]types.Money `json:"byPaymentMethod"`
}

// Repository persists sale transactions and their items.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	Update(ctx context.Context, t *Transaction) error
	SoftDelete(ctx context.Context, tenantID, txID id.ID) error

	// GetByID loads the transaction with its items.
	GetByID(ctx context.Context, tenantID, txID id.ID) (*Transaction, error)

	List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Transaction, error)

	// ListCompletedSince returns COMPLETED and LOCKED sales completed at or
	// after since, items included.
	ListCompletedSince(ctx context.Context, tenantID id.ID, since time.Time) ([]*Transaction, error)

	// LockBefore moves COMPLETED sales completed before cutoff to LOCKED,
	// returning the number of rows swept.
	LockBefore(ctx context.Context, tenantID id.ID, cutoff time.Time) (int64, error)

	GetDashboardStats(ctx context.Context, tenantID id.ID, cashierID *id.ID, from, to time.Time) (*DashboardStats, error)
}
