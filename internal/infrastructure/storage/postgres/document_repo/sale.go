// Package document_repo provides PostgreSQL implementations for document
// repositories.
package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/documents/sale"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "sale_transactions"
	saleItemsTable = "sale_items"
)

var saleColumns = []string{
	"id", "tenant_id", "number", "status",
	"subtotal", "discount", "total",
	"payment_method", "payment_amount", "change_amount",
	"cashier_id", "notes", "completed_at",
	"created_at", "updated_at", "deleted_at",
}

var saleItemColumns = []string{
	"id", "transaction_id", "product_id", "product_name",
	"quantity", "unit_price", "subtotal",
}

// Compile-time check that SaleRepo implements sale.Repository.
var _ sale.Repository = (*SaleRepo)(nil)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	txManager *postgres.TxManager
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *SaleRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *SaleRepo) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(saleColumns...).
		From(salesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil})
}

// Create inserts a sale with its items.
func (r *SaleRepo) Create(ctx context.Context, t *sale.Transaction) error {
	q := r.Builder().
		Insert(salesTable).
		Columns(saleColumns...).
		Values(
			t.ID, t.TenantID, t.Number, t.Status,
			t.Subtotal, t.Discount, t.Total,
			t.PaymentMethod, t.PaymentAmount, t.ChangeAmount,
			t.CashierID, t.Notes, t.CompletedAt,
			t.CreatedAt, t.UpdatedAt, t.DeletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}

	return r.saveItems(ctx, t.ID, t.Items)
}

func (r *SaleRepo) saveItems(ctx context.Context, txID id.ID, items []*sale.Item) error {
	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(saleItemsTable).
		Columns(saleItemColumns...)
	for _, it := range items {
		q = q.Values(it.ID, txID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice, it.Subtotal)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert sale items: %w", err)
	}
	return nil
}

// Update writes header fields. Items are immutable after creation.
func (r *SaleRepo) Update(ctx context.Context, t *sale.Transaction) error {
	q := r.Builder().
		Update(salesTable).
		Set("status", t.Status).
		Set("subtotal", t.Subtotal).
		Set("discount", t.Discount).
		Set("total", t.Total).
		Set("payment_method", t.PaymentMethod).
		Set("payment_amount", t.PaymentAmount).
		Set("change_amount", t.ChangeAmount).
		Set("notes", t.Notes).
		Set("completed_at", t.CompletedAt).
		Set("updated_at", t.UpdatedAt).
		Where(squirrel.Eq{"id": t.ID, "tenant_id": t.TenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", t.ID)
	}
	return nil
}

// SoftDelete marks a sale as deleted.
func (r *SaleRepo) SoftDelete(ctx context.Context, tenantID, txID id.ID) error {
	now := time.Now().UTC()
	q := r.Builder().
		Update(salesTable).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": txID, "tenant_id": tenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", txID)
	}
	return nil
}

// GetByID fetches a sale with its items.
func (r *SaleRepo) GetByID(ctx context.Context, tenantID, txID id.ID) (*sale.Transaction, error) {
	q := r.baseSelect(tenantID).Where(squirrel.Eq{"id": txID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var t sale.Transaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", txID)
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	items, err := r.getItems(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return &t, nil
}

func (r *SaleRepo) getItems(ctx context.Context, txID id.ID) ([]*sale.Item, error) {
	q := r.Builder().
		Select(saleItemColumns...).
		From(saleItemsTable).
		Where(squirrel.Eq{"transaction_id": txID}).
		OrderBy("product_name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select items: %w", err)
	}

	var items []*sale.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get sale items: %w", err)
	}
	return items, nil
}

// List fetches sales with filtering, newest first, items not loaded.
func (r *SaleRepo) List(ctx context.Context, tenantID id.ID, f sale.ListFilter) ([]*sale.Transaction, error) {
	q := r.baseSelect(tenantID).OrderBy("created_at DESC")

	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
	}
	if f.CashierID != nil {
		q = q.Where(squirrel.Eq{"cashier_id": *f.CashierID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var sales []*sale.Transaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return sales, nil
}

// ListCompletedSince fetches COMPLETED and LOCKED sales completed at or
// after since, items included.
func (r *SaleRepo) ListCompletedSince(ctx context.Context, tenantID id.ID, since time.Time) ([]*sale.Transaction, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"status": []sale.Status{sale.StatusCompleted, sale.StatusLocked}}).
		Where(squirrel.GtOrEq{"completed_at": since}).
		OrderBy("completed_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var sales []*sale.Transaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sales, sql, args...); err != nil {
		return nil, fmt.Errorf("list completed sales: %w", err)
	}

	for _, t := range sales {
		items, err := r.getItems(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		t.Items = items
	}
	return sales, nil
}

// LockBefore sweeps COMPLETED sales completed before cutoff into LOCKED.
func (r *SaleRepo) LockBefore(ctx context.Context, tenantID id.ID, cutoff time.Time) (int64, error) {
	q := r.Builder().
		Update(salesTable).
		Set("status", sale.StatusLocked).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"tenant_id": tenantID, "status": sale.StatusCompleted, "deleted_at": nil}).
		Where(squirrel.Lt{"completed_at": cutoff})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("lock sales: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetDashboardStats aggregates completed sales over a period.
func (r *SaleRepo) GetDashboardStats(ctx context.Context, tenantID id.ID, cashierID *id.ID, from, to time.Time) (*sale.DashboardStats, error) {
	querier := r.txManager.GetQuerier(ctx)

	stats := &sale.DashboardStats{
		TotalSales:      types.Zero(),
		ByPaymentMethod: make(map[string]types.Money),
	}

	totalsQ := r.Builder().
		Select(
			"COALESCE(SUM(s.total), 0) AS total_sales",
			"COUNT(*) AS transaction_count",
			"COALESCE(SUM(i.items_sold), 0) AS items_sold",
		).
		From(salesTable + " s").
		JoinClause(`LEFT JOIN LATERAL (
			SELECT SUM(quantity) AS items_sold
			FROM sale_items
			WHERE transaction_id = s.id
		) i ON true`).
		Where(squirrel.Eq{"s.tenant_id": tenantID, "s.deleted_at": nil}).
		Where(squirrel.Eq{"s.status": []sale.Status{sale.StatusCompleted, sale.StatusLocked}}).
		Where(squirrel.GtOrEq{"s.completed_at": from}).
		Where(squirrel.LtOrEq{"s.completed_at": to})
	if cashierID != nil {
		totalsQ = totalsQ.Where(squirrel.Eq{"s.cashier_id": *cashierID})
	}

	sqlStr, args, err := totalsQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build totals: %w", err)
	}
	if err := querier.QueryRow(ctx, sqlStr, args...).
		Scan(&stats.TotalSales, &stats.TransactionCount, &stats.ItemsSold); err != nil {
		return nil, fmt.Errorf("dashboard totals: %w", err)
	}

	methodQ := r.Builder().
		Select("payment_method", "COALESCE(SUM(total), 0) AS total").
		From(salesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		Where(squirrel.Eq{"status": []sale.Status{sale.StatusCompleted, sale.StatusLocked}}).
		Where(squirrel.GtOrEq{"completed_at": from}).
		Where(squirrel.LtOrEq{"completed_at": to}).
		GroupBy("payment_method")
	if cashierID != nil {
		methodQ = methodQ.Where(squirrel.Eq{"cashier_id": *cashierID})
	}

	sqlStr, args, err = methodQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build method breakdown: %w", err)
	}

	rows, err := querier.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard method breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var method string
		var total types.Money
		if err := rows.Scan(&method, &total); err != nil {
			return nil, fmt.Errorf("scan method breakdown: %w", err)
		}
		stats.ByPaymentMethod[method] = total
	}
	return stats, rows.Err()
}
