// Package ledger_repo provides PostgreSQL implementations for ledger
// repositories.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/ledger/cash"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	cashTable       = "cash_transactions"
	categoriesTable = "cash_categories"
)

var cashColumns = []string{
	"id", "tenant_id", "number", "type", "amount", "payment_method",
	"category_id", "sale_id", "description", "transaction_date",
	"is_verified", "verified_by", "verified_at", "created_by",
	"created_at", "updated_at", "deleted_at",
}

var categoryColumns = []string{
	"id", "tenant_id", "code", "name", "is_system",
	"created_at", "updated_at", "deleted_at",
}

// Compile-time check that CashRepo implements cash.Repository.
var _ cash.Repository = (*CashRepo)(nil)

// CashRepo implements cash.Repository.
type CashRepo struct {
	txManager *postgres.TxManager
}

// NewCashRepo creates a new cash ledger repository.
func NewCashRepo(txManager *postgres.TxManager) *CashRepo {
	return &CashRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *CashRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *CashRepo) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(cashColumns...).
		From(cashTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil})
}

// Create inserts a cash transaction.
func (r *CashRepo) Create(ctx context.Context, t *cash.CashTransaction) error {
	q := r.Builder().
		Insert(cashTable).
		Columns(cashColumns...).
		Values(
			t.ID, t.TenantID, t.Number, t.Type, t.Amount, t.PaymentMethod,
			t.CategoryID, t.SaleID, t.Description, t.TransactionDate,
			t.IsVerified, t.VerifiedBy, t.VerifiedAt, t.CreatedBy,
			t.CreatedAt, t.UpdatedAt, t.DeletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cash transaction: %w", err)
	}
	return nil
}

// Update writes mutable fields of a cash transaction.
func (r *CashRepo) Update(ctx context.Context, t *cash.CashTransaction) error {
	q := r.Builder().
		Update(cashTable).
		Set("amount", t.Amount).
		Set("payment_method", t.PaymentMethod).
		Set("category_id", t.CategoryID).
		Set("description", t.Description).
		Set("transaction_date", t.TransactionDate).
		Set("is_verified", t.IsVerified).
		Set("verified_by", t.VerifiedBy).
		Set("verified_at", t.VerifiedAt).
		Set("updated_at", t.UpdatedAt).
		Where(squirrel.Eq{"id": t.ID, "tenant_id": t.TenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cash transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cash transaction", t.ID)
	}
	return nil
}

// SoftDelete marks a cash transaction as deleted.
func (r *CashRepo) SoftDelete(ctx context.Context, tenantID, txID id.ID) error {
	now := time.Now().UTC()
	q := r.Builder().
		Update(cashTable).
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
		return fmt.Errorf("soft delete cash transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("cash transaction", txID)
	}
	return nil
}

// GetByID fetches a cash transaction.
func (r *CashRepo) GetByID(ctx context.Context, tenantID, txID id.ID) (*cash.CashTransaction, error) {
	q := r.baseSelect(tenantID).Where(squirrel.Eq{"id": txID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var t cash.CashTransaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash transaction", txID)
		}
		return nil, fmt.Errorf("get cash transaction: %w", err)
	}
	return &t, nil
}

// FindIncomeBySale fetches the synced income entry for a sale.
func (r *CashRepo) FindIncomeBySale(ctx context.Context, tenantID, saleID id.ID) (*cash.CashTransaction, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"sale_id": saleID, "type": cash.TypeIncome})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var t cash.CashTransaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("cash transaction", saleID)
		}
		return nil, fmt.Errorf("find income by sale: %w", err)
	}
	return &t, nil
}

// List fetches cash transactions with filtering, newest first.
func (r *CashRepo) List(ctx context.Context, tenantID id.ID, f cash.ListFilter) ([]*cash.CashTransaction, error) {
	q := r.baseSelect(tenantID).OrderBy("transaction_date DESC", "created_at DESC")

	if f.Type != "" {
		q = q.Where(squirrel.Eq{"type": f.Type})
	}
	if f.CategoryID != nil {
		q = q.Where(squirrel.Eq{"category_id": *f.CategoryID})
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"transaction_date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"transaction_date": *f.To})
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

	var transactions []*cash.CashTransaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("list cash transactions: %w", err)
	}
	return transactions, nil
}

// GetBalance returns sum(income) - sum(expense) across the ledger, grouped
// by payment method. The total is summed over the per-method rows.
func (r *CashRepo) GetBalance(ctx context.Context, tenantID id.ID) (*cash.Balance, error) {
	const sql = `
		SELECT
			payment_method,
			COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount ELSE -amount END), 0) AS net
		FROM cash_transactions
		WHERE tenant_id = $1 AND deleted_at IS NULL
		GROUP BY payment_method
	`

	var rows []struct {
		PaymentMethod string      `db:"payment_method"`
		Net           types.Money `db:"net"`
	}
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, tenantID); err != nil {
		return nil, fmt.Errorf("get balance: %w", err)
	}

	balance := &cash.Balance{
		Total:    types.Zero(),
		ByMethod: make(map[string]types.Money, len(rows)),
	}
	for _, row := range rows {
		balance.ByMethod[row.PaymentMethod] = row.Net
		balance.Total = balance.Total.Add(row.Net)
	}
	return balance, nil
}

// GetCashFlowSummary aggregates income and expense over a period.
func (r *CashRepo) GetCashFlowSummary(ctx context.Context, tenantID id.ID, from, to time.Time) (*cash.CashFlowSummary, error) {
	const sql = `
		SELECT
			COALESCE(SUM(CASE WHEN type = 'INCOME' THEN amount ELSE 0 END), 0) AS total_income,
			COALESCE(SUM(CASE WHEN type = 'EXPENSE' THEN amount ELSE 0 END), 0) AS total_expense,
			COUNT(*) AS entry_count
		FROM cash_transactions
		WHERE tenant_id = $1
		  AND deleted_at IS NULL
		  AND transaction_date >= $2
		  AND transaction_date <= $3
	`

	var summary cash.CashFlowSummary
	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, tenantID, from, to).
		Scan(&summary.TotalIncome, &summary.TotalExpense, &summary.EntryCount); err != nil {
		return nil, fmt.Errorf("cash flow summary: %w", err)
	}
	return &summary, nil
}

// GetExpenseByCategory breaks expenses down per category over a period.
func (r *CashRepo) GetExpenseByCategory(ctx context.Context, tenantID id.ID, from, to time.Time) ([]*cash.ExpenseByCategory, error) {
	const sql = `
		SELECT
			t.category_id,
			COALESCE(c.name, 'Uncategorized') AS category_name,
			COALESCE(SUM(t.amount), 0) AS total,
			COUNT(*) AS entry_count
		FROM cash_transactions t
		LEFT JOIN cash_categories c ON c.id = t.category_id
		WHERE t.tenant_id = $1
		  AND t.deleted_at IS NULL
		  AND t.type = 'EXPENSE'
		  AND t.transaction_date >= $2
		  AND t.transaction_date <= $3
		GROUP BY t.category_id, c.name
		ORDER BY total DESC
	`

	var result []*cash.ExpenseByCategory
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &result, sql, tenantID, from, to); err != nil {
		return nil, fmt.Errorf("expense by category: %w", err)
	}
	return result, nil
}

// EnsureCategory upserts a category by (tenant, code) and returns its ID.
func (r *CashRepo) EnsureCategory(ctx context.Context, tenantID id.ID, code, name string, isSystem bool) (id.ID, error) {
	const sql = `
		INSERT INTO cash_categories (id, tenant_id, code, name, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (tenant_id, code)
		DO UPDATE SET updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	querier := r.txManager.GetQuerier(ctx)

	var categoryID id.ID
	if err := querier.QueryRow(ctx, sql,
		id.New(), tenantID, code, name, isSystem, time.Now().UTC(),
	).Scan(&categoryID); err != nil {
		return id.Nil(), fmt.Errorf("ensure category: %w", err)
	}
	return categoryID, nil
}

// ListCategories returns all categories for a tenant.
func (r *CashRepo) ListCategories(ctx context.Context, tenantID id.ID) ([]*cash.Category, error) {
	q := r.Builder().
		Select(categoryColumns...).
		From(categoriesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var categories []*cash.Category
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &categories, sql, args...); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetSaleForSync reads the sale fields needed to book the income entry.
func (r *CashRepo) GetSaleForSync(ctx context.Context, tenantID, saleID id.ID) (*cash.SaleInfo, error) {
	const sql = `
		SELECT total, payment_method, number, completed_at, cashier_id
		FROM sale_transactions
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL AND status <> $3
	`

	var info cash.SaleInfo
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &info, sql, saleID, tenantID, "DRAFT"); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID)
		}
		return nil, fmt.Errorf("get sale for sync: %w", err)
	}
	return &info, nil
}
