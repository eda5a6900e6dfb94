package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/salereturn"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	returnsTable     = "sale_returns"
	returnItemsTable = "return_items"
)

var returnColumns = []string{
	"id", "tenant_id", "number", "sale_id", "sale_number",
	"total", "reason", "processed_by",
	"created_at", "updated_at", "deleted_at",
}

var returnItemColumns = []string{
	"id", "return_id", "sale_item_id", "product_id", "product_name",
	"quantity", "unit_price", "subtotal",
}

// Compile-time check that ReturnRepo implements salereturn.Repository.
var _ salereturn.Repository = (*ReturnRepo)(nil)

// ReturnRepo implements salereturn.Repository.
type ReturnRepo struct {
	txManager *postgres.TxManager
}

// NewReturnRepo creates a new return repository.
func NewReturnRepo(txManager *postgres.TxManager) *ReturnRepo {
	return &ReturnRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ReturnRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts a return with its items.
func (r *ReturnRepo) Create(ctx context.Context, ret *salereturn.Return) error {
	q := r.Builder().
		Insert(returnsTable).
		Columns(returnColumns...).
		Values(
			ret.ID, ret.TenantID, ret.Number, ret.SaleID, ret.SaleNumber,
			ret.Total, ret.Reason, ret.ProcessedBy,
			ret.CreatedAt, ret.UpdatedAt, ret.DeletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return: %w", err)
	}

	if len(ret.Items) == 0 {
		return nil
	}

	itemsQ := r.Builder().
		Insert(returnItemsTable).
		Columns(returnItemColumns...)
	for _, it := range ret.Items {
		itemsQ = itemsQ.Values(
			it.ID, ret.ID, it.SaleItemID, it.ProductID, it.ProductName,
			it.Quantity, it.UnitPrice, it.Subtotal,
		)
	}

	sql, args, err = itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert return items: %w", err)
	}
	return nil
}

// GetByID fetches a return with its items.
func (r *ReturnRepo) GetByID(ctx context.Context, tenantID, returnID id.ID) (*salereturn.Return, error) {
	q := r.Builder().
		Select(returnColumns...).
		From(returnsTable).
		Where(squirrel.Eq{"id": returnID, "tenant_id": tenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var ret salereturn.Return
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &ret, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("return", returnID)
		}
		return nil, fmt.Errorf("get return: %w", err)
	}

	itemsQ := r.Builder().
		Select(returnItemColumns...).
		From(returnItemsTable).
		Where(squirrel.Eq{"return_id": returnID}).
		OrderBy("product_name")

	sql, args, err = itemsQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select items: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &ret.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("get return items: %w", err)
	}
	return &ret, nil
}

// List fetches returns with filtering, newest first, items not loaded.
func (r *ReturnRepo) List(ctx context.Context, tenantID id.ID, f salereturn.ListFilter) ([]*salereturn.Return, error) {
	q := r.Builder().
		Select(returnColumns...).
		From(returnsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		OrderBy("created_at DESC")

	if f.SaleID != nil {
		q = q.Where(squirrel.Eq{"sale_id": *f.SaleID})
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

	var returns []*salereturn.Return
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &returns, sql, args...); err != nil {
		return nil, fmt.Errorf("list returns: %w", err)
	}
	return returns, nil
}

// ReturnedQuantities sums previously returned quantities per original sale
// line for one sale.
func (r *ReturnRepo) ReturnedQuantities(ctx context.Context, tenantID, saleID id.ID) (map[id.ID]int64, error) {
	const sql = `
		SELECT ri.sale_item_id, SUM(ri.quantity) AS returned
		FROM return_items ri
		JOIN sale_returns sr ON sr.id = ri.return_id
		WHERE sr.tenant_id = $1
		  AND sr.sale_id = $2
		  AND sr.deleted_at IS NULL
		GROUP BY ri.sale_item_id
	`

	querier := r.txManager.GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, tenantID, saleID)
	if err != nil {
		return nil, fmt.Errorf("returned quantities: %w", err)
	}
	defer rows.Close()

	result := make(map[id.ID]int64)
	for rows.Next() {
		var itemID id.ID
		var returned int64
		if err := rows.Scan(&itemID, &returned); err != nil {
			return nil, fmt.Errorf("scan returned quantities: %w", err)
		}
		result[itemID] = returned
	}
	return result, rows.Err()
}
