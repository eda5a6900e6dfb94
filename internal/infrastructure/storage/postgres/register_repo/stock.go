// Package register_repo provides PostgreSQL implementations for register
// repositories.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/infrastructure/storage/postgres"
)

const movementsTable = "stock_movements"

var movementColumns = []string{
	"id", "tenant_id", "product_id", "type", "quantity", "cost_per_unit",
	"reference_type", "reference_id", "before_qty", "after_qty",
	"notes", "actor_id", "created_at",
}

// Compile-time check that StockRepo implements stock.Repository.
var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository. The movements table is append-only.
type StockRepo struct {
	txManager *postgres.TxManager
}

// NewStockRepo creates a new stock movement repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *StockRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateMovement appends a movement.
func (r *StockRepo) CreateMovement(ctx context.Context, m *entity.StockMovement) error {
	q := r.Builder().
		Insert(movementsTable).
		Columns(movementColumns...).
		Values(
			m.ID, m.TenantID, m.ProductID, m.Type, m.Quantity, m.CostPerUnit,
			m.ReferenceType, m.ReferenceID, m.BeforeQty, m.AfterQty,
			m.Notes, m.ActorID, m.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByProduct fetches a product's movements, newest first.
func (r *StockRepo) ListByProduct(ctx context.Context, tenantID, productID id.ID, f stock.MovementFilter) ([]*entity.StockMovement, error) {
	q := r.Builder().
		Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "product_id": productID}).
		OrderBy("created_at DESC")

	if f.Type != "" {
		q = q.Where(squirrel.Eq{"type": f.Type})
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

	var movements []*entity.StockMovement
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

// DeadStock returns products holding stock with no OUT movement since the
// given time.
func (r *StockRepo) DeadStock(ctx context.Context, tenantID id.ID, since time.Time) ([]*stock.DeadStockItem, error) {
	const sql = `
		SELECT
			p.id AS product_id,
			p.sku,
			p.name,
			p.quantity,
			p.cost,
			p.quantity * p.cost AS stock_value,
			last_out.last_sold_at
		FROM products p
		LEFT JOIN LATERAL (
			SELECT MAX(m.created_at) AS last_sold_at
			FROM stock_movements m
			WHERE m.tenant_id = p.tenant_id
			  AND m.product_id = p.id
			  AND m.type = 'OUT'
		) last_out ON true
		WHERE p.tenant_id = $1
		  AND p.deleted_at IS NULL
		  AND p.quantity > 0
		  AND (last_out.last_sold_at IS NULL OR last_out.last_sold_at < $2)
		ORDER BY last_out.last_sold_at NULLS FIRST, p.name
	`

	var items []*stock.DeadStockItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, tenantID, since); err != nil {
		return nil, fmt.Errorf("dead stock: %w", err)
	}
	return items, nil
}
