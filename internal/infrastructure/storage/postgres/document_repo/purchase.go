package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/purchase"
	"tillbook/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "purchase_orders"
	orderItemsTable = "purchase_order_items"
)

var orderColumns = []string{
	"id", "tenant_id", "number", "status", "supplier", "total",
	"notes", "created_by",
	"created_at", "updated_at", "deleted_at",
}

var orderItemColumns = []string{
	"id", "order_id", "product_id", "product_name",
	"quantity", "unit_cost", "subtotal",
}

// Compile-time check that PurchaseRepo implements purchase.Repository.
var _ purchase.Repository = (*PurchaseRepo)(nil)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	txManager *postgres.TxManager
}

// NewPurchaseRepo creates a new purchase order repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *PurchaseRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts an order with its items.
func (r *PurchaseRepo) Create(ctx context.Context, o *purchase.Order) error {
	q := r.Builder().
		Insert(ordersTable).
		Columns(orderColumns...).
		Values(
			o.ID, o.TenantID, o.Number, o.Status, o.Supplier, o.Total,
			o.Notes, o.CreatedBy,
			o.CreatedAt, o.UpdatedAt, o.DeletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	if len(o.Items) == 0 {
		return nil
	}

	itemsQ := r.Builder().
		Insert(orderItemsTable).
		Columns(orderItemColumns...)
	for _, it := range o.Items {
		itemsQ = itemsQ.Values(
			it.ID, o.ID, it.ProductID, it.ProductName,
			it.Quantity, it.UnitCost, it.Subtotal,
		)
	}

	sql, args, err = itemsQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	return nil
}

// Update writes header fields. Items are immutable after creation.
func (r *PurchaseRepo) Update(ctx context.Context, o *purchase.Order) error {
	q := r.Builder().
		Update(ordersTable).
		Set("status", o.Status).
		Set("supplier", o.Supplier).
		Set("total", o.Total).
		Set("notes", o.Notes).
		Set("updated_at", o.UpdatedAt).
		Where(squirrel.Eq{"id": o.ID, "tenant_id": o.TenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("purchase order", o.ID)
	}
	return nil
}

// GetByID fetches an order with its items.
func (r *PurchaseRepo) GetByID(ctx context.Context, tenantID, orderID id.ID) (*purchase.Order, error) {
	q := r.Builder().
		Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID, "tenant_id": tenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var o purchase.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	itemsQ := r.Builder().
		Select(orderItemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID}).
		OrderBy("product_name")

	sql, args, err = itemsQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select items: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &o.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	return &o, nil
}

// List fetches orders with filtering, newest first, items not loaded.
func (r *PurchaseRepo) List(ctx context.Context, tenantID id.ID, f purchase.ListFilter) ([]*purchase.Order, error) {
	q := r.Builder().
		Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		OrderBy("created_at DESC")

	if f.Status != "" {
		q = q.Where(squirrel.Eq{"status": f.Status})
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

	var orders []*purchase.Order
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &orders, sql, args...); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}
