// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/infrastructure/storage/postgres"
)

const productsTable = "products"

var productColumns = []string{
	"id", "tenant_id", "sku", "name", "price", "cost",
	"quantity", "min_stock", "is_active",
	"created_at", "updated_at", "deleted_at",
}

// Compile-time check that ProductRepo implements product.Repository.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	txManager *postgres.TxManager
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *ProductRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *ProductRepo) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil})
}

// Create inserts a new product.
func (r *ProductRepo) Create(ctx context.Context, p *product.Product) error {
	q := r.Builder().
		Insert(productsTable).
		Columns(productColumns...).
		Values(
			p.ID, p.TenantID, p.SKU, p.Name, p.Price, p.Cost,
			p.Quantity, p.MinStock, p.IsActive,
			p.CreatedAt, p.UpdatedAt, p.DeletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Update writes catalog fields. Quantity and cost have their own methods.
func (r *ProductRepo) Update(ctx context.Context, p *product.Product) error {
	q := r.Builder().
		Update(productsTable).
		Set("name", p.Name).
		Set("price", p.Price).
		Set("min_stock", p.MinStock).
		Set("is_active", p.IsActive).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID, "tenant_id": p.TenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", p.ID)
	}
	return nil
}

func (r *ProductRepo) listQuery(tenantID id.ID, f product.ListFilter) squirrel.SelectBuilder {
	q := r.baseSelect(tenantID).OrderBy("name")

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	if f.ActiveOnly {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

// GetByID fetches a product.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID, productID id.ID) (*product.Product, error) {
	return r.get(ctx, tenantID, productID, false)
}

// GetForUpdate fetches a product with a row-level lock.
func (r *ProductRepo) GetForUpdate(ctx context.Context, tenantID, productID id.ID) (*product.Product, error) {
	return r.get(ctx, tenantID, productID, true)
}

func (r *ProductRepo) get(ctx context.Context, tenantID, productID id.ID, forUpdate bool) (*product.Product, error) {
	q := r.baseSelect(tenantID).Where(squirrel.Eq{"id": productID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var p product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// UpdateStock sets the on-hand quantity.
func (r *ProductRepo) UpdateStock(ctx context.Context, tenantID, productID id.ID, quantity int64) error {
	return r.setColumn(ctx, tenantID, productID, "quantity", quantity)
}

// UpdateCost sets the weighted-average cost.
func (r *ProductRepo) UpdateCost(ctx context.Context, tenantID, productID id.ID, cost types.Money) error {
	return r.setColumn(ctx, tenantID, productID, "cost", cost)
}

func (r *ProductRepo) setColumn(ctx context.Context, tenantID, productID id.ID, column string, value any) error {
	q := r.Builder().
		Update(productsTable).
		Set(column, value).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": productID, "tenant_id": tenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}

// List fetches products with filtering, ordered by name.
func (r *ProductRepo) List(ctx context.Context, tenantID id.ID, f product.ListFilter) ([]*product.Product, error) {
	sql, args, err := r.listQuery(tenantID, f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var products []*product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListLowStock fetches active products at or below their threshold.
func (r *ProductRepo) ListLowStock(ctx context.Context, tenantID id.ID) ([]*product.Product, error) {
	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"is_active": true}).
		Where("quantity <= min_stock").
		OrderBy("quantity ASC", "name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var products []*product.Product
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return products, nil
}

// SoftDelete marks a product as deleted.
func (r *ProductRepo) SoftDelete(ctx context.Context, tenantID, productID id.ID) error {
	now := time.Now().UTC()
	q := r.Builder().
		Update(productsTable).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": productID, "tenant_id": tenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("soft delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID)
	}
	return nil
}
