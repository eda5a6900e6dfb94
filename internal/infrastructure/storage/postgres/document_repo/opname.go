package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/opname"
	"tillbook/internal/infrastructure/storage/postgres"
)

const opnamesTable = "stock_opnames"

var opnameColumns = []string{
	"id", "tenant_id", "product_id", "product_name",
	"system_qty", "actual_qty", "difference", "notes",
	"processed", "processed_at", "processed_by", "created_by",
	"created_at", "updated_at", "deleted_at",
}

// Compile-time check that OpnameRepo implements opname.Repository.
var _ opname.Repository = (*OpnameRepo)(nil)

// OpnameRepo implements opname.Repository.
type OpnameRepo struct {
	txManager *postgres.TxManager
}

// NewOpnameRepo creates a new opname repository.
func NewOpnameRepo(txManager *postgres.TxManager) *OpnameRepo {
	return &OpnameRepo{txManager: txManager}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *OpnameRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts an opname.
func (r *OpnameRepo) Create(ctx context.Context, o *opname.Opname) error {
	q := r.Builder().
		Insert(opnamesTable).
		Columns(opnameColumns...).
		Values(
			o.ID, o.TenantID, o.ProductID, o.ProductName,
			o.SystemQty, o.ActualQty, o.Difference, o.Notes,
			o.Processed, o.ProcessedAt, o.ProcessedBy, o.CreatedBy,
			o.CreatedAt, o.UpdatedAt, o.DeletedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert opname: %w", err)
	}
	return nil
}

// GetByID fetches an opname.
func (r *OpnameRepo) GetByID(ctx context.Context, tenantID, opnameID id.ID) (*opname.Opname, error) {
	q := r.Builder().
		Select(opnameColumns...).
		From(opnamesTable).
		Where(squirrel.Eq{"id": opnameID, "tenant_id": tenantID, "deleted_at": nil})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var o opname.Opname
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("opname", opnameID)
		}
		return nil, fmt.Errorf("get opname: %w", err)
	}
	return &o, nil
}

// List fetches opnames with filtering, newest first.
func (r *OpnameRepo) List(ctx context.Context, tenantID id.ID, f opname.ListFilter) ([]*opname.Opname, error) {
	q := r.Builder().
		Select(opnameColumns...).
		From(opnamesTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "deleted_at": nil}).
		OrderBy("created_at DESC")

	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *f.ProductID})
	}
	if f.Processed != nil {
		q = q.Where(squirrel.Eq{"processed": *f.Processed})
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

	var opnames []*opname.Opname
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &opnames, sql, args...); err != nil {
		return nil, fmt.Errorf("list opnames: %w", err)
	}
	return opnames, nil
}

// MarkProcessed flips processed only if still false; the conditional update
// makes concurrent processing race-free.
func (r *OpnameRepo) MarkProcessed(ctx context.Context, tenantID, opnameID, processedBy id.ID, at time.Time) (bool, error) {
	q := r.Builder().
		Update(opnamesTable).
		Set("processed", true).
		Set("processed_at", at).
		Set("processed_by", processedBy).
		Set("updated_at", at).
		Where(squirrel.Eq{
			"id":        opnameID,
			"tenant_id": tenantID,
			"processed": false,
		}).
		Where("deleted_at IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
