package postgres

import (
	"context"
	"fmt"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
)

// Compile-time check that SequenceRepo implements sequence.Generator.
var _ sequence.Generator = (*SequenceRepo)(nil)

// SequenceRepo issues document numbers from an atomic per-day counter table.
// The upsert increments under row lock, so two concurrent callers can never
// observe the same value.
type SequenceRepo struct {
	txManager *TxManager
}

// NewSequenceRepo creates a new sequence repository.
func NewSequenceRepo(txManager *TxManager) *SequenceRepo {
	return &SequenceRepo{txManager: txManager}
}

// Next returns the next formatted number for (tenant, kind, day).
func (r *SequenceRepo) Next(ctx context.Context, tenantID id.ID, kind sequence.Kind, day time.Time) (string, error) {
	const sql = `
		INSERT INTO pos_sequences (tenant_id, kind, day, current_val)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (tenant_id, kind, day)
		DO UPDATE SET current_val = pos_sequences.current_val + 1
		RETURNING current_val
	`

	querier := r.txManager.GetQuerier(ctx)

	var n int64
	if err := querier.QueryRow(ctx, sql, tenantID, string(kind), sequence.DayKey(day)).Scan(&n); err != nil {
		return "", fmt.Errorf("next sequence %s: %w", kind, err)
	}
	return sequence.Format(kind, day, n), nil
}
