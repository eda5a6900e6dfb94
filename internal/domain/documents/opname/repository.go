package opname

import (
	"context"
	"time"

	"tillbook/internal/core/id"
)

// ListFilter narrows opname listings.
type ListFilter struct {
	ProductID *id.ID
	Processed *bool
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Repository persists opname documents.
type Repository interface {
	Create(ctx context.Context, o *Opname) error

	GetByID(ctx context.Context, tenantID, opnameID id.ID) (*Opname, error)

	List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Opname, error)

	// MarkProcessed flips processed to true only if it is still false,
	// reporting whether this call won. The conditional update is what keeps
	// concurrent processing from double-adjusting.
	MarkProcessed(ctx context.Context, tenantID, opnameID, processedBy id.ID, at time.Time) (bool, error)
}
