package opname

import (
	"context"
	"fmt"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/tx"
	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/domain/registers/stock"
	"tillbook/pkg/logger"
)

// Service manages stock opnames.
type Service struct {
	products  product.Repository
	repo      Repository
	stock     *stock.Service
	txManager tx.Manager
}

// NewService creates a new opname service.
func NewService(products product.Repository, repo Repository, stockSvc *stock.Service, txManager tx.Manager) *Service {
	return &Service{
		products:  products,
		repo:      repo,
		stock:     stockSvc,
		txManager: txManager,
	}
}

// CreateInput describes a new count.
type CreateInput struct {
	TenantID  id.ID
	ProductID id.ID
	ActualQty int64
	Notes     string
	CreatedBy id.ID
}

// Create records a count against the current system quantity. The snapshot
// is taken under a row lock so a concurrent movement cannot slip between the
// read and the insert.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Opname, error) {
	if in.ActualQty < 0 {
		return nil, apperror.NewValidation("actual quantity cannot be negative")
	}

	var o *Opname
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, in.TenantID, in.ProductID)
		if err != nil {
			return err
		}

		o = &Opname{
			BaseEntity:  entity.NewBaseEntity(in.TenantID),
			ProductID:   p.ID,
			ProductName: p.Name,
			SystemQty:   p.Quantity,
			ActualQty:   in.ActualQty,
			Difference:  in.ActualQty - p.Quantity,
			Notes:       in.Notes,
			CreatedBy:   in.CreatedBy,
		}
		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "opname created",
		"productId", o.ProductID,
		"systemQty", o.SystemQty,
		"actualQty", o.ActualQty,
		"difference", o.Difference,
	)
	return o, nil
}

// Process applies the count: if a difference exists, an ADJUSTMENT movement
// sets the stock to the counted quantity. An opname processes exactly once.
func (s *Service) Process(ctx context.Context, tenantID, opnameID, processedBy id.ID) (*Opname, error) {
	var o *Opname
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, tenantID, opnameID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		won, err := s.repo.MarkProcessed(ctx, tenantID, opnameID, processedBy, now)
		if err != nil {
			return err
		}
		if !won {
			return apperror.NewAlreadyProcessed("opname", opnameID)
		}

		o.Processed = true
		o.ProcessedAt = &now
		o.ProcessedBy = &processedBy

		if o.Difference == 0 {
			return nil
		}

		_, err = s.stock.RecordMovement(ctx, stock.RecordMovementInput{
			TenantID:      tenantID,
			ProductID:     o.ProductID,
			Type:          entity.MovementAdjustment,
			Quantity:      o.ActualQty,
			ReferenceType: entity.ReferenceOpname,
			ReferenceID:   &o.ID,
			Notes:         fmt.Sprintf("Opname adjustment (%+d)", o.Difference),
			ActorID:       processedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "opname processed", "id", o.ID, "difference", o.Difference)
	return o, nil
}

// GetByID fetches a single opname.
func (s *Service) GetByID(ctx context.Context, tenantID, opnameID id.ID) (*Opname, error) {
	return s.repo.GetByID(ctx, tenantID, opnameID)
}

// List fetches opnames with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Opname, error) {
	return s.repo.List(ctx, tenantID, f)
}
