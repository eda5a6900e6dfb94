package salereturn

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/tx"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/documents/sale"
	"tillbook/internal/domain/ledger/cash"
	"tillbook/internal/domain/registers/stock"
	"tillbook/pkg/logger"
)

// Service processes returns against completed sales.
type Service struct {
	repo      Repository
	sales     sale.Repository
	stock     *stock.Service
	cash      *cash.Service
	seq       sequence.Generator
	txManager tx.Manager
}

// NewService creates a new return service.
func NewService(
	repo Repository,
	sales sale.Repository,
	stockSvc *stock.Service,
	cashSvc *cash.Service,
	seq sequence.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		sales:     sales,
		stock:     stockSvc,
		cash:      cashSvc,
		seq:       seq,
		txManager: txManager,
	}
}

// CreateItemInput is one requested return line, addressed by the original
// sale line.
type CreateItemInput struct {
	SaleItemID id.ID
	Quantity   int64
}

// CreateInput describes a new return.
type CreateInput struct {
	TenantID    id.ID
	SaleID      id.ID
	Items       []CreateItemInput
	Reason      string
	ProcessedBy id.ID
}

// Create processes a return: checks eligibility and per-line bounds, restores
// stock, and books the refund expense. One transaction covers all of it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Return, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("return must have at least one item")
	}

	var r *Return
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		origin, err := s.sales.GetByID(ctx, in.TenantID, in.SaleID)
		if err != nil {
			return err
		}
		if origin.Status != sale.StatusCompleted && origin.Status != sale.StatusLocked {
			return apperror.NewIneligible("only completed sales accept returns").
				WithDetail("status", string(origin.Status))
		}
		if origin.CompletedAt == nil {
			return apperror.NewIneligible("sale has no completion time")
		}
		if time.Since(*origin.CompletedAt) > ReturnWindow {
			return apperror.NewIneligible("return window has closed").
				WithDetail("completedAt", origin.CompletedAt).
				WithDetail("windowHours", int(ReturnWindow.Hours()))
		}

		returned, err := s.repo.ReturnedQuantities(ctx, in.TenantID, in.SaleID)
		if err != nil {
			return err
		}

		saleItems := make(map[id.ID]*sale.Item, len(origin.Items))
		for _, it := range origin.Items {
			saleItems[it.ID] = it
		}

		r = &Return{
			BaseEntity:  entity.NewBaseEntity(in.TenantID),
			SaleID:      origin.ID,
			SaleNumber:  origin.Number,
			Total:       types.Zero(),
			Reason:      in.Reason,
			ProcessedBy: in.ProcessedBy,
		}

		for _, line := range in.Items {
			if line.Quantity <= 0 {
				return apperror.NewValidation("return quantity must be positive").
					WithDetail("saleItemId", line.SaleItemID)
			}

			orig, ok := saleItems[line.SaleItemID]
			if !ok {
				return apperror.NewNotFound("sale item", line.SaleItemID)
			}

			returnable := orig.Quantity - returned[orig.ID]
			if line.Quantity > returnable {
				return apperror.NewOverReturn(orig.ProductID.String(), orig.ProductName, line.Quantity, returnable)
			}
			// Count this line against the bound so repeating the same sale
			// item within one request cannot exceed the sold quantity.
			returned[orig.ID] += line.Quantity

			subtotal := orig.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
			r.Items = append(r.Items, &ReturnItem{
				ID:          id.New(),
				ReturnID:    r.ID,
				SaleItemID:  orig.ID,
				ProductID:   orig.ProductID,
				ProductName: orig.ProductName,
				Quantity:    line.Quantity,
				UnitPrice:   orig.UnitPrice,
				Subtotal:    subtotal,
			})
			r.Total = r.Total.Add(subtotal)
		}

		number, err := s.seq.Next(ctx, in.TenantID, sequence.KindReturn, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("next return number: %w", err)
		}
		r.Number = number

		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}

		for _, it := range r.Items {
			if _, err := s.stock.RecordMovement(ctx, stock.RecordMovementInput{
				TenantID:      in.TenantID,
				ProductID:     it.ProductID,
				Type:          entity.MovementReturn,
				Quantity:      it.Quantity,
				ReferenceType: entity.ReferenceReturn,
				ReferenceID:   &r.ID,
				Notes:         fmt.Sprintf("Return %s of sale %s", r.Number, origin.Number),
				ActorID:       in.ProcessedBy,
			}); err != nil {
				return err
			}
		}

		_, err = s.cash.BookSystemExpense(ctx, in.TenantID,
			cash.CategoryReturnRefund, "Return Refund",
			r.Total, origin.PaymentMethod,
			fmt.Sprintf("Refund for return %s (sale %s)", r.Number, origin.Number),
			&origin.ID, in.ProcessedBy,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "return processed", "number", r.Number, "saleNumber", r.SaleNumber, "total", r.Total)
	return r, nil
}

// GetByID fetches a return with its items.
func (s *Service) GetByID(ctx context.Context, tenantID, returnID id.ID) (*Return, error) {
	return s.repo.GetByID(ctx, tenantID, returnID)
}

// List fetches returns with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Return, error) {
	return s.repo.List(ctx, tenantID, f)
}

// GetReturnableTransactions lists sales still inside the return window that
// have at least one line not yet fully returned.
func (s *Service) GetReturnableTransactions(ctx context.Context, tenantID id.ID) ([]*sale.Transaction, error) {
	since := time.Now().UTC().Add(-ReturnWindow)
	sales, err := s.sales.ListCompletedSince(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}

	out := make([]*sale.Transaction, 0, len(sales))
	for _, t := range sales {
		returned, err := s.repo.ReturnedQuantities(ctx, tenantID, t.ID)
		if err != nil {
			return nil, err
		}
		for _, it := range t.Items {
			if returned[it.ID] < it.Quantity {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}
