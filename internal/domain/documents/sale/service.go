package sale

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
	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/domain/ledger/cash"
	"tillbook/internal/domain/registers/stock"
	"tillbook/pkg/logger"
)

// Service manages sale transactions.
type Service struct {
	products  product.Repository
	repo      Repository
	stock     *stock.Service
	cash      *cash.Service
	seq       sequence.Generator
	txManager tx.Manager
}

// NewService creates a new sale service.
func NewService(
	products product.Repository,
	repo Repository,
	stockSvc *stock.Service,
	cashSvc *cash.Service,
	seq sequence.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		products:  products,
		repo:      repo,
		stock:     stockSvc,
		cash:      cashSvc,
		seq:       seq,
		txManager: txManager,
	}
}

// CreateItemInput is one requested line of a new sale.
type CreateItemInput struct {
	ProductID id.ID
	Quantity  int64
}

// CreateInput describes a new draft sale.
type CreateInput struct {
	TenantID  id.ID
	CashierID id.ID
	Items     []CreateItemInput
	Discount  types.Money
	Notes     string
}

// Create opens a draft sale. Prices and product names are captured now; the
// stock check here is advisory, the binding check happens on completion.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Transaction, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("sale must have at least one item")
	}

	t := &Transaction{
		BaseEntity:    entity.NewBaseEntity(in.TenantID),
		Status:        StatusDraft,
		Discount:      in.Discount,
		PaymentAmount: types.Zero(),
		ChangeAmount:  types.Zero(),
		CashierID:     in.CashierID,
		Notes:         in.Notes,
	}
	if t.Discount.IsZero() {
		t.Discount = types.Zero()
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range in.Items {
			if line.Quantity <= 0 {
				return apperror.NewValidation("item quantity must be positive").
					WithDetail("productId", line.ProductID)
			}

			p, err := s.products.GetByID(ctx, in.TenantID, line.ProductID)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return apperror.NewValidation("product is inactive").
					WithDetail("productId", p.ID).
					WithDetail("sku", p.SKU)
			}
			if p.Quantity < line.Quantity {
				return apperror.NewInsufficientStock(p.ID.String(), p.Name, line.Quantity, p.Quantity)
			}

			t.Items = append(t.Items, &Item{
				ID:            id.New(),
				TransactionID: t.ID,
				ProductID:     p.ID,
				ProductName:   p.Name,
				Quantity:      line.Quantity,
				UnitPrice:     p.Price,
				Subtotal:      p.Price.Mul(decimal.NewFromInt(line.Quantity)),
			})
		}
		t.Recalculate()

		if err := t.Validate(ctx); err != nil {
			return err
		}

		number, err := s.seq.Next(ctx, in.TenantID, sequence.KindSale, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("next sale number: %w", err)
		}
		t.Number = number

		return s.repo.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale drafted", "number", t.Number, "total", t.Total)
	return t, nil
}

// Complete settles a draft: validates payment, deducts stock per line, and
// syncs the income entry to the cash ledger. All of it commits or none of it
// does.
func (s *Service) Complete(ctx context.Context, tenantID, txID id.ID, paymentAmount types.Money, paymentMethod string) (*Transaction, error) {
	if paymentMethod == "" {
		return nil, apperror.NewValidation("payment method is required")
	}

	var t *Transaction
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByID(ctx, tenantID, txID)
		if err != nil {
			return err
		}
		if t.Status != StatusDraft {
			return apperror.NewInvalidState("sale", string(t.Status), string(StatusDraft))
		}
		if paymentAmount.LessThan(t.Total) {
			return apperror.NewInsufficientPayment(t.Total, paymentAmount)
		}

		for _, it := range t.Items {
			p, err := s.products.GetForUpdate(ctx, tenantID, it.ProductID)
			if err != nil {
				return err
			}
			if p.Quantity < it.Quantity {
				return apperror.NewInsufficientStock(p.ID.String(), p.Name, it.Quantity, p.Quantity)
			}

			cost := p.Cost
			if _, err := s.stock.RecordMovement(ctx, stock.RecordMovementInput{
				TenantID:      tenantID,
				ProductID:     it.ProductID,
				Type:          entity.MovementOut,
				Quantity:      it.Quantity,
				CostPerUnit:   &cost,
				ReferenceType: entity.ReferenceSale,
				ReferenceID:   &t.ID,
				Notes:         fmt.Sprintf("Sale %s", t.Number),
				ActorID:       t.CashierID,
			}); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		t.Status = StatusCompleted
		t.PaymentMethod = paymentMethod
		t.PaymentAmount = paymentAmount
		t.ChangeAmount = paymentAmount.Sub(t.Total)
		t.CompletedAt = &now
		t.Touch()

		if err := s.repo.Update(ctx, t); err != nil {
			return err
		}

		if _, err := s.cash.SyncFromSale(ctx, tenantID, t.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale completed",
		"number", t.Number,
		"total", t.Total,
		"paymentMethod", t.PaymentMethod,
		"change", t.ChangeAmount,
	)
	return t, nil
}

// Delete voids a sale. Drafts vanish quietly; completed sales get
// compensating RETURN movements restoring every deducted unit. Locked sales
// cannot be voided.
func (s *Service) Delete(ctx context.Context, tenantID, txID, actorID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, tenantID, txID)
		if err != nil {
			return err
		}
		if t.Status == StatusLocked {
			return apperror.NewInvalidState("sale", string(StatusLocked), "DRAFT or COMPLETED")
		}

		if t.Status == StatusCompleted {
			for _, it := range t.Items {
				if _, err := s.stock.RecordMovement(ctx, stock.RecordMovementInput{
					TenantID:      tenantID,
					ProductID:     it.ProductID,
					Type:          entity.MovementReturn,
					Quantity:      it.Quantity,
					ReferenceType: entity.ReferenceSale,
					ReferenceID:   &t.ID,
					Notes:         fmt.Sprintf("Void of sale %s", t.Number),
					ActorID:       actorID,
				}); err != nil {
					return err
				}
			}
		}

		return s.repo.SoftDelete(ctx, tenantID, txID)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sale voided", "id", txID)
	return nil
}

// GetByID fetches a sale with its items.
func (s *Service) GetByID(ctx context.Context, tenantID, txID id.ID) (*Transaction, error) {
	return s.repo.GetByID(ctx, tenantID, txID)
}

// List fetches sales with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Transaction, error) {
	return s.repo.List(ctx, tenantID, f)
}

// LockBefore sweeps completed sales older than cutoff into LOCKED state.
// Meant to run at day end.
func (s *Service) LockBefore(ctx context.Context, tenantID id.ID, cutoff time.Time) (int64, error) {
	n, err := s.repo.LockBefore(ctx, tenantID, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info(ctx, "sales locked", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// GetDashboardStats summarises completed sales over a period, optionally
// scoped to one cashier.
func (s *Service) GetDashboardStats(ctx context.Context, tenantID id.ID, cashierID *id.ID, from, to time.Time) (*DashboardStats, error) {
	stats, err := s.repo.GetDashboardStats(ctx, tenantID, cashierID, from, to)
	if err != nil {
		return nil, err
	}
	if stats.TransactionCount > 0 {
		stats.AverageSale = stats.TotalSales.
			Div(decimal.NewFromInt(stats.TransactionCount)).
			Round(types.CostScale)
	} else {
		stats.AverageSale = types.Zero()
	}
	return stats, nil
}
