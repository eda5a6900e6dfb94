package purchase

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

// Service manages purchase orders and manual purchases.
type Service struct {
	products  product.Repository
	repo      Repository
	stock     *stock.Service
	cash      *cash.Service
	seq       sequence.Generator
	txManager tx.Manager
}

// NewService creates a new purchase service.
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

// CreateItemInput is one requested order line.
type CreateItemInput struct {
	ProductID id.ID
	Quantity  int64
	UnitCost  types.Money
}

// CreateOrderInput describes a new purchase order.
type CreateOrderInput struct {
	TenantID  id.ID
	Supplier  string
	Items     []CreateItemInput
	Notes     string
	CreatedBy id.ID
}

// CreateOrder drafts a purchase order. No stock or cost effect until receipt.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, apperror.NewValidation("purchase order must have at least one item")
	}

	o := &Order{
		BaseEntity: entity.NewBaseEntity(in.TenantID),
		Status:     StatusPending,
		Supplier:   in.Supplier,
		Notes:      in.Notes,
		CreatedBy:  in.CreatedBy,
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		for _, line := range in.Items {
			p, err := s.products.GetByID(ctx, in.TenantID, line.ProductID)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, &OrderItem{
				ID:          id.New(),
				OrderID:     o.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    line.Quantity,
				UnitCost:    line.UnitCost,
				Subtotal:    line.UnitCost.Mul(decimal.NewFromInt(line.Quantity)),
			})
		}
		o.Recalculate()

		if err := o.Validate(ctx); err != nil {
			return err
		}

		number, err := s.seq.Next(ctx, in.TenantID, sequence.KindPurchase, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		o.Number = number

		return s.repo.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created", "number", o.Number, "supplier", o.Supplier, "total", o.Total)
	return o, nil
}

// ReceiveOrder receives a pending order: folds each line's cost into the
// weighted average, then records the IN movement at the new cost. RECEIVED
// is terminal.
func (s *Service) ReceiveOrder(ctx context.Context, tenantID, orderID, actorID id.ID) (*Order, error) {
	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return apperror.NewInvalidState("purchase order", string(o.Status), string(StatusPending))
		}

		for _, it := range o.Items {
			if _, err := s.stock.UpdateCostWAC(ctx, tenantID, it.ProductID, it.UnitCost, it.Quantity); err != nil {
				return err
			}
			if _, err := s.stock.RecordMovement(ctx, stock.RecordMovementInput{
				TenantID:      tenantID,
				ProductID:     it.ProductID,
				Type:          entity.MovementIn,
				Quantity:      it.Quantity,
				CostPerUnit:   &it.UnitCost,
				ReferenceType: entity.ReferencePurchase,
				ReferenceID:   &o.ID,
				Notes:         fmt.Sprintf("Receipt of %s", o.Number),
				ActorID:       actorID,
			}); err != nil {
				return err
			}
		}

		o.Status = StatusReceived
		o.Touch()
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order received", "number", o.Number)
	return o, nil
}

// CancelOrder cancels a pending order. Received orders cannot be cancelled.
func (s *Service) CancelOrder(ctx context.Context, tenantID, orderID id.ID) (*Order, error) {
	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return apperror.NewInvalidState("purchase order", string(o.Status), string(StatusPending))
		}

		o.Status = StatusCancelled
		o.Touch()
		return s.repo.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// ManualPurchaseInput describes an over-the-counter purchase with no order.
type ManualPurchaseInput struct {
	TenantID      id.ID
	ProductID     id.ID
	Quantity      int64
	TotalCost     types.Money
	PaymentMethod string
	Notes         string
	ActorID       id.ID
}

// RecordManualPurchase books a direct purchase: per-unit cost is derived from
// the total, the weighted average is updated, stock moves in, and the expense
// lands in the purchase-inventory category.
func (s *Service) RecordManualPurchase(ctx context.Context, in ManualPurchaseInput) (*entity.StockMovement, error) {
	if in.Quantity <= 0 {
		return nil, apperror.NewValidation("quantity must be positive")
	}
	if !in.TotalCost.IsPositive() {
		return nil, apperror.NewValidation("total cost must be positive")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "CASH"
	}

	unitCost := in.TotalCost.
		Div(decimal.NewFromInt(in.Quantity)).
		Round(types.CostScale)

	var movement *entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByID(ctx, in.TenantID, in.ProductID)
		if err != nil {
			return err
		}

		if _, err := s.stock.UpdateCostWAC(ctx, in.TenantID, in.ProductID, unitCost, in.Quantity); err != nil {
			return err
		}

		movement, err = s.stock.RecordMovement(ctx, stock.RecordMovementInput{
			TenantID:      in.TenantID,
			ProductID:     in.ProductID,
			Type:          entity.MovementIn,
			Quantity:      in.Quantity,
			CostPerUnit:   &unitCost,
			ReferenceType: entity.ReferenceManual,
			Notes:         in.Notes,
			ActorID:       in.ActorID,
		})
		if err != nil {
			return err
		}

		_, err = s.cash.BookSystemExpense(ctx, in.TenantID,
			cash.CategoryPurchaseInventory, "Purchase Inventory",
			in.TotalCost, in.PaymentMethod,
			fmt.Sprintf("Stock purchase %s x%d", p.Name, in.Quantity),
			nil, in.ActorID,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "manual purchase recorded",
		"productId", in.ProductID,
		"quantity", in.Quantity,
		"unitCost", unitCost,
	)
	return movement, nil
}

// GetByID fetches an order with its items.
func (s *Service) GetByID(ctx context.Context, tenantID, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, tenantID, orderID)
}

// List fetches orders with filtering.
func (s *Service) List(ctx context.Context, tenantID id.ID, f ListFilter) ([]*Order, error) {
	return s.repo.List(ctx, tenantID, f)
}
