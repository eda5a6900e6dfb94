package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/tx"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/product"
	"tillbook/pkg/logger"
)

// Service records stock movements and maintains product quantity and
// weighted-average cost.
type Service struct {
	products  product.Repository
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(products product.Repository, repo Repository, txManager tx.Manager) *Service {
	return &Service{
		products:  products,
		repo:      repo,
		txManager: txManager,
	}
}

// RecordMovementInput describes a single movement to record.
type RecordMovementInput struct {
	TenantID  id.ID
	ProductID id.ID
	Type      entity.MovementType
	// Quantity is the magnitude for IN/OUT/RETURN, or the absolute target
	// quantity for ADJUSTMENT.
	Quantity int64
	// CostPerUnit defaults to the product's current weighted-average cost
	// when nil.
	CostPerUnit   *types.Money
	ReferenceType entity.ReferenceType
	ReferenceID   *id.ID
	Notes         string
	ActorID       id.ID

	// DeferProductUpdate skips the product quantity write. For callers
	// batching several movements against one product inside a transaction;
	// the caller then writes the final quantity once.
	DeferProductUpdate bool
}

// RecordMovement appends a movement and moves the product's on-hand quantity.
// The product row is locked for the duration of the transaction, so the
// before/after snapshot is consistent under concurrent writers.
func (s *Service) RecordMovement(ctx context.Context, in RecordMovementInput) (*entity.StockMovement, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("unknown movement type %q", in.Type)
	}

	var movement *entity.StockMovement
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, in.TenantID, in.ProductID)
		if err != nil {
			return err
		}

		before := p.Quantity
		after, err := in.Type.Apply(before, in.Quantity)
		if err != nil {
			return err
		}
		if in.Type == entity.MovementOut && before-in.Quantity < 0 {
			logger.Warn(ctx, "stock out clamped at zero",
				"productId", p.ID,
				"sku", p.SKU,
				"before", before,
				"requested", in.Quantity,
			)
		}

		cost := in.CostPerUnit
		if cost == nil && in.Type != entity.MovementAdjustment {
			c := p.Cost
			cost = &c
		}

		m := entity.NewStockMovement(
			in.TenantID, in.ProductID,
			in.Type, in.Quantity, cost,
			in.ReferenceType, in.ReferenceID,
			before, after,
			in.Notes, in.ActorID,
		)
		if err := s.repo.CreateMovement(ctx, &m); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		if !in.DeferProductUpdate {
			if err := s.products.UpdateStock(ctx, in.TenantID, in.ProductID, after); err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}

		movement = &m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return movement, nil
}

// WACResult reports a weighted-average cost recomputation.
type WACResult struct {
	OldCost types.Money `json:"oldCost"`
	NewCost types.Money `json:"newCost"`
	OldQty  int64       `json:"oldQty"`
	NewQty  int64       `json:"newQty"`
}

// UpdateCostWAC folds an incoming purchase lot into the product's
// weighted-average cost:
//
//	newCost = (oldCost*oldQty + incomingCost*incomingQty) / (oldQty + incomingQty)
//
// rounded to two decimal places. Only the cost is written here; the quantity
// change is a separate movement.
func (s *Service) UpdateCostWAC(ctx context.Context, tenantID, productID id.ID, incomingCost types.Money, incomingQty int64) (*WACResult, error) {
	if incomingQty <= 0 {
		return nil, fmt.Errorf("incoming quantity must be positive, got %d", incomingQty)
	}

	var result *WACResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, tenantID, productID)
		if err != nil {
			return err
		}

		oldQty := p.Quantity
		newQty := oldQty + incomingQty

		var newCost types.Money
		if newQty <= 0 {
			newCost = types.Zero()
		} else {
			oldValue := p.Cost.Mul(decimal.NewFromInt(oldQty))
			inValue := incomingCost.Mul(decimal.NewFromInt(incomingQty))
			newCost = oldValue.Add(inValue).
				Div(decimal.NewFromInt(newQty)).
				Round(types.CostScale)
		}

		if err := s.products.UpdateCost(ctx, tenantID, productID, newCost); err != nil {
			return fmt.Errorf("update cost: %w", err)
		}

		result = &WACResult{
			OldCost: p.Cost,
			NewCost: newCost,
			OldQty:  oldQty,
			NewQty:  newQty,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "weighted-average cost updated",
		"productId", productID,
		"oldCost", result.OldCost,
		"newCost", result.NewCost,
	)
	return result, nil
}

// ValuationItem is one product's contribution to the inventory valuation.
type ValuationItem struct {
	ProductID    id.ID       `json:"productId"`
	SKU          string      `json:"sku"`
	Name         string      `json:"name"`
	Quantity     int64       `json:"quantity"`
	Cost         types.Money `json:"cost"`
	Price        types.Money `json:"price"`
	CostValue    types.Money `json:"costValue"`
	SellingValue types.Money `json:"sellingValue"`
}

// ValuationSummary values all stock on hand: cost basis, selling basis, and
// the spread between them.
type ValuationSummary struct {
	CostValue       types.Money      `json:"costValue"`
	SellingValue    types.Money      `json:"sellingValue"`
	PotentialProfit types.Money      `json:"potentialProfit"`
	TotalProducts   int              `json:"totalProducts"`
	TotalUnits      int64            `json:"totalUnits"`
	LowStockCount   int              `json:"lowStockCount"`
	OutOfStockCount int              `json:"outOfStockCount"`
	Items           []*ValuationItem `json:"items"`
}

// GetInventoryValuation values all active stock at weighted-average cost and
// current selling price.
func (s *Service) GetInventoryValuation(ctx context.Context, tenantID id.ID) (*ValuationSummary, error) {
	products, err := s.products.List(ctx, tenantID, product.ListFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	summary := &ValuationSummary{
		CostValue:    types.Zero(),
		SellingValue: types.Zero(),
		Items:        make([]*ValuationItem, 0, len(products)),
	}
	for _, p := range products {
		qty := decimal.NewFromInt(p.Quantity)
		costValue := p.Cost.Mul(qty)
		sellingValue := p.Price.Mul(qty)
		summary.Items = append(summary.Items, &ValuationItem{
			ProductID:    p.ID,
			SKU:          p.SKU,
			Name:         p.Name,
			Quantity:     p.Quantity,
			Cost:         p.Cost,
			Price:        p.Price,
			CostValue:    costValue,
			SellingValue: sellingValue,
		})
		summary.CostValue = summary.CostValue.Add(costValue)
		summary.SellingValue = summary.SellingValue.Add(sellingValue)
		summary.TotalUnits += p.Quantity
		if p.IsOutOfStock() {
			summary.OutOfStockCount++
		} else if p.IsLowStock() {
			summary.LowStockCount++
		}
	}
	summary.TotalProducts = len(products)
	summary.PotentialProfit = summary.SellingValue.Sub(summary.CostValue)
	return summary, nil
}

// GetLowStockProducts returns active products at or below their minimum
// stock threshold.
func (s *Service) GetLowStockProducts(ctx context.Context, tenantID id.ID) ([]*product.Product, error) {
	return s.products.ListLowStock(ctx, tenantID)
}

// GetDeadStockProducts returns products holding stock with no sale in the
// last days days.
func (s *Service) GetDeadStockProducts(ctx context.Context, tenantID id.ID, days int) ([]*DeadStockItem, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	items, err := s.repo.DeadStock(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	for _, it := range items {
		if it.LastSoldAt != nil {
			it.DaysInactive = int64(now.Sub(*it.LastSoldAt).Hours() / 24)
		}
	}
	return items, nil
}

// GetMovementHistory returns a product's movement ledger, newest first.
func (s *Service) GetMovementHistory(ctx context.Context, tenantID, productID id.ID, f MovementFilter) ([]*entity.StockMovement, error) {
	return s.repo.ListByProduct(ctx, tenantID, productID, f)
}
