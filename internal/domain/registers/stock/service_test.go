package stock

import (
	"context"
	"testing"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/product"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProducts struct {
	items map[id.ID]*product.Product
}

func newFakeProducts(ps ...*product.Product) *fakeProducts {
	f := &fakeProducts{items: make(map[id.ID]*product.Product)}
	for _, p := range ps {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *product.Product) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *product.Product) error {
	f.items[p.ID] = p
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, tenantID, productID id.ID) (*product.Product, error) {
	p, ok := f.items[productID]
	if !ok || p.TenantID != tenantID || p.IsDeleted() {
		return nil, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

func (f *fakeProducts) GetForUpdate(ctx context.Context, tenantID, productID id.ID) (*product.Product, error) {
	return f.GetByID(ctx, tenantID, productID)
}

func (f *fakeProducts) UpdateStock(_ context.Context, _, productID id.ID, quantity int64) error {
	f.items[productID].Quantity = quantity
	return nil
}

func (f *fakeProducts) UpdateCost(_ context.Context, _, productID id.ID, cost types.Money) error {
	f.items[productID].Cost = cost
	return nil
}

func (f *fakeProducts) List(_ context.Context, tenantID id.ID, filter product.ListFilter) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range f.items {
		if p.TenantID != tenantID || p.IsDeleted() {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) ListLowStock(_ context.Context, tenantID id.ID) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range f.items {
		if p.TenantID == tenantID && !p.IsDeleted() && p.IsActive && p.IsLowStock() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) SoftDelete(_ context.Context, _, productID id.ID) error {
	f.items[productID].MarkDeleted()
	return nil
}

type fakeMovements struct {
	movements []*entity.StockMovement
}

func (f *fakeMovements) CreateMovement(_ context.Context, m *entity.StockMovement) error {
	f.movements = append(f.movements, m)
	return nil
}

func (f *fakeMovements) ListByProduct(_ context.Context, _, productID id.ID, _ MovementFilter) ([]*entity.StockMovement, error) {
	var out []*entity.StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMovements) DeadStock(_ context.Context, _ id.ID, _ time.Time) ([]*DeadStockItem, error) {
	return nil, nil
}

func testProduct(tenantID id.ID, sku string, qty int64, cost string) *product.Product {
	p := product.NewProduct(tenantID, sku, "Product "+sku, types.MustMoney("100"), 5)
	p.Quantity = qty
	p.Cost = types.MustMoney(cost)
	return p
}

func TestRecordMovementTransitions(t *testing.T) {
	tenantID := id.New()
	actorID := id.New()

	tests := []struct {
		name      string
		startQty  int64
		mtype     entity.MovementType
		quantity  int64
		wantAfter int64
	}{
		{name: "in increases", startQty: 10, mtype: entity.MovementIn, quantity: 5, wantAfter: 15},
		{name: "out decreases", startQty: 10, mtype: entity.MovementOut, quantity: 3, wantAfter: 7},
		{name: "out clamps at zero", startQty: 2, mtype: entity.MovementOut, quantity: 10, wantAfter: 0},
		{name: "return restores", startQty: 7, mtype: entity.MovementReturn, quantity: 3, wantAfter: 10},
		{name: "adjustment sets absolute", startQty: 20, mtype: entity.MovementAdjustment, quantity: 18, wantAfter: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProduct(tenantID, "SKU-1", tt.startQty, "10")
			products := newFakeProducts(p)
			movements := &fakeMovements{}
			svc := NewService(products, movements, fakeTxManager{})

			m, err := svc.RecordMovement(context.Background(), RecordMovementInput{
				TenantID:      tenantID,
				ProductID:     p.ID,
				Type:          tt.mtype,
				Quantity:      tt.quantity,
				ReferenceType: entity.ReferenceManual,
				ActorID:       actorID,
			})
			if err != nil {
				t.Fatalf("RecordMovement: %v", err)
			}

			if m.BeforeQty != tt.startQty {
				t.Errorf("BeforeQty = %d, want %d", m.BeforeQty, tt.startQty)
			}
			if m.AfterQty != tt.wantAfter {
				t.Errorf("AfterQty = %d, want %d", m.AfterQty, tt.wantAfter)
			}
			if p.Quantity != tt.wantAfter {
				t.Errorf("product quantity = %d, want %d", p.Quantity, tt.wantAfter)
			}
			if len(movements.movements) != 1 {
				t.Fatalf("movements recorded = %d, want 1", len(movements.movements))
			}
		})
	}
}

func TestRecordMovementDefaultsCostFromProduct(t *testing.T) {
	tenantID := id.New()
	p := testProduct(tenantID, "SKU-1", 10, "12.50")
	svc := NewService(newFakeProducts(p), &fakeMovements{}, fakeTxManager{})

	m, err := svc.RecordMovement(context.Background(), RecordMovementInput{
		TenantID:      tenantID,
		ProductID:     p.ID,
		Type:          entity.MovementOut,
		Quantity:      2,
		ReferenceType: entity.ReferenceSale,
		ActorID:       id.New(),
	})
	if err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}
	if m.CostPerUnit == nil || !m.CostPerUnit.Equal(types.MustMoney("12.50")) {
		t.Errorf("CostPerUnit = %v, want 12.50", m.CostPerUnit)
	}
}

func TestRecordMovementAdjustmentHasNoDefaultCost(t *testing.T) {
	tenantID := id.New()
	p := testProduct(tenantID, "SKU-1", 10, "12.50")
	svc := NewService(newFakeProducts(p), &fakeMovements{}, fakeTxManager{})

	m, err := svc.RecordMovement(context.Background(), RecordMovementInput{
		TenantID:      tenantID,
		ProductID:     p.ID,
		Type:          entity.MovementAdjustment,
		Quantity:      8,
		ReferenceType: entity.ReferenceOpname,
		ActorID:       id.New(),
	})
	if err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}
	if m.CostPerUnit != nil {
		t.Errorf("CostPerUnit = %v, want nil", m.CostPerUnit)
	}
}

func TestRecordMovementRejectsUnknownType(t *testing.T) {
	tenantID := id.New()
	p := testProduct(tenantID, "SKU-1", 10, "10")
	svc := NewService(newFakeProducts(p), &fakeMovements{}, fakeTxManager{})

	_, err := svc.RecordMovement(context.Background(), RecordMovementInput{
		TenantID:  tenantID,
		ProductID: p.ID,
		Type:      entity.MovementType("TRANSFER"),
		Quantity:  1,
		ActorID:   id.New(),
	})
	if err == nil {
		t.Fatal("expected error for unknown movement type")
	}
}

func TestUpdateCostWAC(t *testing.T) {
	tenantID := id.New()

	tests := []struct {
		name     string
		oldQty   int64
		oldCost  string
		inQty    int64
		inCost   string
		wantCost string
	}{
		// 10 units at 10.00 plus 10 units at 20.00 averages to 15.00
		{name: "equal lots", oldQty: 10, oldCost: "10.00", inQty: 10, inCost: "20.00", wantCost: "15"},
		// 20 at 40.00 plus 10 at 60.00 gives 1400/30 = 46.67 after rounding
		{name: "rounds to cost scale", oldQty: 20, oldCost: "40.00", inQty: 10, inCost: "60.00", wantCost: "46.67"},
		{name: "first lot sets cost", oldQty: 0, oldCost: "0", inQty: 5, inCost: "33.10", wantCost: "33.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProduct(tenantID, "SKU-1", tt.oldQty, tt.oldCost)
			products := newFakeProducts(p)
			svc := NewService(products, &fakeMovements{}, fakeTxManager{})

			res, err := svc.UpdateCostWAC(context.Background(), tenantID, p.ID, types.MustMoney(tt.inCost), tt.inQty)
			if err != nil {
				t.Fatalf("UpdateCostWAC: %v", err)
			}

			want := types.MustMoney(tt.wantCost)
			if !res.NewCost.Equal(want) {
				t.Errorf("NewCost = %s, want %s", res.NewCost, want)
			}
			if !p.Cost.Equal(want) {
				t.Errorf("persisted cost = %s, want %s", p.Cost, want)
			}
			if res.NewQty != tt.oldQty+tt.inQty {
				t.Errorf("NewQty = %d, want %d", res.NewQty, tt.oldQty+tt.inQty)
			}
		})
	}
}

func TestUpdateCostWACRejectsNonPositiveQty(t *testing.T) {
	tenantID := id.New()
	p := testProduct(tenantID, "SKU-1", 10, "10")
	svc := NewService(newFakeProducts(p), &fakeMovements{}, fakeTxManager{})

	if _, err := svc.UpdateCostWAC(context.Background(), tenantID, p.ID, types.MustMoney("5"), 0); err == nil {
		t.Fatal("expected error for zero incoming quantity")
	}
}

func TestGetInventoryValuation(t *testing.T) {
	tenantID := id.New()
	a := testProduct(tenantID, "SKU-A", 10, "5.00")   // 50.00
	b := testProduct(tenantID, "SKU-B", 3, "12.50")   // 37.50
	inactive := testProduct(tenantID, "SKU-C", 100, "1.00")
	inactive.IsActive = false

	svc := NewService(newFakeProducts(a, b, inactive), &fakeMovements{}, fakeTxManager{})

	summary, err := svc.GetInventoryValuation(context.Background(), tenantID)
	if err != nil {
		t.Fatalf("GetInventoryValuation: %v", err)
	}

	if summary.TotalProducts != 2 {
		t.Errorf("TotalProducts = %d, want 2", summary.TotalProducts)
	}
	if summary.TotalUnits != 13 {
		t.Errorf("TotalUnits = %d, want 13", summary.TotalUnits)
	}
	if want := types.MustMoney("87.50"); !summary.CostValue.Equal(want) {
		t.Errorf("CostValue = %s, want %s", summary.CostValue, want)
	}
	// Both products sell at 100.00: 13 units on the shelf.
	if want := types.MustMoney("1300"); !summary.SellingValue.Equal(want) {
		t.Errorf("SellingValue = %s, want %s", summary.SellingValue, want)
	}
	if want := types.MustMoney("1212.50"); !summary.PotentialProfit.Equal(want) {
		t.Errorf("PotentialProfit = %s, want %s", summary.PotentialProfit, want)
	}
	// SKU-B sits at 3 units against a minimum of 5.
	if summary.LowStockCount != 1 {
		t.Errorf("LowStockCount = %d, want 1", summary.LowStockCount)
	}
	if summary.OutOfStockCount != 0 {
		t.Errorf("OutOfStockCount = %d, want 0", summary.OutOfStockCount)
	}
}

func TestRecordMovementDeferredProductUpdate(t *testing.T) {
	tenantID := id.New()
	p := testProduct(tenantID, "SKU-1", 10, "10")
	products := newFakeProducts(p)
	movements := &fakeMovements{}
	svc := NewService(products, movements, fakeTxManager{})

	m, err := svc.RecordMovement(context.Background(), RecordMovementInput{
		TenantID:           tenantID,
		ProductID:          p.ID,
		Type:               entity.MovementOut,
		Quantity:           4,
		ReferenceType:      entity.ReferenceSale,
		ActorID:            id.New(),
		DeferProductUpdate: true,
	})
	if err != nil {
		t.Fatalf("RecordMovement: %v", err)
	}

	// The movement records the transition but the product write is left to
	// the caller.
	if m.BeforeQty != 10 || m.AfterQty != 6 {
		t.Errorf("snapshot = (%d, %d), want (10, 6)", m.BeforeQty, m.AfterQty)
	}
	if p.Quantity != 10 {
		t.Errorf("product quantity = %d, deferred update must not write", p.Quantity)
	}
	if len(movements.movements) != 1 {
		t.Errorf("movements = %d, want 1", len(movements.movements))
	}
}
