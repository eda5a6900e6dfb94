package opname

import (
	"context"
	"testing"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/domain/registers/stock"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeProducts struct {
	items map[id.ID]*product.Product
}

func (f *fakeProducts) Create(_ context.Context, p *product.Product) error { f.items[p.ID] = p; return nil }
func (f *fakeProducts) Update(_ context.Context, p *product.Product) error { f.items[p.ID] = p; return nil }

func (f *fakeProducts) GetByID(_ context.Context, tenantID, productID id.ID) (*product.Product, error) {
	p, ok := f.items[productID]
	if !ok || p.TenantID != tenantID {
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

func (f *fakeProducts) List(_ context.Context, _ id.ID, _ product.ListFilter) ([]*product.Product, error) {
	return nil, nil
}

func (f *fakeProducts) ListLowStock(_ context.Context, _ id.ID) ([]*product.Product, error) {
	return nil, nil
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

func (f *fakeMovements) ListByProduct(_ context.Context, _, _ id.ID, _ stock.MovementFilter) ([]*entity.StockMovement, error) {
	return nil, nil
}

func (f *fakeMovements) DeadStock(_ context.Context, _ id.ID, _ time.Time) ([]*stock.DeadStockItem, error) {
	return nil, nil
}

type fakeOpnames struct {
	opnames map[id.ID]*Opname
}

func (f *fakeOpnames) Create(_ context.Context, o *Opname) error {
	f.opnames[o.ID] = o
	return nil
}

func (f *fakeOpnames) GetByID(_ context.Context, tenantID, opnameID id.ID) (*Opname, error) {
	o, ok := f.opnames[opnameID]
	if !ok || o.TenantID != tenantID {
		return nil, apperror.NewNotFound("stock opname", opnameID)
	}
	return o, nil
}

func (f *fakeOpnames) List(_ context.Context, _ id.ID, _ ListFilter) ([]*Opname, error) {
	return nil, nil
}

func (f *fakeOpnames) MarkProcessed(_ context.Context, tenantID, opnameID, processedBy id.ID, at time.Time) (bool, error) {
	o, ok := f.opnames[opnameID]
	if !ok || o.TenantID != tenantID || o.Processed {
		return false, nil
	}
	o.Processed = true
	o.ProcessedAt = &at
	o.ProcessedBy = &processedBy
	return true, nil
}

type opnameFixture struct {
	svc       *Service
	products  *fakeProducts
	movements *fakeMovements
	tenantID  id.ID
	actorID   id.ID
}

func newOpnameFixture() *opnameFixture {
	products := &fakeProducts{items: make(map[id.ID]*product.Product)}
	movements := &fakeMovements{}
	opnames := &fakeOpnames{opnames: make(map[id.ID]*Opname)}
	txm := fakeTxManager{}

	return &opnameFixture{
		svc:       NewService(products, opnames, stock.NewService(products, movements, txm), txm),
		products:  products,
		movements: movements,
		tenantID:  id.New(),
		actorID:   id.New(),
	}
}

func (fx *opnameFixture) product(qty int64) *product.Product {
	p := product.NewProduct(fx.tenantID, "SKU-1", "Widget", types.MustMoney("10"), 2)
	p.Quantity = qty
	fx.products.items[p.ID] = p
	return p
}

func TestCreateSnapshotsSystemQuantity(t *testing.T) {
	fx := newOpnameFixture()
	p := fx.product(20)

	o, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:  fx.tenantID,
		ProductID: p.ID,
		ActualQty: 18,
		Notes:     "monthly count",
		CreatedBy: fx.actorID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if o.SystemQty != 20 {
		t.Errorf("SystemQty = %d, want 20", o.SystemQty)
	}
	if o.Difference != -2 {
		t.Errorf("Difference = %d, want -2", o.Difference)
	}
	if o.Processed {
		t.Error("new opname must not be processed")
	}
	// Counting alone moves nothing.
	if p.Quantity != 20 || len(fx.movements.movements) != 0 {
		t.Error("creation must not adjust stock")
	}
}

func TestCreateRejectsNegativeCount(t *testing.T) {
	fx := newOpnameFixture()
	p := fx.product(5)

	_, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:  fx.tenantID,
		ProductID: p.ID,
		ActualQty: -1,
		CreatedBy: fx.actorID,
	})
	if !apperror.IsCode(err, apperror.CodeValidation) {
		t.Errorf("error = %v, want VALIDATION_ERROR", err)
	}
}

func TestProcessAdjustsToCountedQuantity(t *testing.T) {
	fx := newOpnameFixture()
	p := fx.product(20)

	o, _ := fx.svc.Create(context.Background(), CreateInput{
		TenantID:  fx.tenantID,
		ProductID: p.ID,
		ActualQty: 18,
		CreatedBy: fx.actorID,
	})

	processed, err := fx.svc.Process(context.Background(), fx.tenantID, o.ID, fx.actorID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if !processed.Processed || processed.ProcessedAt == nil {
		t.Error("opname not marked processed")
	}
	// The adjustment sets the stock to the counted quantity, not a delta.
	if p.Quantity != 18 {
		t.Errorf("quantity = %d, want 18", p.Quantity)
	}
	if len(fx.movements.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(fx.movements.movements))
	}
	m := fx.movements.movements[0]
	if m.Type != entity.MovementAdjustment || m.ReferenceType != entity.ReferenceOpname {
		t.Error("adjustment movement malformed")
	}
	if m.Quantity != 18 || m.BeforeQty != 20 || m.AfterQty != 18 {
		t.Errorf("movement quantities = (%d, %d, %d), want (18, 20, 18)", m.Quantity, m.BeforeQty, m.AfterQty)
	}
}

func TestProcessTwiceFails(t *testing.T) {
	fx := newOpnameFixture()
	p := fx.product(20)

	o, _ := fx.svc.Create(context.Background(), CreateInput{
		TenantID:  fx.tenantID,
		ProductID: p.ID,
		ActualQty: 25,
		CreatedBy: fx.actorID,
	})

	if _, err := fx.svc.Process(context.Background(), fx.tenantID, o.ID, fx.actorID); err != nil {
		t.Fatalf("Process: %v", err)
	}
	_, err := fx.svc.Process(context.Background(), fx.tenantID, o.ID, fx.actorID)
	if !apperror.IsCode(err, apperror.CodeAlreadyProcessed) {
		t.Errorf("error = %v, want ALREADY_PROCESSED", err)
	}
	// The second attempt must not double-apply.
	if p.Quantity != 25 {
		t.Errorf("quantity = %d, want 25", p.Quantity)
	}
	if len(fx.movements.movements) != 1 {
		t.Errorf("movements = %d, want 1", len(fx.movements.movements))
	}
}

func TestProcessZeroDifferenceMovesNothing(t *testing.T) {
	fx := newOpnameFixture()
	p := fx.product(20)

	o, _ := fx.svc.Create(context.Background(), CreateInput{
		TenantID:  fx.tenantID,
		ProductID: p.ID,
		ActualQty: 20,
		CreatedBy: fx.actorID,
	})

	processed, err := fx.svc.Process(context.Background(), fx.tenantID, o.ID, fx.actorID)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !processed.Processed {
		t.Error("opname not marked processed")
	}
	if len(fx.movements.movements) != 0 {
		t.Errorf("movements = %d, want 0 for a clean count", len(fx.movements.movements))
	}
}
