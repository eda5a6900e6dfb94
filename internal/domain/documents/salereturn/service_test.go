package salereturn

import (
	"context"
	"strings"
	"testing"
	"time"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/core/sequence"
	"tillbook/internal/core/types"
	"tillbook/internal/domain/catalogs/product"
	"tillbook/internal/domain/documents/sale"
	"tillbook/internal/domain/ledger/cash"
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

type fakeSales struct {
	sales map[id.ID]*sale.Transaction
}

func (f *fakeSales) Create(_ context.Context, t *sale.Transaction) error { f.sales[t.ID] = t; return nil }
func (f *fakeSales) Update(_ context.Context, t *sale.Transaction) error { f.sales[t.ID] = t; return nil }
func (f *fakeSales) SoftDelete(_ context.Context, _, txID id.ID) error {
	f.sales[txID].MarkDeleted()
	return nil
}

func (f *fakeSales) GetByID(_ context.Context, tenantID, txID id.ID) (*sale.Transaction, error) {
	t, ok := f.sales[txID]
	if !ok || t.TenantID != tenantID || t.IsDeleted() {
		return nil, apperror.NewNotFound("sale transaction", txID)
	}
	return t, nil
}

func (f *fakeSales) List(_ context.Context, _ id.ID, _ sale.ListFilter) ([]*sale.Transaction, error) {
	return nil, nil
}

func (f *fakeSales) ListCompletedSince(_ context.Context, tenantID id.ID, since time.Time) ([]*sale.Transaction, error) {
	var out []*sale.Transaction
	for _, t := range f.sales {
		if t.TenantID != tenantID || t.IsDeleted() {
			continue
		}
		if t.Status != sale.StatusCompleted && t.Status != sale.StatusLocked {
			continue
		}
		if t.CompletedAt == nil || t.CompletedAt.Before(since) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeSales) LockBefore(_ context.Context, _ id.ID, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeSales) GetDashboardStats(_ context.Context, _ id.ID, _ *id.ID, _, _ time.Time) (*sale.DashboardStats, error) {
	return nil, nil
}

type fakeReturns struct {
	returns map[id.ID]*Return
}

func (f *fakeReturns) Create(_ context.Context, r *Return) error {
	f.returns[r.ID] = r
	return nil
}

func (f *fakeReturns) GetByID(_ context.Context, tenantID, returnID id.ID) (*Return, error) {
	r, ok := f.returns[returnID]
	if !ok || r.TenantID != tenantID {
		return nil, apperror.NewNotFound("sale return", returnID)
	}
	return r, nil
}

func (f *fakeReturns) List(_ context.Context, _ id.ID, _ ListFilter) ([]*Return, error) {
	return nil, nil
}

func (f *fakeReturns) ReturnedQuantities(_ context.Context, tenantID, saleID id.ID) (map[id.ID]int64, error) {
	out := make(map[id.ID]int64)
	for _, r := range f.returns {
		if r.TenantID != tenantID || r.SaleID != saleID {
			continue
		}
		for _, it := range r.Items {
			out[it.SaleItemID] += it.Quantity
		}
	}
	return out, nil
}

type fakeCash struct {
	entries    []*cash.CashTransaction
	categories map[string]id.ID
}

func (f *fakeCash) Create(_ context.Context, t *cash.CashTransaction) error {
	f.entries = append(f.entries, t)
	return nil
}

func (f *fakeCash) Update(_ context.Context, _ *cash.CashTransaction) error { return nil }
func (f *fakeCash) SoftDelete(_ context.Context, _, _ id.ID) error          { return nil }

func (f *fakeCash) GetByID(_ context.Context, _, txID id.ID) (*cash.CashTransaction, error) {
	return nil, apperror.NewNotFound("cash transaction", txID)
}

func (f *fakeCash) FindIncomeBySale(_ context.Context, _, saleID id.ID) (*cash.CashTransaction, error) {
	return nil, apperror.NewNotFound("cash transaction", saleID)
}

func (f *fakeCash) List(_ context.Context, _ id.ID, _ cash.ListFilter) ([]*cash.CashTransaction, error) {
	return nil, nil
}

func (f *fakeCash) GetBalance(_ context.Context, _ id.ID) (*cash.Balance, error) {
	return &cash.Balance{Total: types.Zero()}, nil
}

func (f *fakeCash) GetCashFlowSummary(_ context.Context, _ id.ID, _, _ time.Time) (*cash.CashFlowSummary, error) {
	return nil, nil
}

func (f *fakeCash) GetExpenseByCategory(_ context.Context, _ id.ID, _, _ time.Time) ([]*cash.ExpenseByCategory, error) {
	return nil, nil
}

func (f *fakeCash) EnsureCategory(_ context.Context, _ id.ID, code, _ string, _ bool) (id.ID, error) {
	if existing, ok := f.categories[code]; ok {
		return existing, nil
	}
	categoryID := id.New()
	f.categories[code] = categoryID
	return categoryID, nil
}

func (f *fakeCash) ListCategories(_ context.Context, _ id.ID) ([]*cash.Category, error) {
	return nil, nil
}

func (f *fakeCash) GetSaleForSync(_ context.Context, _, saleID id.ID) (*cash.SaleInfo, error) {
	return nil, apperror.NewNotFound("sale transaction", saleID)
}

type returnFixture struct {
	svc       *Service
	products  *fakeProducts
	movements *fakeMovements
	sales     *fakeSales
	cashRepo  *fakeCash
	tenantID  id.ID
	clerkID   id.ID
}

func newReturnFixture() *returnFixture {
	products := &fakeProducts{items: make(map[id.ID]*product.Product)}
	movements := &fakeMovements{}
	sales := &fakeSales{sales: make(map[id.ID]*sale.Transaction)}
	returns := &fakeReturns{returns: make(map[id.ID]*Return)}
	cashRepo := &fakeCash{categories: make(map[string]id.ID)}
	txm := fakeTxManager{}

	stockSvc := stock.NewService(products, movements, txm)
	cashSvc := cash.NewService(cashRepo, sequence.NewMock(), txm)

	return &returnFixture{
		svc:       NewService(returns, sales, stockSvc, cashSvc, sequence.NewMock(), txm),
		products:  products,
		movements: movements,
		sales:     sales,
		cashRepo:  cashRepo,
		tenantID:  id.New(),
		clerkID:   id.New(),
	}
}

// completedSale seeds a completed sale of qty units at price, with the
// product holding stockQty units after the sale.
func (fx *returnFixture) completedSale(qty, stockQty int64, price string, completedAt time.Time) (*sale.Transaction, *sale.Item, *product.Product) {
	p := product.NewProduct(fx.tenantID, "SKU-1", "Widget", types.MustMoney(price), 1)
	p.Quantity = stockQty
	fx.products.items[p.ID] = p

	unitPrice := types.MustMoney(price)
	item := &sale.Item{
		ID:          id.New(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		Subtotal:    unitPrice.Mul(types.NewMoneyFromInt(qty)),
	}

	t := &sale.Transaction{
		BaseEntity:    entity.NewBaseEntity(fx.tenantID),
		Number:        "TRX-20260829-0001",
		Status:        sale.StatusCompleted,
		Subtotal:      item.Subtotal,
		Discount:      types.Zero(),
		Total:         item.Subtotal,
		PaymentMethod: "QRIS",
		PaymentAmount: item.Subtotal,
		ChangeAmount:  types.Zero(),
		CashierID:     fx.clerkID,
		CompletedAt:   &completedAt,
		Items:         []*sale.Item{item},
	}
	item.TransactionID = t.ID
	fx.sales.sales[t.ID] = t
	return t, item, p
}

func TestCreateReturn(t *testing.T) {
	fx := newReturnFixture()
	origin, item, p := fx.completedSale(3, 7, "20.00", time.Now().UTC().Add(-24*time.Hour))

	r, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 2}},
		Reason:      "damaged packaging",
		ProcessedBy: fx.clerkID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(r.Number, "RTN-") {
		t.Errorf("Number = %q, want RTN prefix", r.Number)
	}
	if want := types.MustMoney("40.00"); !r.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", r.Total, want)
	}
	if r.SaleNumber != origin.Number {
		t.Errorf("SaleNumber = %q, want %q", r.SaleNumber, origin.Number)
	}

	// Stock comes back.
	if p.Quantity != 9 {
		t.Errorf("product quantity = %d, want 9", p.Quantity)
	}
	if len(fx.movements.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(fx.movements.movements))
	}
	m := fx.movements.movements[0]
	if m.Type != entity.MovementReturn || m.ReferenceType != entity.ReferenceReturn {
		t.Error("restore movement malformed")
	}

	// Refund booked as an expense in the sale's payment method.
	if len(fx.cashRepo.entries) != 1 {
		t.Fatalf("cash entries = %d, want 1", len(fx.cashRepo.entries))
	}
	refund := fx.cashRepo.entries[0]
	if refund.Type != cash.TypeExpense {
		t.Errorf("refund type = %s, want EXPENSE", refund.Type)
	}
	if !refund.Amount.Equal(types.MustMoney("40.00")) {
		t.Errorf("refund amount = %s, want 40.00", refund.Amount)
	}
	if refund.PaymentMethod != "QRIS" {
		t.Errorf("refund payment method = %q, want QRIS", refund.PaymentMethod)
	}
	if refund.SaleID == nil || *refund.SaleID != origin.ID {
		t.Error("refund not linked to the originating sale")
	}
	if _, ok := fx.cashRepo.categories[cash.CategoryReturnRefund]; !ok {
		t.Error("refund category not ensured")
	}
}

func TestCreateReturnBoundsCumulativeQuantity(t *testing.T) {
	fx := newReturnFixture()
	origin, item, _ := fx.completedSale(3, 7, "20.00", time.Now().UTC().Add(-time.Hour))

	// First return takes 2 of the 3 sold units.
	if _, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 2}},
		ProcessedBy: fx.clerkID,
	}); err != nil {
		t.Fatalf("first return: %v", err)
	}

	// Only 1 unit remains returnable.
	_, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 2}},
		ProcessedBy: fx.clerkID,
	})
	if !apperror.IsCode(err, apperror.CodeOverReturn) {
		t.Fatalf("error = %v, want OVER_RETURN", err)
	}
	appErr, _ := apperror.AsAppError(err)
	if appErr.Details["returnable"] != int64(1) {
		t.Errorf("returnable detail = %v, want 1", appErr.Details["returnable"])
	}

	// The last unit still goes through.
	if _, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 1}},
		ProcessedBy: fx.clerkID,
	}); err != nil {
		t.Fatalf("final return: %v", err)
	}
}

func TestCreateReturnBoundsRepeatedLineInOneRequest(t *testing.T) {
	fx := newReturnFixture()
	origin, item, p := fx.completedSale(3, 7, "20.00", time.Now().UTC().Add(-time.Hour))

	// Two lines for the same sale item sum past the sold quantity.
	_, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID: fx.tenantID,
		SaleID:   origin.ID,
		Items: []CreateItemInput{
			{SaleItemID: item.ID, Quantity: 2},
			{SaleItemID: item.ID, Quantity: 2},
		},
		ProcessedBy: fx.clerkID,
	})
	if !apperror.IsCode(err, apperror.CodeOverReturn) {
		t.Fatalf("error = %v, want OVER_RETURN", err)
	}
	if p.Quantity != 7 {
		t.Errorf("product quantity = %d, want 7", p.Quantity)
	}
	if len(fx.movements.movements) != 0 {
		t.Errorf("movements = %d, want 0", len(fx.movements.movements))
	}
	if len(fx.cashRepo.entries) != 0 {
		t.Errorf("cash entries = %d, want 0", len(fx.cashRepo.entries))
	}

	// Splitting the quantity across lines within the bound still works.
	r, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID: fx.tenantID,
		SaleID:   origin.ID,
		Items: []CreateItemInput{
			{SaleItemID: item.ID, Quantity: 2},
			{SaleItemID: item.ID, Quantity: 1},
		},
		ProcessedBy: fx.clerkID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := types.MustMoney("60.00"); !r.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", r.Total, want)
	}
}

func TestCreateReturnWindowClosed(t *testing.T) {
	fx := newReturnFixture()
	origin, item, _ := fx.completedSale(3, 7, "20.00", time.Now().UTC().Add(-ReturnWindow-time.Hour))

	_, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 1}},
		ProcessedBy: fx.clerkID,
	})
	if !apperror.IsCode(err, apperror.CodeIneligible) {
		t.Errorf("error = %v, want INELIGIBLE", err)
	}
}

func TestCreateReturnRejectsDraftSale(t *testing.T) {
	fx := newReturnFixture()
	now := time.Now().UTC()
	origin, item, _ := fx.completedSale(3, 7, "20.00", now)
	origin.Status = sale.StatusDraft
	origin.CompletedAt = nil

	_, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 1}},
		ProcessedBy: fx.clerkID,
	})
	if !apperror.IsCode(err, apperror.CodeIneligible) {
		t.Errorf("error = %v, want INELIGIBLE", err)
	}
}

func TestLockedSaleStillAcceptsReturns(t *testing.T) {
	fx := newReturnFixture()
	origin, item, _ := fx.completedSale(2, 8, "15.00", time.Now().UTC().Add(-time.Hour))
	origin.Status = sale.StatusLocked

	if _, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      origin.ID,
		Items:       []CreateItemInput{{SaleItemID: item.ID, Quantity: 1}},
		ProcessedBy: fx.clerkID,
	}); err != nil {
		t.Fatalf("Create on locked sale: %v", err)
	}
}

func TestGetReturnableTransactions(t *testing.T) {
	fx := newReturnFixture()
	inside, _, _ := fx.completedSale(1, 9, "10.00", time.Now().UTC().Add(-time.Hour))
	outside, _, _ := fx.completedSale(1, 9, "10.00", time.Now().UTC().Add(-ReturnWindow-time.Hour))

	eligible, err := fx.svc.GetReturnableTransactions(context.Background(), fx.tenantID)
	if err != nil {
		t.Fatalf("GetReturnableTransactions: %v", err)
	}
	if len(eligible) != 1 {
		t.Fatalf("eligible = %d, want 1", len(eligible))
	}
	if eligible[0].ID != inside.ID {
		t.Error("wrong sale considered eligible")
	}
	_ = outside
}

func TestGetReturnableTransactionsSkipsFullyReturnedSales(t *testing.T) {
	fx := newReturnFixture()
	open, _, _ := fx.completedSale(2, 8, "10.00", time.Now().UTC().Add(-time.Hour))
	drained, drainedItem, _ := fx.completedSale(1, 9, "10.00", time.Now().UTC().Add(-2*time.Hour))

	if _, err := fx.svc.Create(context.Background(), CreateInput{
		TenantID:    fx.tenantID,
		SaleID:      drained.ID,
		Items:       []CreateItemInput{{SaleItemID: drainedItem.ID, Quantity: 1}},
		ProcessedBy: fx.clerkID,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	eligible, err := fx.svc.GetReturnableTransactions(context.Background(), fx.tenantID)
	if err != nil {
		t.Fatalf("GetReturnableTransactions: %v", err)
	}
	if len(eligible) != 1 {
		t.Fatalf("eligible = %d, want 1", len(eligible))
	}
	if eligible[0].ID != open.ID {
		t.Error("fully returned sale still listed as returnable")
	}
}
