package entity

import (
	"fmt"
	"time"

	"tillbook/internal/core/id"
	"tillbook/internal/core/types"
)

// MovementType is a closed set of stock movement kinds. The quantity
// transition lives in Apply; callers never branch on the raw tag.
type MovementType string

const (
	// MovementIn increases on-hand quantity (purchases, receipts)
	MovementIn MovementType = "IN"
	// MovementOut decreases on-hand quantity (sales)
	MovementOut MovementType = "OUT"
	// MovementReturn restores on-hand quantity (customer returns, voided sales)
	MovementReturn MovementType = "RETURN"
	// MovementAdjustment sets the quantity to an absolute value (opname)
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementReturn, MovementAdjustment:
		return true
	}
	return false
}

// Apply computes the resulting on-hand quantity for a movement.
//
// OUT clamps at zero instead of going negative: callers on the sales path
// pre-validate availability under a row lock, so the clamp only engages on
// inconsistent data and is logged by the stock service when it does.
// ADJUSTMENT treats quantity as the new absolute value, not a delta.
func (t MovementType) Apply(before, quantity int64) (int64, error) {
	switch t {
	case MovementIn, MovementReturn:
		return before + quantity, nil
	case MovementOut:
		after := before - quantity
		if after < 0 {
			after = 0
		}
		return after, nil
	case MovementAdjustment:
		return quantity, nil
	default:
		return 0, fmt.Errorf("unknown movement type %q", t)
	}
}

// ReferenceType identifies the originating event of a movement.
type ReferenceType string

const (
	ReferencePurchase ReferenceType = "PURCHASE"
	ReferenceSale     ReferenceType = "SALE"
	ReferenceReturn   ReferenceType = "RETURN"
	ReferenceOpname   ReferenceType = "OPNAME"
	ReferenceManual   ReferenceType = "MANUAL"
)

// StockMovement is an immutable record of one quantity-affecting event.
// Movements are append-only: never updated, never deleted. The product's
// current quantity must always equal its initial quantity plus the sum of
// all movement deltas.
type StockMovement struct {
	ID       id.ID `db:"id" json:"id"`
	TenantID id.ID `db:"tenant_id" json:"tenantId"`

	ProductID id.ID        `db:"product_id" json:"productId"`
	Type      MovementType `db:"type" json:"type"`

	// Quantity is the movement magnitude; for ADJUSTMENT it is the
	// absolute counted quantity
	Quantity int64 `db:"quantity" json:"quantity"`

	// CostPerUnit captures the unit cost at movement time; nil for
	// adjustments without a cost basis
	CostPerUnit *types.Money `db:"cost_per_unit" json:"costPerUnit,omitempty"`

	ReferenceType ReferenceType `db:"reference_type" json:"referenceType"`
	ReferenceID   *id.ID        `db:"reference_id" json:"referenceId,omitempty"`

	// BeforeQty/AfterQty snapshot the product quantity around the movement;
	// AfterQty = Type.Apply(BeforeQty, Quantity) always holds
	BeforeQty int64 `db:"before_qty" json:"beforeQty"`
	AfterQty  int64 `db:"after_qty" json:"afterQty"`

	Notes     string    `db:"notes" json:"notes,omitempty"`
	ActorID   id.ID     `db:"actor_id" json:"actorId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewStockMovement creates a movement with generated ID and timestamp.
func NewStockMovement(
	tenantID, productID id.ID,
	movementType MovementType,
	quantity int64,
	costPerUnit *types.Money,
	referenceType ReferenceType,
	referenceID *id.ID,
	beforeQty, afterQty int64,
	notes string,
	actorID id.ID,
) StockMovement {
	return StockMovement{
		ID:            id.New(),
		TenantID:      tenantID,
		ProductID:     productID,
		Type:          movementType,
		Quantity:      quantity,
		CostPerUnit:   costPerUnit,
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
		BeforeQty:     beforeQty,
		AfterQty:      afterQty,
		Notes:         notes,
		ActorID:       actorID,
		CreatedAt:     time.Now().UTC(),
	}
}

// SignedDelta returns the net quantity change produced by this movement.
func (m *StockMovement) SignedDelta() int64 {
	return m.AfterQty - m.BeforeQty
}
