package entity

import "testing"

func TestMovementTypeApply(t *testing.T) {
	tests := []struct {
		name     string
		mtype    MovementType
		before   int64
		quantity int64
		want     int64
		wantErr  bool
	}{
		{name: "in adds", mtype: MovementIn, before: 10, quantity: 5, want: 15},
		{name: "in from zero", mtype: MovementIn, before: 0, quantity: 7, want: 7},
		{name: "out subtracts", mtype: MovementOut, before: 10, quantity: 3, want: 7},
		{name: "out exact", mtype: MovementOut, before: 5, quantity: 5, want: 0},
		{name: "out clamps at zero", mtype: MovementOut, before: 3, quantity: 10, want: 0},
		{name: "return adds", mtype: MovementReturn, before: 7, quantity: 3, want: 10},
		{name: "adjustment sets absolute", mtype: MovementAdjustment, before: 20, quantity: 18, want: 18},
		{name: "adjustment up", mtype: MovementAdjustment, before: 5, quantity: 30, want: 30},
		{name: "adjustment to zero", mtype: MovementAdjustment, before: 12, quantity: 0, want: 0},
		{name: "unknown type", mtype: MovementType("TRANSFER"), before: 1, quantity: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.mtype.Apply(tt.before, tt.quantity)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Apply(%d, %d) = %d, want %d", tt.before, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestMovementTypeValid(t *testing.T) {
	for _, mt := range []MovementType{MovementIn, MovementOut, MovementReturn, MovementAdjustment} {
		if !mt.Valid() {
			t.Errorf("%s should be valid", mt)
		}
	}
	if MovementType("").Valid() || MovementType("TRANSFER").Valid() {
		t.Error("unknown types should be invalid")
	}
}

func TestSignedDelta(t *testing.T) {
	m := StockMovement{BeforeQty: 10, AfterQty: 7}
	if got := m.SignedDelta(); got != -3 {
		t.Errorf("SignedDelta() = %d, want -3", got)
	}
}
