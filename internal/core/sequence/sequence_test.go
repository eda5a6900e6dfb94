package sequence

import (
	"context"
	"testing"
	"time"

	"tillbook/internal/core/id"
)

func TestFormat(t *testing.T) {
	day := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		kind Kind
		n    int64
		want string
	}{
		{KindSale, 1, "TRX-20260829-0001"},
		{KindSale, 42, "TRX-20260829-0042"},
		{KindReturn, 7, "RTN-20260829-0007"},
		{KindCash, 1234, "CSH-20260829-1234"},
		{KindPurchase, 10000, "PO-20260829-10000"},
	}

	for _, tt := range tests {
		if got := Format(tt.kind, day, tt.n); got != tt.want {
			t.Errorf("Format(%s, %d) = %q, want %q", tt.kind, tt.n, got, tt.want)
		}
	}
}

func TestFormatUsesUTCDate(t *testing.T) {
	// 01:30 in UTC+7 is still the previous day in UTC.
	loc := time.FixedZone("WIB", 7*3600)
	local := time.Date(2026, 8, 30, 1, 30, 0, 0, loc)

	if got := Format(KindSale, local, 1); got != "TRX-20260829-0001" {
		t.Errorf("Format = %q, want TRX-20260829-0001", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"TRX-20260829-0042", 42},
		{"PO-20260829-10000", 10000},
		{"garbage", -1},
		{"TRX-20260829", -1},
		{"TRX-20260829-abcd", -1},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMockCountsPerTenantKindDay(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	tenantA := id.New()
	tenantB := id.New()
	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	got, err := m.Next(ctx, tenantA, KindSale, day)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got != "TRX-20260829-0001" {
		t.Errorf("first number = %q", got)
	}

	got, _ = m.Next(ctx, tenantA, KindSale, day)
	if got != "TRX-20260829-0002" {
		t.Errorf("second number = %q", got)
	}

	// Separate counters per tenant, kind and day.
	got, _ = m.Next(ctx, tenantB, KindSale, day)
	if got != "TRX-20260829-0001" {
		t.Errorf("other tenant first number = %q", got)
	}
	got, _ = m.Next(ctx, tenantA, KindCash, day)
	if got != "CSH-20260829-0001" {
		t.Errorf("other kind first number = %q", got)
	}
	got, _ = m.Next(ctx, tenantA, KindSale, day.AddDate(0, 0, 1))
	if got != "TRX-20260830-0001" {
		t.Errorf("next day first number = %q", got)
	}
}
