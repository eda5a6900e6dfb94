// Package sequence provides per-tenant per-day document numbering.
//
// Numbers are issued from a single-row upsert-and-increment per
// (tenant, kind, day), so concurrent operations within the same tenant-day
// can never compute colliding numbers.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tillbook/internal/core/id"
)

// Kind identifies the numbered document family.
type Kind string

const (
	// KindSale numbers sale transactions (TRX-YYYYMMDD-NNNN)
	KindSale Kind = "TRX"
	// KindReturn numbers sale returns (RTN-YYYYMMDD-NNNN)
	KindReturn Kind = "RTN"
	// KindCash numbers cash ledger entries (CSH-YYYYMMDD-NNNN)
	KindCash Kind = "CSH"
	// KindPurchase numbers purchase orders (PO-YYYYMMDD-NNNN)
	KindPurchase Kind = "PO"
)

// PadWidth is the minimum width of the numeric part.
const PadWidth = 4

// Generator issues monotonically increasing per-tenant per-day numbers.
type Generator interface {
	// Next returns the next formatted number for the tenant, kind and day.
	// The counter resets per day; the day component of the number is the
	// UTC date of the given time.
	Next(ctx context.Context, tenantID id.ID, kind Kind, day time.Time) (string, error)
}

// Format renders a sequence value as KIND-YYYYMMDD-NNNN.
func Format(kind Kind, day time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%0*d", kind, day.UTC().Format("20060102"), PadWidth, n)
}

// DayKey normalizes a time to its UTC date, the granularity counters reset at.
func DayKey(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	parts := strings.Split(formatted, "-")
	if len(parts) != 3 {
		return -1
	}
	num, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return -1
	}
	return num
}
