package sequence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tillbook/internal/core/id"
)

// Mock is an in-memory Generator for tests.
type Mock struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewMock creates an in-memory sequence generator.
func NewMock() *Mock {
	return &Mock{counters: make(map[string]int64)}
}

// Next implements Generator.
func (m *Mock) Next(_ context.Context, tenantID id.ID, kind Kind, day time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s:%s:%s", tenantID, kind, DayKey(day).Format("20060102"))
	m.counters[key]++
	return Format(kind, day, m.counters[key]), nil
}

var _ Generator = (*Mock)(nil)
