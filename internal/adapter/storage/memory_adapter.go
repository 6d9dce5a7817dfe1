package storage

import (
	"context"
	"sync"

	"github.com/authenticindia/order-desk/internal/core/domain"
)

// MemoryAdapter is a process-local store. Nothing survives a restart.
type MemoryAdapter struct {
	mu       sync.RWMutex
	location domain.PersistedLocation
	receipts map[int64]domain.Order
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{receipts: make(map[int64]domain.Order)}
}

func (m *MemoryAdapter) LoadLocation(ctx context.Context) (domain.PersistedLocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.location, nil
}

func (m *MemoryAdapter) SaveLocation(ctx context.Context, loc domain.PersistedLocation) error {
	m.mu.Lock()
	m.location = loc
	m.mu.Unlock()
	return nil
}

func (m *MemoryAdapter) RecordReceipt(ctx context.Context, c domain.Confirmation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.receipts[c.OrderID]; ok {
		return nil
	}
	o := c.Order
	o.OrderID = c.OrderID
	m.receipts[c.OrderID] = o
	return nil
}

func (m *MemoryAdapter) ReceiptCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}
