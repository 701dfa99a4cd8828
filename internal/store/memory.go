package store

import (
	"context"
	"sync"
)

// Memory keeps slots in process memory.
type Memory struct {
	mu     sync.RWMutex
	slots  map[Slot][]byte
	writes map[Slot]int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		slots:  make(map[Slot][]byte),
		writes: make(map[Slot]int),
	}
}

func (m *Memory) Get(ctx context.Context, slot Slot) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.slots[slot]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Memory) Put(ctx context.Context, slot Slot, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	m.slots[slot] = buf
	m.writes[slot]++
	return nil
}

// Writes reports how many times slot has been written.
func (m *Memory) Writes(slot Slot) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[slot]
}

func (m *Memory) Close() error { return nil }
