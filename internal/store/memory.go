package store

import (
	"context"
	"sort"
	"sync"

	"github.com/spiritrise/yogacamp/internal/models"
)

// Memory is an in-process store (thread-safe).
type Memory struct {
	mu   sync.RWMutex
	regs map[string]models.Registration
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{regs: make(map[string]models.Registration)}
}

func (m *Memory) FindByContact(_ context.Context, contactKey string) (*models.Registration, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	reg, ok := m.regs[contactKey]
	if !ok {
		return nil, nil
	}
	return &reg, nil
}

func (m *Memory) Insert(_ context.Context, reg *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.regs[reg.ContactKey]; ok {
		return ErrDuplicate
	}
	prepare(reg)
	m.regs[reg.ContactKey] = *reg
	return nil
}

func (m *Memory) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.regs), nil
}

// List returns registrations oldest first.
func (m *Memory) List(_ context.Context) ([]models.Registration, error) {
	m.mu.RLock()
	list := make([]models.Registration, 0, len(m.regs))
	for _, reg := range m.regs {
		list = append(list, reg)
	}
	m.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
