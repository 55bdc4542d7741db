package kv

import (
	"context"
	"sync"
)

type Memory struct {
	mu    sync.RWMutex
	store map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		store: make(map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.store[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store[key] = value
	return nil
}
