package cache

import (
	"context"
	"sync"
)

// Memory 進程內快取，主要用於開發與測試
type Memory struct {
	mu    sync.RWMutex
	store map[memoryKey]string
}

type memoryKey struct {
	provider string
	kind     string
	key      string
}

// NewMemory 建立記憶體快取
func NewMemory() *Memory {
	return &Memory{store: make(map[memoryKey]string)}
}

// Initialize 記憶體快取不需要預先建立命名空間
func (m *Memory) Initialize(_ context.Context, _ string) error {
	return nil
}

func (m *Memory) FetchSearch(ctx context.Context, provider, signature string) (string, error) {
	return m.fetch(provider, KindSearch, signature)
}

func (m *Memory) FetchRecipe(ctx context.Context, provider, recipeID string) (string, error) {
	return m.fetch(provider, KindRecipe, recipeID)
}

func (m *Memory) StoreSearch(ctx context.Context, provider, signature, response string) error {
	m.insert(provider, KindSearch, signature, response)
	return nil
}

func (m *Memory) StoreRecipe(ctx context.Context, provider, recipeID, response string) error {
	m.insert(provider, KindRecipe, recipeID, response)
	return nil
}

func (m *Memory) fetch(provider, kind, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.store[memoryKey{provider, kind, key}]
	if !ok {
		return "", miss(provider, kind, key)
	}
	return value, nil
}

func (m *Memory) insert(provider, kind, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memoryKey{provider, kind, key}
	if _, exists := m.store[k]; exists {
		return
	}
	m.store[k] = value
}

// Len 目前條目數
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[memoryKey]string)
	return nil
}
