package cache

import (
	"context"
	"errors"
	"sync/atomic"

	"recipe-aggregator/internal/infrastructure/metrics"
	"recipe-aggregator/internal/pkg/common"
)

// Stats 快取統計
type Stats struct {
	Backend     string  `json:"backend"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Errors      int64   `json:"errors"`
	Writes      int64   `json:"writes"`
	WriteErrors int64   `json:"write_errors"`
	HitRatio    float64 `json:"hit_ratio"`
}

// Instrumented 包裝任一後端，記錄命中率並輸出 prometheus 指標
type Instrumented struct {
	backend     Store
	name        string
	hits        atomic.Int64
	misses      atomic.Int64
	errors      atomic.Int64
	writes      atomic.Int64
	writeErrors atomic.Int64
}

// NewInstrumented 建立統計包裝
func NewInstrumented(backend Store, name string) *Instrumented {
	if name == "" {
		name = "memory"
	}
	return &Instrumented{backend: backend, name: name}
}

// Backend 回傳底層後端
func (c *Instrumented) Backend() Store {
	return c.backend
}

func (c *Instrumented) Initialize(ctx context.Context, provider string) error {
	return c.backend.Initialize(ctx, provider)
}

func (c *Instrumented) FetchSearch(ctx context.Context, provider, signature string) (string, error) {
	v, err := c.backend.FetchSearch(ctx, provider, signature)
	c.observeFetch(provider, KindSearch, signature, err)
	return v, err
}

func (c *Instrumented) FetchRecipe(ctx context.Context, provider, recipeID string) (string, error) {
	v, err := c.backend.FetchRecipe(ctx, provider, recipeID)
	c.observeFetch(provider, KindRecipe, recipeID, err)
	return v, err
}

func (c *Instrumented) StoreSearch(ctx context.Context, provider, signature, response string) error {
	err := c.backend.StoreSearch(ctx, provider, signature, response)
	c.observeWrite(provider, KindSearch, err)
	return err
}

func (c *Instrumented) StoreRecipe(ctx context.Context, provider, recipeID, response string) error {
	err := c.backend.StoreRecipe(ctx, provider, recipeID, response)
	c.observeWrite(provider, KindRecipe, err)
	return err
}

func (c *Instrumented) observeFetch(provider, kind, key string, err error) {
	switch {
	case err == nil:
		c.hits.Add(1)
		metrics.RecordCacheLookup(provider, kind, "hit")
		common.LogCacheHit(provider, kind, key)
	case errors.Is(err, common.ErrCacheMiss):
		c.misses.Add(1)
		metrics.RecordCacheLookup(provider, kind, "miss")
		common.LogCacheMiss(provider, kind, key)
	default:
		c.errors.Add(1)
		metrics.RecordCacheLookup(provider, kind, "error")
	}
}

func (c *Instrumented) observeWrite(provider, kind string, err error) {
	c.writes.Add(1)
	if err != nil {
		c.writeErrors.Add(1)
	}
	metrics.RecordCacheWrite(provider, kind, err)
}

// Stats 取得統計
func (c *Instrumented) Stats() Stats {
	s := Stats{
		Backend:     c.name,
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Errors:      c.errors.Load(),
		Writes:      c.writes.Load(),
		WriteErrors: c.writeErrors.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRatio = float64(s.Hits) / float64(total)
	}
	return s
}

// Ping 後端支援時檢查連線
func (c *Instrumented) Ping(ctx context.Context) error {
	if p, ok := c.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Instrumented) Close() error {
	return c.backend.Close()
}
