package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"github.com/dgraph-io/badger/v4"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLite(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	bdg, err := NewBadgerInMemory()
	if err != nil {
		t.Fatalf("NewBadgerInMemory() error = %v", err)
	}

	stores := map[string]Store{
		"memory": NewMemory(),
		"sqlite": sqlite,
		"badger": bdg,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStoreInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Initialize(ctx, "spoonacular"); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			if err := store.StoreSearch(ctx, "spoonacular", "apples,flour,sugar", "first"); err != nil {
				t.Fatalf("StoreSearch() error = %v", err)
			}
			if err := store.StoreSearch(ctx, "spoonacular", "apples,flour,sugar", "second"); err != nil {
				t.Fatalf("second StoreSearch() error = %v", err)
			}
			got, err := store.FetchSearch(ctx, "spoonacular", "apples,flour,sugar")
			if err != nil {
				t.Fatalf("FetchSearch() error = %v", err)
			}
			if got != "first" {
				t.Errorf("FetchSearch() = %q, want first write to win", got)
			}

			if err := store.StoreRecipe(ctx, "spoonacular", "47732", `{"title":"a"}`); err != nil {
				t.Fatalf("StoreRecipe() error = %v", err)
			}
			if err := store.StoreRecipe(ctx, "spoonacular", "47732", `{"title":"b"}`); err != nil {
				t.Fatalf("second StoreRecipe() error = %v", err)
			}
			if got, _ := store.FetchRecipe(ctx, "spoonacular", "47732"); got != `{"title":"a"}` {
				t.Errorf("FetchRecipe() = %q", got)
			}
		})
	}
}

func TestStoreMissIsDistinguishable(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			// 未初始化的供應商與不存在的鍵都是同一種 miss
			if _, err := store.FetchSearch(ctx, "never-initialised", "x"); !errors.Is(err, common.ErrCacheMiss) {
				t.Errorf("uninitialised provider: expected ErrCacheMiss, got %v", err)
			}
			if err := store.Initialize(ctx, "yummly"); err != nil {
				t.Fatal(err)
			}
			if _, err := store.FetchRecipe(ctx, "yummly", "missing"); !errors.Is(err, common.ErrCacheMiss) {
				t.Errorf("missing key: expected ErrCacheMiss, got %v", err)
			}
		})
	}
}

func TestStoreNamespacesAreSeparate(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_ = store.StoreSearch(ctx, "a", "eggs", "from a")
			_ = store.StoreRecipe(ctx, "a", "eggs", "recipe from a")
			if _, err := store.FetchSearch(ctx, "b", "eggs"); !errors.Is(err, common.ErrCacheMiss) {
				t.Errorf("provider b should not see provider a's entry, got %v", err)
			}
			if got, _ := store.FetchSearch(ctx, "a", "eggs"); got != "from a" {
				t.Errorf("search and recipe kinds collided: %q", got)
			}
		})
	}
}

func TestStoreConcurrentInitializeAndWrites(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			errs := make(chan error, 40)
			for i := 0; i < 20; i++ {
				wg.Add(2)
				go func() {
					defer wg.Done()
					errs <- store.Initialize(ctx, "food2fork")
				}()
				go func(i int) {
					defer wg.Done()
					errs <- store.StoreRecipe(ctx, "food2fork", "same-id", fmt.Sprintf("writer-%d", i))
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				if err != nil {
					t.Errorf("concurrent operation failed: %v", err)
				}
			}
			if _, err := store.FetchRecipe(ctx, "food2fork", "same-id"); err != nil {
				t.Errorf("FetchRecipe() error = %v", err)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.StoreSearch(ctx, "spoonacular", "eggs", "cached"); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := NewSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	got, err := second.FetchSearch(ctx, "spoonacular", "eggs")
	if err != nil || got != "cached" {
		t.Errorf("FetchSearch() after reopen = %q, %v", got, err)
	}
}

func TestInstrumentedStats(t *testing.T) {
	ctx := context.Background()
	c := NewInstrumented(NewMemory(), "memory")
	defer c.Close()

	_, _ = c.FetchSearch(ctx, "p", "eggs")
	_ = c.StoreSearch(ctx, "p", "eggs", "v")
	_, _ = c.FetchSearch(ctx, "p", "eggs")

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Writes != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.HitRatio != 0.5 {
		t.Errorf("HitRatio = %v, want 0.5", s.HitRatio)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	c, err := New(config.CacheConfig{Backend: "sqlite", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()
	if _, ok := c.Backend().(*SQLite); !ok {
		t.Errorf("backend = %T, want *SQLite", c.Backend())
	}

	if _, err := New(config.CacheConfig{Backend: "leveldb"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestMemoryKeepsOneEntryPerKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 3; i++ {
		if err := m.StoreSearch(ctx, "yummly", "apples", fmt.Sprintf("v%d", i)); err != nil {
			t.Fatalf("StoreSearch() error = %v", err)
		}
	}
	if err := m.StoreRecipe(ctx, "yummly", "apples", "recipe"); err != nil {
		t.Fatalf("StoreRecipe() error = %v", err)
	}
	if got := m.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestBadgerFinalConflictIsNotAnError(t *testing.T) {
	if err := settleInsert(fmt.Errorf("txn: %w", badger.ErrConflict)); err != nil {
		t.Errorf("settleInsert(conflict) = %v, want nil", err)
	}
	if err := settleInsert(nil); err != nil {
		t.Errorf("settleInsert(nil) = %v", err)
	}
	if err := settleInsert(errors.New("disk full")); err == nil {
		t.Error("settleInsert(other) should return an error")
	}
}
