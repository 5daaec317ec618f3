package cache

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Fixture 預先準備的供應商原始回應，格式：
//
//	providers:
//	  spoonacular:
//	    searches:
//	      "apples,flour,sugar": '[{"id":47732, ...}]'
//	    recipes:
//	      "47732": '{"title": ...}'
type Fixture struct {
	Providers map[string]ProviderFixture `yaml:"providers"`
}

// ProviderFixture 單一供應商的搜尋與食譜回應
type ProviderFixture struct {
	Searches map[string]string `yaml:"searches"`
	Recipes  map[string]string `yaml:"recipes"`
}

// SeedResult 寫入統計
type SeedResult struct {
	Providers int
	Searches  int
	Recipes   int
}

// LoadFixture 解析 YAML 種子資料
func LoadFixture(r io.Reader) (*Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// Apply 寫入快取；既有條目不會被覆蓋
func (f *Fixture) Apply(ctx context.Context, store Store) (SeedResult, error) {
	var res SeedResult

	names := make([]string, 0, len(f.Providers))
	for name := range f.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pf := f.Providers[name]
		if err := store.Initialize(ctx, name); err != nil {
			return res, fmt.Errorf("initialize %s: %w", name, err)
		}
		res.Providers++

		for sig, body := range pf.Searches {
			if err := store.StoreSearch(ctx, name, sig, body); err != nil {
				return res, fmt.Errorf("seed %s search %q: %w", name, sig, err)
			}
			res.Searches++
		}
		for id, body := range pf.Recipes {
			if err := store.StoreRecipe(ctx, name, id, body); err != nil {
				return res, fmt.Errorf("seed %s recipe %q: %w", name, id, err)
			}
			res.Recipes++
		}
	}
	return res, nil
}
