package aggregator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/pkg/common"
)

type stubProvider struct {
	name    string
	recipes []string
	err     error
	delay   time.Duration
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Search(ctx context.Context, _ provider.SearchOptions) ([]recipe.Recipe, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]recipe.Recipe, 0, len(s.recipes))
	for _, n := range s.recipes {
		ing, err := recipe.NewIngredient("apples", 1, "")
		if err != nil {
			return nil, err
		}
		r, err := recipe.New(recipe.Params{Name: n, Ingredients: []recipe.Ingredient{ing}, ImageURL: "i", SourceURL: "s"})
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func names(recipes []recipe.Recipe) []string {
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Name()
	}
	return out
}

func TestSearchAllConcatenatesInRegistrationOrder(t *testing.T) {
	a := New([]provider.Searcher{
		stubProvider{name: "slow", recipes: []string{"a", "b"}, delay: 20 * time.Millisecond},
		stubProvider{name: "fast", recipes: []string{"a", "c"}},
	})

	got := names(a.SearchAll(context.Background(), provider.SearchOptions{Ingredients: "apples"}))
	// 跨供應商不去重
	if !reflect.DeepEqual(got, []string{"a", "b", "a", "c"}) {
		t.Errorf("SearchAll = %v", got)
	}
}

func TestSearchAllToleratesProviderFailure(t *testing.T) {
	down := fmt.Errorf("%w: boom", common.ErrProviderUnavailable)
	a := New([]provider.Searcher{
		stubProvider{name: "ok", recipes: []string{"a"}},
		stubProvider{name: "down", err: down},
		stubProvider{name: "ok2", recipes: []string{"b"}},
	})

	recipes, reports := a.SearchAllWithReport(context.Background(), provider.SearchOptions{Ingredients: "apples"})
	if got := names(recipes); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("recipes = %v", got)
	}
	if len(reports) != 3 {
		t.Fatalf("reports = %d", len(reports))
	}
	if reports[1].Name != "down" || !errors.Is(reports[1].Err, common.ErrProviderUnavailable) || reports[1].Count != 0 {
		t.Errorf("report = %+v", reports[1])
	}
	if reports[0].Count != 1 || reports[0].Error != "" {
		t.Errorf("report = %+v", reports[0])
	}
}

func TestSearchAllAllFailedIsEmpty(t *testing.T) {
	a := New([]provider.Searcher{
		stubProvider{name: "x", err: errors.New("down")},
		stubProvider{name: "y", err: errors.New("down")},
	})
	if got := a.SearchAll(context.Background(), provider.SearchOptions{Ingredients: "apples"}); len(got) != 0 {
		t.Errorf("got %d recipes, want 0", len(got))
	}
}

func TestSearchAllTimeout(t *testing.T) {
	a := New([]provider.Searcher{
		stubProvider{name: "hang", recipes: []string{"a"}, delay: time.Minute},
		stubProvider{name: "ok", recipes: []string{"b"}},
	}, WithTimeout(30*time.Millisecond))

	recipes, reports := a.SearchAllWithReport(context.Background(), provider.SearchOptions{Ingredients: "apples"})
	if got := names(recipes); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("recipes = %v", got)
	}
	if !errors.Is(reports[0].Err, context.DeadlineExceeded) {
		t.Errorf("hang err = %v", reports[0].Err)
	}
}

func TestProviders(t *testing.T) {
	a := New([]provider.Searcher{stubProvider{name: "x"}, stubProvider{name: "y"}})
	if got := a.Providers(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Providers() = %v", got)
	}
}
