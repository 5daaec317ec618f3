package provider_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/provider/spoonacular"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/infrastructure/httpclient"
	"recipe-aggregator/internal/pkg/common"
)

const (
	signature    = "apples,flour,sugar"
	seededSearch = `[
		{"id":47732,"title":"Apple Tart","usedIngredientCount":3,"missedIngredientCount":0},
		{"id":47891,"title":"Apple Crumble","usedIngredientCount":3,"missedIngredientCount":1},
		{"id":47950,"title":"Cinnamon Apple Cake","usedIngredientCount":2,"missedIngredientCount":2}
	]`
)

var seededIDs = []string{"47732", "47891", "47950"}

func seededRecipe(id string) string {
	return fmt.Sprintf(`{
		"title":"Recipe %s",
		"extendedIngredients":[
			{"name":"apples","amount":2,"unit":""},
			{"name":"flour","amount":1.5,"unit":"cups"},
			{"name":"sugar","amount":0.5,"unit":"cup"}
		],
		"instructions":"Mix and bake.",
		"image":"https://img.example/%s.jpg",
		"sourceUrl":"https://src.example/%s",
		"servings":4,
		"readyInMinutes":45
	}`, id, id, id)
}

// fakeFetcher 依 URL 回傳固定回應並記錄呼叫次數
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]*httpclient.Response
	calls     []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]*httpclient.Response)}
}

func (f *fakeFetcher) set(url string, status int, body string) {
	f.responses[url] = &httpclient.Response{StatusCode: status, Body: []byte(body)}
}

func (f *fakeFetcher) Get(_ context.Context, url string, _ map[string]string) (*httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return resp, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newAdapter() *spoonacular.Adapter {
	return spoonacular.New(config.ProviderConfig{BaseURL: "https://spoon.example", APIKey: "k"}, provider.DefaultSettings())
}

func seed(t *testing.T, store cache.Store, ids ...string) {
	t.Helper()
	ctx := context.Background()
	if err := store.StoreSearch(ctx, spoonacular.Name, signature, seededSearch); err != nil {
		t.Fatalf("seed search: %v", err)
	}
	for _, id := range ids {
		if err := store.StoreRecipe(ctx, spoonacular.Name, id, seededRecipe(id)); err != nil {
			t.Fatalf("seed recipe %s: %v", id, err)
		}
	}
}

func TestSearchFromSeededCacheMakesNoLiveCalls(t *testing.T) {
	store := cache.NewMemory()
	seed(t, store, seededIDs...)
	fetcher := newFakeFetcher()

	c := provider.NewCaller(newAdapter(), store, fetcher)
	recipes, err := c.Search(context.Background(), provider.SearchOptions{Ingredients: signature})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if n := fetcher.callCount(); n != 0 {
		t.Errorf("live calls = %d, want 0", n)
	}
	if len(recipes) != len(seededIDs) {
		t.Fatalf("got %d recipes, want %d", len(recipes), len(seededIDs))
	}
	for i, id := range seededIDs {
		if want := "recipe " + id; recipes[i].Name() != want {
			t.Errorf("recipes[%d] = %q, want %q", i, recipes[i].Name(), want)
		}
	}
}

func TestSearchSkipsFailedGets(t *testing.T) {
	store := cache.NewMemory()
	seed(t, store, "47732", "47950")
	fetcher := newFakeFetcher()
	adapter := newAdapter()
	fetcher.set(adapter.BuildGetRequest("47891").URL, http.StatusInternalServerError, "")

	c := provider.NewCaller(adapter, store, fetcher)
	recipes, err := c.Search(context.Background(), provider.SearchOptions{Ingredients: signature})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("got %d recipes, want 2", len(recipes))
	}
	if recipes[0].Name() != "recipe 47732" || recipes[1].Name() != "recipe 47950" {
		t.Errorf("unexpected order: %q, %q", recipes[0].Name(), recipes[1].Name())
	}
	if _, err := store.FetchRecipe(context.Background(), spoonacular.Name, "47891"); !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("failed response should not be cached, err = %v", err)
	}
}

func TestSearchLiveFetchPopulatesCache(t *testing.T) {
	store := cache.NewMemory()
	fetcher := newFakeFetcher()
	adapter := newAdapter()
	opts := provider.SearchOptions{Ingredients: signature}

	fetcher.set(adapter.BuildSearchRequest(opts).URL, http.StatusOK, seededSearch)
	for _, id := range seededIDs {
		fetcher.set(adapter.BuildGetRequest(id).URL, http.StatusOK, seededRecipe(id))
	}

	c := provider.NewCaller(adapter, store, fetcher)
	recipes, err := c.Search(context.Background(), opts)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recipes) != 3 {
		t.Fatalf("got %d recipes, want 3", len(recipes))
	}
	if n := fetcher.callCount(); n != 4 {
		t.Errorf("live calls = %d, want 4", n)
	}

	if got, err := store.FetchSearch(context.Background(), spoonacular.Name, signature); err != nil || got != seededSearch {
		t.Errorf("search not cached: %v", err)
	}

	// 第二次搜尋完全命中快取
	if _, err := c.Search(context.Background(), opts); err != nil {
		t.Fatalf("second Search: %v", err)
	}
	if n := fetcher.callCount(); n != 4 {
		t.Errorf("live calls after cached search = %d, want 4", n)
	}
}

func TestSearchNon2xxIsProviderUnavailableAndNotCached(t *testing.T) {
	store := cache.NewMemory()
	fetcher := newFakeFetcher()
	adapter := newAdapter()
	opts := provider.SearchOptions{Ingredients: signature}
	fetcher.set(adapter.BuildSearchRequest(opts).URL, http.StatusServiceUnavailable, `{"message":"down"}`)

	c := provider.NewCaller(adapter, store, fetcher)
	_, err := c.Search(context.Background(), opts)
	if !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	if _, err := store.FetchSearch(context.Background(), spoonacular.Name, signature); !errors.Is(err, common.ErrCacheMiss) {
		t.Errorf("error response cached: %v", err)
	}
}

func TestSearchTransportErrorIsProviderUnavailable(t *testing.T) {
	c := provider.NewCaller(newAdapter(), cache.NewMemory(), newFakeFetcher())
	_, err := c.Search(context.Background(), provider.SearchOptions{Ingredients: signature})
	if !errors.Is(err, common.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestSearchCorruptCacheFallsThroughToLive(t *testing.T) {
	store := cache.NewMemory()
	if err := store.StoreSearch(context.Background(), spoonacular.Name, signature, "not json"); err != nil {
		t.Fatal(err)
	}
	fetcher := newFakeFetcher()
	adapter := newAdapter()
	opts := provider.SearchOptions{Ingredients: signature}
	fetcher.set(adapter.BuildSearchRequest(opts).URL, http.StatusOK, seededSearch)
	for _, id := range seededIDs {
		fetcher.set(adapter.BuildGetRequest(id).URL, http.StatusOK, seededRecipe(id))
	}

	var mu sync.Mutex
	var reported []string
	c := provider.NewCaller(adapter, store, fetcher, provider.WithErrorReporter(func(p, op string, err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, op)
	}))

	recipes, err := c.Search(context.Background(), opts)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recipes) != 3 {
		t.Errorf("got %d recipes, want 3", len(recipes))
	}
	if len(reported) == 0 || reported[0] != "parse_cached_search" {
		t.Errorf("reported = %v", reported)
	}
}

// failingStore 寫入一律失敗
type failingStore struct {
	cache.Store
}

func (failingStore) StoreSearch(context.Context, string, string, string) error {
	return errors.New("disk full")
}

func (failingStore) StoreRecipe(context.Context, string, string, string) error {
	return errors.New("disk full")
}

func TestCacheWriteErrorsDoNotFailSearch(t *testing.T) {
	fetcher := newFakeFetcher()
	adapter := newAdapter()
	opts := provider.SearchOptions{Ingredients: signature}
	fetcher.set(adapter.BuildSearchRequest(opts).URL, http.StatusOK, seededSearch)
	for _, id := range seededIDs {
		fetcher.set(adapter.BuildGetRequest(id).URL, http.StatusOK, seededRecipe(id))
	}

	var mu sync.Mutex
	writes := 0
	c := provider.NewCaller(adapter, failingStore{cache.NewMemory()}, fetcher,
		provider.WithMaxConcurrentGets(1),
		provider.WithErrorReporter(func(p, op string, err error) {
			mu.Lock()
			defer mu.Unlock()
			writes++
		}),
	)

	recipes, err := c.Search(context.Background(), opts)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recipes) != 3 {
		t.Errorf("got %d recipes, want 3", len(recipes))
	}
	if writes != 4 {
		t.Errorf("reported write errors = %d, want 4", writes)
	}
}

func TestSearchRejectsEmptySignature(t *testing.T) {
	c := provider.NewCaller(newAdapter(), cache.NewMemory(), newFakeFetcher())
	if _, err := c.Search(context.Background(), provider.SearchOptions{}); !errors.Is(err, common.ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestGetIsCacheFirst(t *testing.T) {
	store := cache.NewMemory()
	fetcher := newFakeFetcher()
	adapter := newAdapter()
	fetcher.set(adapter.BuildGetRequest("47732").URL, http.StatusOK, seededRecipe("47732"))

	c := provider.NewCaller(adapter, store, fetcher)
	for i := 0; i < 3; i++ {
		r, err := c.Get(context.Background(), "47732")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if r.Servings() != 4 || r.TimeToMakeSeconds() != 2700 {
			t.Errorf("servings=%d time=%d", r.Servings(), r.TimeToMakeSeconds())
		}
	}
	if n := fetcher.callCount(); n != 1 {
		t.Errorf("live calls = %d, want 1", n)
	}
}

// gatedFetcher 在 release 關閉前阻塞，之後若請求 context 已取消則回傳錯誤
type gatedFetcher struct {
	body    string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedFetcher) Get(ctx context.Context, _ string, _ map[string]string) (*httpclient.Response, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte(g.body)}, nil
}

func TestGetSharedFetchSurvivesFirstCallerCancel(t *testing.T) {
	fetcher := &gatedFetcher{
		body:    seededRecipe("47732"),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	store := cache.NewMemory()
	c := provider.NewCaller(newAdapter(), store, fetcher)

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx1, "47732")
		first <- err
	}()
	<-fetcher.started

	type result struct {
		servings int
		err      error
	}
	second := make(chan result, 1)
	go func() {
		r, err := c.Get(context.Background(), "47732")
		second <- result{r.Servings(), err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel1()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller err = %v, want context.Canceled", err)
	}

	close(fetcher.release)
	res := <-second
	if res.err != nil {
		t.Fatalf("second caller err = %v", res.err)
	}
	if res.servings != 4 {
		t.Errorf("servings = %d", res.servings)
	}
	if _, err := store.FetchRecipe(context.Background(), spoonacular.Name, "47732"); err != nil {
		t.Errorf("recipe not cached: %v", err)
	}
}
