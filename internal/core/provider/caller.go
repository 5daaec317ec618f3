package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/metrics"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxConcurrentGets = 4
	defaultFetchTimeout      = 30 * time.Second
)

// ErrorReporter 接收不影響流程的錯誤（快取寫入失敗、快取內容損壞等）
type ErrorReporter func(provider, op string, err error)

// LogErrorReporter 預設回報方式：警告日誌加指標
func LogErrorReporter(provider, op string, err error) {
	common.LogWarn("供應商背景錯誤",
		zap.String("provider", provider),
		zap.String("op", op),
		zap.Error(err),
	)
	metrics.RecordProviderFailure(provider, op)
}

// Caller 以快取優先的方式執行單一供應商的搜尋與取得，
// 嵌入 Adapter 以提供完整能力集合
type Caller struct {
	Adapter

	cache         cache.Store
	fetcher       Fetcher
	maxConcurrent int64
	fetchTimeout  time.Duration
	report        ErrorReporter
	inflight      singleflight.Group
}

// Option 設定 Caller
type Option func(*Caller)

// WithErrorReporter 替換錯誤回報
func WithErrorReporter(r ErrorReporter) Option {
	return func(c *Caller) {
		if r != nil {
			c.report = r
		}
	}
}

// WithMaxConcurrentGets 限制同時進行的食譜取得數
func WithMaxConcurrentGets(n int) Option {
	return func(c *Caller) {
		if n > 0 {
			c.maxConcurrent = int64(n)
		}
	}
}

// WithFetchTimeout 合併後的食譜即時請求上限，與任何單一呼叫者的 context 無關
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Caller) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// NewCaller 建立 Caller
func NewCaller(a Adapter, store cache.Store, fetcher Fetcher, opts ...Option) *Caller {
	c := &Caller{
		Adapter:       a,
		cache:         store,
		fetcher:       fetcher,
		maxConcurrent: defaultMaxConcurrentGets,
		fetchTimeout:  defaultFetchTimeout,
		report:        LogErrorReporter,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search 依食材簽名搜尋：快取命中則使用快取，否則即時請求並寫入快取，
// 接著並行取得每個候選食譜。個別取得失敗會被略過。
func (c *Caller) Search(ctx context.Context, opts SearchOptions) ([]recipe.Recipe, error) {
	if opts.Ingredients == "" {
		return nil, common.InvalidArgumentf("%s: empty ingredient signature", c.Name())
	}

	ids, err := c.candidateIDs(ctx, opts)
	if err != nil {
		return nil, err
	}

	recipes := c.resolve(ctx, ids)
	if f, ok := c.Adapter.(RecipeFilter); ok {
		recipes = f.FilterRecipes(recipes, opts)
	}

	metrics.ProviderRecipes.WithLabelValues(c.Name()).Observe(float64(len(recipes)))
	return recipes, nil
}

func (c *Caller) candidateIDs(ctx context.Context, opts SearchOptions) ([]string, error) {
	name := c.Name()

	raw, err := c.cache.FetchSearch(ctx, name, opts.Ingredients)
	switch {
	case err == nil:
		ids, perr := c.ExtractCandidateIDs(raw, opts)
		if perr == nil {
			return ids, nil
		}
		// 快取內容損壞，改走即時請求
		c.report(name, "parse_cached_search", perr)
	case !errors.Is(err, common.ErrCacheMiss):
		c.report(name, "read_cached_search", err)
	}

	body, err := c.fetch(ctx, c.BuildSearchRequest(opts))
	if err != nil {
		return nil, err
	}

	ids, err := c.ExtractCandidateIDs(body, opts)
	if err != nil {
		metrics.RecordProviderFailure(name, "parse")
		return nil, fmt.Errorf("%w: %s: malformed search response: %w", common.ErrProviderUnavailable, name, err)
	}

	if err := c.cache.StoreSearch(ctx, name, opts.Ingredients, body); err != nil {
		c.report(name, "store_search", err)
	}
	return ids, nil
}

// Get 依食譜 ID 取得食譜，快取優先；同一 ID 的並行即時請求會合併
func (c *Caller) Get(ctx context.Context, recipeID string) (recipe.Recipe, error) {
	name := c.Name()

	raw, err := c.cache.FetchRecipe(ctx, name, recipeID)
	switch {
	case err == nil:
		r, perr := c.ParseRecipe(raw)
		if perr == nil {
			return r, nil
		}
		c.report(name, "parse_cached_recipe", perr)
	case !errors.Is(err, common.ErrCacheMiss):
		c.report(name, "read_cached_recipe", err)
	}

	// 共用的請求不隨第一個呼叫者取消；各呼叫者只等待自己的 ctx
	ch := c.inflight.DoChan(recipeID, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		body, err := c.fetch(fctx, c.BuildGetRequest(recipeID))
		if err != nil {
			return nil, err
		}
		r, err := c.ParseRecipe(body)
		if err != nil {
			metrics.RecordProviderFailure(name, "parse")
			return nil, fmt.Errorf("%s: parse recipe %s: %w", name, recipeID, err)
		}
		if err := c.cache.StoreRecipe(fctx, name, recipeID, body); err != nil {
			c.report(name, "store_recipe", err)
		}
		return r, nil
	})

	select {
	case <-ctx.Done():
		return recipe.Recipe{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return recipe.Recipe{}, res.Err
		}
		return res.Val.(recipe.Recipe), nil
	}
}

// resolve 並行取得所有候選食譜，結果維持 ID 順序
func (c *Caller) resolve(ctx context.Context, ids []string) []recipe.Recipe {
	results := make([]*recipe.Recipe, len(ids))
	sem := semaphore.NewWeighted(c.maxConcurrent)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			r, err := c.Get(ctx, id)
			if err != nil {
				common.LogWarn("取得食譜失敗",
					zap.String("provider", c.Name()),
					zap.String("recipe_id", id),
					zap.Error(err),
				)
				return
			}
			results[i] = &r
		}(i, id)
	}
	wg.Wait()

	out := make([]recipe.Recipe, 0, len(ids))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (c *Caller) fetch(ctx context.Context, req Request) (string, error) {
	name := c.Name()
	start := time.Now()

	resp, err := c.fetcher.Get(ctx, req.URL, req.Headers)
	if err != nil {
		common.LogProviderCall(name, req.URL, 0, time.Since(start), err)
		metrics.RecordProviderFailure(name, "transport")
		return "", fmt.Errorf("%w: %s: %w", common.ErrProviderUnavailable, name, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := fmt.Errorf("%w: %s returned status %d", common.ErrProviderUnavailable, name, resp.StatusCode)
		common.LogProviderCall(name, req.URL, resp.StatusCode, time.Since(start), err)
		metrics.RecordProviderFailure(name, "status")
		return "", err
	}

	common.LogProviderCall(name, req.URL, resp.StatusCode, time.Since(start), nil)
	return string(resp.Body), nil
}
