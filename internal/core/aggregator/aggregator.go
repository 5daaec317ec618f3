// Package aggregator 同時查詢所有供應商並合併結果
package aggregator

import (
	"context"
	"sync"
	"time"

	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/infrastructure/metrics"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
)

// ProviderReport 單一供應商本次搜尋的結果摘要
type ProviderReport struct {
	Name     string        `json:"name"`
	Count    int           `json:"count"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
	Err      error         `json:"-"`
}

// Aggregator 並行呼叫所有供應商
type Aggregator struct {
	providers []provider.Searcher
	timeout   time.Duration
}

// Option 設定 Aggregator
type Option func(*Aggregator)

// WithTimeout 單次聚合搜尋的逾時；呼叫端 context 已有期限時不套用
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) { a.timeout = d }
}

// New 建立 Aggregator，結果依註冊順序串接
func New(providers []provider.Searcher, opts ...Option) *Aggregator {
	a := &Aggregator{providers: providers}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers 已註冊的供應商名稱
func (a *Aggregator) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

// SearchAll 所有供應商都完成後回傳合併結果；失敗的供應商不貢獻任何食譜
func (a *Aggregator) SearchAll(ctx context.Context, opts provider.SearchOptions) []recipe.Recipe {
	recipes, _ := a.SearchAllWithReport(ctx, opts)
	return recipes
}

// SearchAllWithReport 同 SearchAll，另外回傳每個供應商的結果摘要
func (a *Aggregator) SearchAllWithReport(ctx context.Context, opts provider.SearchOptions) ([]recipe.Recipe, []ProviderReport) {
	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	results := make([][]recipe.Recipe, len(a.providers))
	reports := make([]ProviderReport, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(index int, current provider.Searcher) {
			defer wg.Done()

			start := time.Now()
			items, err := current.Search(runCtx, opts)
			report := ProviderReport{
				Name:     current.Name(),
				Count:    len(items),
				Duration: time.Since(start),
				Err:      err,
			}
			if err != nil {
				report.Count = 0
				report.Error = err.Error()
				metrics.RecordProviderFailure(current.Name(), "search")
				common.LogWarn("供應商搜尋失敗",
					zap.String("provider", current.Name()),
					zap.String("ingredients", opts.Ingredients),
					zap.Duration("耗時", report.Duration),
					zap.Error(err),
				)
			} else {
				results[index] = items
			}
			reports[index] = report
		}(i, p)
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]recipe.Recipe, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}

	common.LogInfo("聚合搜尋完成",
		zap.String("ingredients", opts.Ingredients),
		zap.Int("providers", len(a.providers)),
		zap.Int("recipes", len(merged)),
	)
	return merged, reports
}
