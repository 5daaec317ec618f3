// Package registry 依設定組裝已啟用的供應商
package registry

import (
	"context"
	"fmt"

	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/core/provider"
	"recipe-aggregator/internal/core/provider/food2fork"
	"recipe-aggregator/internal/core/provider/spoonacular"
	"recipe-aggregator/internal/core/provider/yummly"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/infrastructure/httpclient"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
)

// Names 支援的供應商，順序即聚合結果的串接順序
var Names = []string{spoonacular.Name, yummly.Name, food2fork.Name}

// Adapter 依名稱建立轉接器
func Adapter(name string, cfg *config.Config) (provider.Adapter, error) {
	settings := provider.SettingsFrom(cfg.Search)
	switch name {
	case spoonacular.Name:
		return spoonacular.New(cfg.Providers.Spoonacular, settings), nil
	case yummly.Name:
		return yummly.New(cfg.Providers.Yummly, settings), nil
	case food2fork.Name:
		return food2fork.New(cfg.Providers.Food2Fork, settings), nil
	default:
		return nil, common.InvalidArgumentf("unknown provider %q", name)
	}
}

func providerConfig(name string, cfg *config.Config) config.ProviderConfig {
	switch name {
	case spoonacular.Name:
		return cfg.Providers.Spoonacular
	case yummly.Name:
		return cfg.Providers.Yummly
	default:
		return cfg.Providers.Food2Fork
	}
}

// Build 建立所有已啟用供應商的 Caller，並初始化其快取命名空間
func Build(ctx context.Context, cfg *config.Config, store cache.Store, opts ...provider.Option) ([]*provider.Caller, error) {
	callers := make([]*provider.Caller, 0, len(Names))
	for _, name := range Names {
		pc := providerConfig(name, cfg)
		if !pc.Enabled {
			common.LogInfo("供應商已停用", zap.String("provider", name))
			continue
		}

		adapter, err := Adapter(name, cfg)
		if err != nil {
			return nil, err
		}
		if err := store.Initialize(ctx, name); err != nil {
			return nil, fmt.Errorf("initialize cache for %s: %w", name, err)
		}

		client := httpclient.New(httpclient.OptionsFor(name, pc, cfg.Breaker))
		callerOpts := append([]provider.Option{provider.WithMaxConcurrentGets(cfg.Search.MaxConcurrentGets), provider.WithFetchTimeout(pc.Timeout)}, opts...)
		callers = append(callers, provider.NewCaller(adapter, store, client, callerOpts...))

		common.LogInfo("供應商已啟用",
			zap.String("provider", name),
			zap.Int("result_limit", pc.ResultLimit),
		)
	}
	return callers, nil
}

// Searchers 轉為聚合器使用的介面切片
func Searchers(callers []*provider.Caller) []provider.Searcher {
	out := make([]provider.Searcher, len(callers))
	for i, c := range callers {
		out[i] = c
	}
	return out
}
