package cache

import (
	"context"
	"fmt"
	"strings"

	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
)

// 回應種類
const (
	KindSearch = "search"
	KindRecipe = "recipe"
)

// Store 供應商原始回應的永久快取，鍵為 (provider, signature)。
// 寫入為 insert-if-absent，不會覆蓋既有值；查無資料回傳 common.ErrCacheMiss。
type Store interface {
	Initialize(ctx context.Context, provider string) error
	FetchSearch(ctx context.Context, provider, signature string) (string, error)
	FetchRecipe(ctx context.Context, provider, recipeID string) (string, error)
	StoreSearch(ctx context.Context, provider, signature, response string) error
	StoreRecipe(ctx context.Context, provider, recipeID, response string) error
	Close() error
}

// Pinger 可檢查後端連線的快取
type Pinger interface {
	Ping(ctx context.Context) error
}

// New 依設定建立快取後端，並包上統計與指標
func New(cfg config.CacheConfig) (*Instrumented, error) {
	var (
		backend Store
		err     error
	)

	switch strings.ToLower(cfg.Backend) {
	case "", "memory":
		backend = NewMemory()
	case "sqlite":
		backend, err = NewSQLite(cfg.Dir)
	case "badger":
		backend, err = NewBadger(cfg.Dir)
	case "redis":
		backend, err = NewRedis(RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache: %w", cfg.Backend, err)
	}

	common.LogInfo("快取已初始化",
		zap.String("backend", cfg.Backend),
		zap.String("dir", cfg.Dir),
	)
	return NewInstrumented(backend, cfg.Backend), nil
}

func miss(provider, kind, key string) error {
	return fmt.Errorf("%w: %s %s %q", common.ErrCacheMiss, provider, kind, key)
}
