package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisOptions Redis 快取設定
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis 以 SETNX 實作 insert-if-absent，不設定過期時間
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis 建立 Redis 快取並測試連線
func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "recipe:cache"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client, prefix: opts.KeyPrefix}, nil
}

func (r *Redis) key(provider, kind, key string) string {
	return fmt.Sprintf("%s:%s:%s:%s", r.prefix, kind, provider, key)
}

// Initialize Redis 不需要 schema
func (r *Redis) Initialize(ctx context.Context, provider string) error {
	return nil
}

func (r *Redis) FetchSearch(ctx context.Context, provider, signature string) (string, error) {
	return r.fetch(ctx, provider, KindSearch, signature)
}

func (r *Redis) FetchRecipe(ctx context.Context, provider, recipeID string) (string, error) {
	return r.fetch(ctx, provider, KindRecipe, recipeID)
}

func (r *Redis) StoreSearch(ctx context.Context, provider, signature, response string) error {
	return r.insert(ctx, provider, KindSearch, signature, response)
}

func (r *Redis) StoreRecipe(ctx context.Context, provider, recipeID, response string) error {
	return r.insert(ctx, provider, KindRecipe, recipeID, response)
}

func (r *Redis) fetch(ctx context.Context, provider, kind, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(provider, kind, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", miss(provider, kind, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cache: %w", err)
	}
	return value, nil
}

func (r *Redis) insert(ctx context.Context, provider, kind, key, value string) error {
	if err := r.client.SetNX(ctx, r.key(provider, kind, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
