package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置，載入後不再修改
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Providers   ProvidersConfig `mapstructure:"providers"`
	Search      SearchConfig    `mapstructure:"search"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Breaker     BreakerConfig   `mapstructure:"breaker"`
	History     HistoryConfig   `mapstructure:"history"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level" validate:"oneof=debug info warn error fatal"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name" validate:"required"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gt=0"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
}

// ProvidersConfig 各食譜供應商設定
type ProvidersConfig struct {
	Spoonacular ProviderConfig `mapstructure:"spoonacular"`
	Yummly      ProviderConfig `mapstructure:"yummly"`
	Food2Fork   ProviderConfig `mapstructure:"food2fork"`
}

// ProviderConfig 單一供應商設定
type ProviderConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string        `mapstructure:"api_key"`
	AppID             string        `mapstructure:"app_id"`
	ResultLimit       int           `mapstructure:"result_limit" validate:"min=1"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
}

// SearchConfig 相關度與併發設定
type SearchConfig struct {
	MinimumUnfiltered  int    `mapstructure:"minimum_unfiltered" validate:"gte=0"`
	RelevanceThreshold int    `mapstructure:"relevance_threshold" validate:"gte=0"`
	MaxConcurrentGets  int    `mapstructure:"max_concurrent_gets" validate:"min=1"`
	MaxIngredients     int    `mapstructure:"max_ingredients" validate:"min=1"`
	DefaultCriterion   string `mapstructure:"default_criterion"`
	DefaultDirection   string `mapstructure:"default_direction"`
}

// CacheConfig 回應快取設定
type CacheConfig struct {
	Backend       string `mapstructure:"backend" validate:"omitempty,oneof=memory sqlite badger redis"`
	Dir           string `mapstructure:"dir"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// BreakerConfig 供應商斷路器設定
type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures" validate:"min=1"`
}

// HistoryConfig 最近瀏覽食譜設定
type HistoryConfig struct {
	Capacity   int `mapstructure:"capacity" validate:"min=1"`
	MaxClients int `mapstructure:"max_clients" validate:"min=1"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定（.env、環境變數、預設值）
func LoadConfig() (*Config, error) {
	// .env 不存在時直接使用環境變數
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.LogLevel = strings.ToLower(config.LogLevel)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定沒有 APP_ 前綴的常用環境變數
func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("providers.spoonacular.api_key", "SPOONACULAR_API_KEY")
	v.BindEnv("providers.spoonacular.enabled", "SPOONACULAR_ENABLED")
	v.BindEnv("providers.yummly.app_id", "YUMMLY_APP_ID")
	v.BindEnv("providers.yummly.api_key", "YUMMLY_API_KEY")
	v.BindEnv("providers.yummly.enabled", "YUMMLY_ENABLED")
	v.BindEnv("providers.food2fork.api_key", "FOOD2FORK_API_KEY")
	v.BindEnv("providers.food2fork.enabled", "FOOD2FORK_ENABLED")
	v.BindEnv("cache.backend", "CACHE_BACKEND")
	v.BindEnv("cache.dir", "CACHE_DIR")
	v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	v.BindEnv("dedup_window", "DEDUP_WINDOW")
	v.BindEnv("log_level", "LOG_LEVEL")
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-aggregator")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 供應商設定
	v.SetDefault("providers.spoonacular.enabled", true)
	v.SetDefault("providers.spoonacular.base_url", "https://spoonacular-recipe-food-nutrition-v1.p.mashape.com")
	v.SetDefault("providers.spoonacular.result_limit", 10)
	v.SetDefault("providers.spoonacular.timeout", "15s")
	v.SetDefault("providers.spoonacular.requests_per_second", 5)
	v.SetDefault("providers.spoonacular.burst", 5)

	v.SetDefault("providers.yummly.enabled", true)
	v.SetDefault("providers.yummly.base_url", "https://api.yummly.com/v1")
	v.SetDefault("providers.yummly.result_limit", 10)
	v.SetDefault("providers.yummly.timeout", "15s")
	v.SetDefault("providers.yummly.requests_per_second", 5)
	v.SetDefault("providers.yummly.burst", 5)

	v.SetDefault("providers.food2fork.enabled", true)
	v.SetDefault("providers.food2fork.base_url", "http://food2fork.com/api")
	v.SetDefault("providers.food2fork.result_limit", 10)
	v.SetDefault("providers.food2fork.timeout", "15s")
	v.SetDefault("providers.food2fork.requests_per_second", 2)
	v.SetDefault("providers.food2fork.burst", 2)

	// 相關度設定
	v.SetDefault("search.minimum_unfiltered", 5)
	v.SetDefault("search.relevance_threshold", 3)
	v.SetDefault("search.max_concurrent_gets", 4)
	v.SetDefault("search.max_ingredients", 20)
	v.SetDefault("search.default_criterion", "RELEVANCE")
	v.SetDefault("search.default_direction", "DESCENDING")

	// 快取設定
	v.SetDefault("cache.backend", "sqlite")
	v.SetDefault("cache.dir", "data/cache")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.key_prefix", "recipe:cache")

	// 斷路器設定
	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", "60s")
	v.SetDefault("breaker.timeout", "30s")
	v.SetDefault("breaker.consecutive_failures", 5)

	// 最近瀏覽
	v.SetDefault("history.capacity", 10)
	v.SetDefault("history.max_clients", 10000)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s failed on %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return err
	}

	providers := map[string]ProviderConfig{
		"spoonacular": config.Providers.Spoonacular,
		"yummly":      config.Providers.Yummly,
		"food2fork":   config.Providers.Food2Fork,
	}
	for name, p := range providers {
		if p.Enabled && p.BaseURL == "" {
			return fmt.Errorf("provider %s is enabled but has no base_url", name)
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 {
			return fmt.Errorf("invalid rate limit requests")
		}
		if config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit window")
		}
	}

	if config.Cache.Backend == "redis" && config.Cache.RedisAddr == "" {
		return fmt.Errorf("redis cache requires cache.redis_addr")
	}

	return nil
}
