package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-aggregator/internal/api"
	"recipe-aggregator/internal/core/aggregator"
	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/core/history"
	"recipe-aggregator/internal/core/provider/registry"
	"recipe-aggregator/internal/core/search"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(common.LoggerOptions{
		Level:   cfg.LogLevel,
		Dir:     cfg.LogDir,
		Service: cfg.App.Name,
		Console: true,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.String("spoonacular_key", config.MaskAPIKey(cfg.Providers.Spoonacular.APIKey)),
		zap.String("yummly_key", config.MaskAPIKey(cfg.Providers.Yummly.APIKey)),
		zap.String("food2fork_key", config.MaskAPIKey(cfg.Providers.Food2Fork.APIKey)),
	)

	store, err := cache.New(cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	defer store.Close()

	callers, err := registry.Build(context.Background(), cfg, store)
	if err != nil {
		common.LogFatal("Failed to initialize providers", zap.Error(err))
	}
	if len(callers) == 0 {
		common.LogWarn("沒有啟用任何供應商，搜尋將回傳空結果")
	}

	agg := aggregator.New(registry.Searchers(callers), aggregator.WithTimeout(cfg.Server.RequestTimeout))
	searchSvc, err := search.NewService(agg, cfg.Search)
	if err != nil {
		common.LogFatal("Failed to initialize search service", zap.Error(err))
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		Search:    searchSvc,
		History:   history.NewStore(cfg.History.Capacity, cfg.History.MaxClients),
		Cache:     store,
		Providers: agg.Providers(),
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Strings("providers", agg.Providers()),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
