package api

import (
	"time"

	"recipe-aggregator/internal/api/handlers/health"
	historyHandler "recipe-aggregator/internal/api/handlers/history"
	recipesHandler "recipe-aggregator/internal/api/handlers/recipes"
	"recipe-aggregator/internal/api/middleware"
	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/core/history"
	"recipe-aggregator/internal/core/search"
	"recipe-aggregator/internal/infrastructure/config"
	"recipe-aggregator/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Search    *search.Service
	History   *history.Store
	Cache     cache.Pinger
	Providers []string
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Strings("providers", deps.Providers),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		status, resp := common.ToErrorResponse(common.ErrNotFound, false)
		c.JSON(status, resp)
	})
	router.NoMethod(func(c *gin.Context) {
		status, resp := common.ToErrorResponse(common.ErrMethodNotAllowed, false)
		c.JSON(status, resp)
	})

	router.Use(middleware.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.ClientIDHeader},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 健康檢查路由
	healthH := health.NewHandler(cfg.App.Version, deps.Providers, deps.Cache)
	router.GET("/health", healthH.HealthCheck)
	router.GET("/ready", healthH.ReadinessCheck)
	router.GET("/live", healthH.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	api.Use(middleware.NewDeduplicator(cfg.DedupWindow).Middleware())
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	{
		recipesH := recipesHandler.NewHandler(deps.Search, cfg.App.Debug)
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/search", recipesH.HandleSearch)
			recipeGroup.POST("/sort", recipesH.HandleSort)
		}

		historyH := historyHandler.NewHandler(deps.History, cfg.App.Debug)
		historyGroup := api.Group("/history")
		{
			historyGroup.GET("", historyH.HandleList)
			historyGroup.POST("", historyH.HandleAdd)
			historyGroup.DELETE("/oldest", historyH.HandleRemoveOldest)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	return router
}
