package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"recipe-aggregator/internal/core/cache"
	"recipe-aggregator/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Providers []string               `json:"providers"`
	Cache     *cache.Stats           `json:"cache,omitempty"`
	Runtime   map[string]interface{} `json:"runtime"`
}

// StatsSource 提供快取統計
type StatsSource interface {
	Stats() cache.Stats
}

// Handler 健康檢查處理器
type Handler struct {
	version   string
	providers []string
	cache     cache.Pinger
	stats     StatsSource
}

// NewHandler cache 可為 nil；有實作 StatsSource 時會回報統計
func NewHandler(version string, providers []string, c cache.Pinger) *Handler {
	h := &Handler{version: version, providers: providers, cache: c}
	if s, ok := c.(StatsSource); ok {
		h.stats = s
	}
	return h
}

// HealthCheck 回報版本、供應商、快取統計與執行期資訊
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Providers: h.providers,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.stats != nil {
		stats := h.stats.Stats()
		response.Cache = &stats
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 快取後端可連線才算就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			common.LogWarn("快取無法連線", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"cache":  err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
