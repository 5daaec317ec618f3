package recipes

import (
	"net/http"

	"recipe-aggregator/internal/api/handlers"
	"recipe-aggregator/internal/core/recipe"
	"recipe-aggregator/internal/core/search"

	"github.com/gin-gonic/gin"
)

// Handler 食譜搜尋與排序
type Handler struct {
	svc   *search.Service
	debug bool
}

// NewHandler 創建處理器
func NewHandler(svc *search.Service, debug bool) *Handler {
	return &Handler{svc: svc, debug: debug}
}

// SortRequest 重新排序請求
type SortRequest struct {
	Recipes       []recipe.Recipe `json:"recipes"`
	Ingredients   string          `json:"ingredients"`
	SortCriterion string          `json:"sortCriterion" binding:"required"`
	SortDirection string          `json:"sortDirection" binding:"required"`
}

// HandleSearch POST /api/v1/recipes/search
func (h *Handler) HandleSearch(c *gin.Context) {
	var req search.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, err, h.debug)
		return
	}

	result, err := h.svc.Search(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	if result.Recipes == nil {
		result.Recipes = []recipe.Recipe{}
	}

	c.JSON(http.StatusOK, result)
}

// HandleSort POST /api/v1/recipes/sort
func (h *Handler) HandleSort(c *gin.Context) {
	var req SortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBindError(c, err, h.debug)
		return
	}

	sorted, err := h.svc.Resort(req.Recipes, req.Ingredients, req.SortCriterion, req.SortDirection)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": sorted})
}
