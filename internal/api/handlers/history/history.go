package history

import (
	"net/http"

	"recipe-aggregator/internal/api/handlers"
	"recipe-aggregator/internal/api/middleware"
	"recipe-aggregator/internal/core/history"
	"recipe-aggregator/internal/core/recipe"

	"github.com/gin-gonic/gin"
)

// Handler 最近瀏覽的食譜
type Handler struct {
	store *history.Store
	debug bool
}

func NewHandler(store *history.Store, debug bool) *Handler {
	return &Handler{store: store, debug: debug}
}

// HandleList GET /api/v1/history
func (h *Handler) HandleList(c *gin.Context) {
	items, err := h.store.List(c.GetHeader(middleware.ClientIDHeader))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": items})
}

// HandleAdd POST /api/v1/history
func (h *Handler) HandleAdd(c *gin.Context) {
	var r recipe.Recipe
	if err := c.ShouldBindJSON(&r); err != nil {
		handlers.RespondBindError(c, err, h.debug)
		return
	}

	items, err := h.store.Add(c.GetHeader(middleware.ClientIDHeader), r)
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": items})
}

// HandleRemoveOldest DELETE /api/v1/history/oldest
func (h *Handler) HandleRemoveOldest(c *gin.Context) {
	r, err := h.store.RemoveOldest(c.GetHeader(middleware.ClientIDHeader))
	if err != nil {
		handlers.RespondError(c, err, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": r})
}
