package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toolroom/internal/devserver/store"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

type ToolHandler struct {
	store store.Store
}

func NewToolHandler(st store.Store) *ToolHandler {
	return &ToolHandler{store: st}
}

func (h *ToolHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/operator/tools", h.GetTools)
}

// GetTools lists the inventory. Operators only see tools they can request.
func (h *ToolHandler) GetTools(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	tools, err := h.store.ListTools(c.Request.Context(), rec.Role == roles.Operator)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tools)
}
