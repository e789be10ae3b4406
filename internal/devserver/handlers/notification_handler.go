package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"toolroom/internal/devserver/store"
	"toolroom/pkg/security"
)

type NotificationHandler struct {
	store store.Store
}

func NewNotificationHandler(st store.Store) *NotificationHandler {
	return &NotificationHandler{store: st}
}

func (h *NotificationHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/notifications", h.GetNotifications)
}

func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	list, err := h.store.ListNotifications(c.Request.Context(), rec.UserID, rec.Role)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
