package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"toolroom/internal/devserver/store"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

// AuditHandler serves the read-only session and usage trails.
type AuditHandler struct {
	store store.Store
	now   func() time.Time
}

func NewAuditHandler(st store.Store, now func() time.Time) *AuditHandler {
	return &AuditHandler{store: st, now: now}
}

func (h *AuditHandler) RegisterRoutes(router gin.IRouter) {
	officer := router.Group("/officer", security.Authorize(roles.Officer))
	officer.GET("/session-logs", h.GetSessionLogs)
	officer.GET("/active-sessions", h.GetActiveSessions)

	supervisor := router.Group("/supervisor", security.Authorize(roles.Supervisor))
	supervisor.GET("/logs/approved-usage", h.GetApprovedUsage)
}

// GetSessionLogs accepts ?role=, ?username= and ?status=active|ended.
func (h *AuditHandler) GetSessionLogs(c *gin.Context) {
	f := store.SessionFilter{Username: strings.TrimSpace(c.Query("username")), Now: h.now()}

	if value := c.Query("role"); value != "" {
		role, err := roles.Parse(strings.ToUpper(strings.TrimSpace(value)))
		if err != nil {
			abortWithError(c, custom_error.NewValidationError("role", err.Error()))
			return
		}
		f.Role = role
	}
	if value := c.Query("status"); value != "" {
		status, err := metadata.NewSessionState(value)
		if err != nil {
			abortWithError(c, custom_error.NewValidationError("status", err.Error()))
			return
		}
		f.Status = status
	}

	list, err := h.store.ListSessionLogs(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AuditHandler) GetActiveSessions(c *gin.Context) {
	list, err := h.store.ListSessionLogs(c.Request.Context(), store.SessionFilter{Status: metadata.SessionActive, Now: h.now()})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AuditHandler) GetApprovedUsage(c *gin.Context) {
	list, err := h.store.ListApprovedUsage(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
