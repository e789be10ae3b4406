package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	"toolroom/internal/workflow"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

type ToolAdditionHandler struct {
	store    store.Store
	notifier *Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewToolAdditionHandler(st store.Store, notifier *Notifier, now func() time.Time, log *zap.Logger) *ToolAdditionHandler {
	return &ToolAdditionHandler{store: st, notifier: notifier, now: now, log: log}
}

func (h *ToolAdditionHandler) RegisterRoutes(router gin.IRouter) {
	supervisor := router.Group("/supervisor", security.Authorize(roles.Supervisor))
	supervisor.POST("/tool-additions", h.CreateToolAddition)
	supervisor.GET("/tool-addition-requests", h.GetMyToolAdditions)

	officer := router.Group("/officer", security.Authorize(roles.Officer))
	officer.GET("/tool-additions", h.GetToolAdditions)
	officer.POST("/tool-additions/:id/:action", h.ReviewToolAddition)
}

func (h *ToolAdditionHandler) CreateToolAddition(c *gin.Context) {
	var req models.CreateToolAddition
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, _ := security.CurrentSession(c)
	rule, _ := workflow.RuleFor(workflow.KindToolAddition)
	addition := models.ToolAdditionRequest{
		ToolName:    req.ToolName,
		Quantity:    req.Quantity,
		Description: req.Description,
		Status:      rule.Initial,
		RequestedBy: rec.UserID,
		CreatedAt:   h.now(),
	}
	if err := h.store.CreateToolAddition(ctx, &addition); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("tool addition requested", zap.Int("id", addition.ID), zap.Int("requested_by", rec.UserID))
	h.notifier.ToRoles(ctx, "New tool addition request",
		fmt.Sprintf("%d x %s", addition.Quantity, addition.ToolName),
		"additions review", rule.Reviewers...)
	c.JSON(http.StatusCreated, addition)
}

func (h *ToolAdditionHandler) GetMyToolAdditions(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	h.list(c, rec.UserID)
}

func (h *ToolAdditionHandler) GetToolAdditions(c *gin.Context) {
	h.list(c, 0)
}

func (h *ToolAdditionHandler) list(c *gin.Context, requestedBy int) {
	f := store.AdditionFilter{RequestedBy: requestedBy}
	if value := c.Query("status"); value != "" {
		status, err := metadata.NewStatus(value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		f.Status = status
	}

	list, err := h.store.ListToolAdditions(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ReviewToolAddition approves or rejects a request. Approval adds the tool to
// the inventory in the same step.
func (h *ToolAdditionHandler) ReviewToolAddition(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	action, err := workflow.ParseAction(c.Param("action"))
	if err != nil || action == workflow.ActionCollect {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "Unknown action"})
		return
	}
	var payload models.ReviewPayload
	if !bindOptionalJSON(c, &payload) {
		return
	}

	rec, _ := security.CurrentSession(c)
	actor := workflow.Actor{Role: rec.Role, UserID: rec.UserID}
	ctx := c.Request.Context()

	updated, err := h.store.TransitionToolAddition(ctx, id, func(a *models.ToolAdditionRequest) (*models.Tool, error) {
		if err := workflow.Apply(workflow.ToolAddition(a), action, actor, payload.Reason, h.now()); err != nil {
			return nil, err
		}
		if action != workflow.ActionApprove {
			return nil, nil
		}
		return &models.Tool{
			ToolName:    a.ToolName,
			Quantity:    a.Quantity,
			Description: a.Description,
			AddedAt:     a.UpdatedAt,
		}, nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("tool addition reviewed", zap.Int("id", updated.ID), zap.String("status", updated.Status.String()))
	h.notifier.ToUser(ctx, updated.RequestedBy, roles.Supervisor,
		fmt.Sprintf("Tool addition %s", updated.Status),
		fmt.Sprintf("%d x %s was %s", updated.Quantity, updated.ToolName, updated.Status),
		"additions list")
	c.JSON(http.StatusOK, updated)
}
