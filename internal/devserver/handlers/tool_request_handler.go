package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	"toolroom/internal/workflow"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

type ToolRequestHandler struct {
	store    store.Store
	notifier *Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewToolRequestHandler(st store.Store, notifier *Notifier, now func() time.Time, log *zap.Logger) *ToolRequestHandler {
	return &ToolRequestHandler{store: st, notifier: notifier, now: now, log: log}
}

func (h *ToolRequestHandler) RegisterRoutes(router gin.IRouter) {
	operator := router.Group("/operator", security.Authorize(roles.Operator))
	operator.POST("/tool-requests", h.CreateToolRequest)
	operator.GET("/tool-requests", h.GetMyToolRequests)
	operator.GET("/used-tools", h.GetUsedTools)
	operator.POST("/collect-tool/:id", h.CollectTool)

	officer := router.Group("/officer", security.Authorize(roles.Officer))
	officer.GET("/tool-requests", h.GetToolRequests)
	officer.POST("/tool-requests/:id/:action", h.ReviewToolRequest)

	supervisor := router.Group("/supervisor", security.Authorize(roles.Supervisor))
	supervisor.GET("/tool-requests", h.GetToolRequests)
	supervisor.POST("/tool-requests/:id/:action", h.ReviewToolRequest)
}

func (h *ToolRequestHandler) CreateToolRequest(c *gin.Context) {
	var req models.CreateToolRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, _ := security.CurrentSession(c)
	tool, err := h.store.GetTool(ctx, req.ToolID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := req.ValidateAvailable(tool.Quantity); err != nil {
		abortWithError(c, err)
		return
	}

	rule, _ := workflow.RuleFor(workflow.KindToolRequest)
	toolRequest := models.ToolRequest{
		ToolID:       req.ToolID,
		OperatorID:   rec.UserID,
		RequestedQty: req.RequestedQty,
		Status:       rule.Initial,
		RequestedAt:  h.now(),
	}
	if err := h.store.CreateToolRequest(ctx, &toolRequest); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("tool request created", zap.String("request_id", toolRequest.RequestID), zap.Int("operator_id", rec.UserID))
	h.notifier.ToRoles(ctx, "New tool request",
		fmt.Sprintf("%s: %d x %s", toolRequest.RequestID, toolRequest.RequestedQty, toolRequest.ToolName),
		"requests review", rule.Reviewers...)
	c.JSON(http.StatusCreated, toolRequest)
}

func (h *ToolRequestHandler) GetMyToolRequests(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	h.list(c, store.ToolRequestFilter{OperatorID: rec.UserID})
}

func (h *ToolRequestHandler) GetUsedTools(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	h.list(c, store.ToolRequestFilter{OperatorID: rec.UserID, Statuses: []metadata.Status{metadata.StatusCollected}})
}

func (h *ToolRequestHandler) GetToolRequests(c *gin.Context) {
	h.list(c, store.ToolRequestFilter{})
}

func (h *ToolRequestHandler) list(c *gin.Context, f store.ToolRequestFilter) {
	list, err := h.store.ListToolRequests(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ToolRequestHandler) ReviewToolRequest(c *gin.Context) {
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

	updated, err := h.store.TransitionToolRequest(ctx, c.Param("id"), func(req *models.ToolRequest, tool *models.Tool) error {
		if err := workflow.Apply(workflow.ToolRequest(req), action, actor, payload.Remarks, h.now()); err != nil {
			return err
		}
		if action == workflow.ActionApprove && req.RequestedQty > tool.Quantity {
			return custom_error.NewStateError("requested quantity %d exceeds available quantity %d", req.RequestedQty, tool.Quantity)
		}
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("tool request reviewed",
		zap.String("request_id", updated.RequestID),
		zap.String("status", updated.Status.String()),
		zap.String("reviewer_role", rec.Role.String()),
	)
	h.notifier.ToUser(ctx, updated.OperatorID, roles.Operator,
		fmt.Sprintf("Tool request %s", updated.Status),
		fmt.Sprintf("%s for %d x %s was %s", updated.RequestID, updated.RequestedQty, updated.ToolName, updated.Status),
		"requests list")
	c.JSON(http.StatusOK, updated)
}

// CollectTool hands out an approved request and takes its quantity off the stock.
func (h *ToolRequestHandler) CollectTool(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	actor := workflow.Actor{Role: rec.Role, UserID: rec.UserID}

	updated, err := h.store.TransitionToolRequest(c.Request.Context(), c.Param("id"), func(req *models.ToolRequest, tool *models.Tool) error {
		if req.OperatorID != actor.UserID {
			return custom_error.NewAuthorizationError("tool request %s belongs to another operator", req.RequestID)
		}
		if err := workflow.Apply(workflow.ToolRequest(req), workflow.ActionCollect, actor, "", h.now()); err != nil {
			return err
		}
		if req.RequestedQty > tool.Quantity {
			return custom_error.NewStateError("only %d x %s left in stock", tool.Quantity, tool.ToolName)
		}
		tool.Quantity -= req.RequestedQty
		return nil
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("tool collected", zap.String("request_id", updated.RequestID), zap.Int("quantity", updated.RequestedQty))
	c.JSON(http.StatusOK, updated)
}
