package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	"toolroom/internal/workflow"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

type IssueHandler struct {
	store    store.Store
	notifier *Notifier
	now      func() time.Time
	log      *zap.Logger
}

func NewIssueHandler(st store.Store, notifier *Notifier, now func() time.Time, log *zap.Logger) *IssueHandler {
	return &IssueHandler{store: st, notifier: notifier, now: now, log: log}
}

func (h *IssueHandler) RegisterRoutes(router gin.IRouter) {
	operator := router.Group("/operator", security.Authorize(roles.Operator))
	operator.POST("/tool-issues", h.CreateIssue)
	operator.GET("/tool-issues", h.GetMyIssues)

	officer := router.Group("/officer", security.Authorize(roles.Officer))
	officer.GET("/tool-issues", h.GetIssues)
	officer.POST("/tool-issues/:id/:action", h.ReviewIssue)
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	var req models.CreateIssueReport
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	rec, _ := security.CurrentSession(c)
	rule, _ := workflow.RuleFor(workflow.KindIssueReport)
	issue := models.IssueReport{
		ToolID:      req.ToolID,
		OperatorID:  rec.UserID,
		Description: req.Description,
		Status:      rule.Initial,
		CreatedAt:   h.now(),
	}
	if err := h.store.CreateIssue(ctx, &issue); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("issue reported", zap.Int("id", issue.ID), zap.Int("tool_id", issue.ToolID))
	h.notifier.ToRoles(ctx, "New issue report",
		fmt.Sprintf("Tool %d: %s", issue.ToolID, issue.Description),
		"issues review", rule.Reviewers...)
	c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) GetMyIssues(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	h.list(c, store.IssueFilter{OperatorID: rec.UserID})
}

func (h *IssueHandler) GetIssues(c *gin.Context) {
	h.list(c, store.IssueFilter{})
}

func (h *IssueHandler) list(c *gin.Context, f store.IssueFilter) {
	list, err := h.store.ListIssues(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ReviewIssue resolves or rejects an open issue with the officer's response.
func (h *IssueHandler) ReviewIssue(c *gin.Context) {
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

	updated, err := h.store.TransitionIssue(ctx, id, func(issue *models.IssueReport) error {
		return workflow.Apply(workflow.IssueReport(issue), action, actor, payload.Response, h.now())
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("issue reviewed", zap.Int("id", updated.ID), zap.String("status", updated.Status.String()))
	description := fmt.Sprintf("Issue %d on tool %d was %s", updated.ID, updated.ToolID, updated.Status)
	if updated.Response != "" {
		description += ": " + updated.Response
	}
	h.notifier.ToUser(ctx, updated.OperatorID, roles.Operator, "Issue report answered", description, "issues list")
	c.JSON(http.StatusOK, updated)
}
