package requests

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"toolroom/internal/gateway"
	"toolroom/internal/workflow"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

type Repository struct {
	api    gateway.Caller
	engine *workflow.Engine
}

func NewRepository(api gateway.Caller, engine *workflow.Engine) *Repository {
	return &Repository{api: api, engine: engine}
}

func (r *Repository) Create(ctx context.Context, req models.CreateToolRequest) (*models.ToolRequest, error) {
	if _, err := r.engine.CanCreate(workflow.KindToolRequest); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created models.ToolRequest
	if err := r.api.Call(ctx, http.MethodPost, "/operator/tool-requests", req, &created); err != nil {
		return nil, fmt.Errorf("create tool request: %w", err)
	}
	return &created, nil
}

// CreateFor requests qty of tool, using the listed quantity as an upper bound.
// The backend re-checks stock when the request is approved.
func (r *Repository) CreateFor(ctx context.Context, tool models.Tool, qty int) (*models.ToolRequest, error) {
	req := models.CreateToolRequest{ToolID: tool.ID, RequestedQty: qty}
	if err := req.ValidateAvailable(tool.Quantity); err != nil {
		return nil, err
	}
	return r.Create(ctx, req)
}

func (r *Repository) ListMine(ctx context.Context) ([]models.ToolRequest, error) {
	return r.list(ctx, "/operator/tool-requests")
}

// ListUsed returns the operator's collected requests.
func (r *Repository) ListUsed(ctx context.Context) ([]models.ToolRequest, error) {
	return r.list(ctx, "/operator/used-tools")
}

func (r *Repository) ListForReview(ctx context.Context, role roles.Role) ([]models.ToolRequest, error) {
	prefix, err := reviewPrefix(role)
	if err != nil {
		return nil, err
	}
	return r.list(ctx, prefix+"/tool-requests")
}

// Review approves or rejects req as the current role.
func (r *Repository) Review(ctx context.Context, req models.ToolRequest, action workflow.Action, remarks string) (*models.ToolRequest, error) {
	if action != workflow.ActionApprove && action != workflow.ActionReject {
		return nil, custom_error.NewValidationError("action", fmt.Sprintf("%s is not a review action", action))
	}

	var updated models.ToolRequest
	err := r.engine.Transition(ctx, workflow.ToolRequest(&req), action, func(ctx context.Context, role roles.Role) error {
		prefix, err := reviewPrefix(role)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("%s/tool-requests/%s/%s", prefix, url.PathEscape(req.RequestID), action)
		return r.api.Call(ctx, http.MethodPost, path, models.ReviewPayload{Remarks: remarks}, &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("%s tool request %s: %w", action, req.RequestID, err)
	}
	return &updated, nil
}

// Collect marks an approved request as collected. The backend decrements the
// tool quantity in the same step.
func (r *Repository) Collect(ctx context.Context, req models.ToolRequest) (*models.ToolRequest, error) {
	var updated models.ToolRequest
	err := r.engine.Transition(ctx, workflow.ToolRequest(&req), workflow.ActionCollect, func(ctx context.Context, _ roles.Role) error {
		path := "/operator/collect-tool/" + url.PathEscape(req.RequestID)
		return r.api.Call(ctx, http.MethodPost, path, nil, &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("collect tool request %s: %w", req.RequestID, err)
	}
	return &updated, nil
}

// Find returns the request with id from list.
func Find(list []models.ToolRequest, id string) (*models.ToolRequest, error) {
	for i := range list {
		if list[i].RequestID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("tool request %s not found", id)
}

func (r *Repository) list(ctx context.Context, path string) ([]models.ToolRequest, error) {
	var list []models.ToolRequest
	if err := r.api.Call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list tool requests: %w", err)
	}
	return list, nil
}

func reviewPrefix(role roles.Role) (string, error) {
	switch role {
	case roles.Officer:
		return "/officer", nil
	case roles.Supervisor:
		return "/supervisor", nil
	default:
		return "", custom_error.NewAuthorizationError("role %s cannot review tool requests", role)
	}
}
