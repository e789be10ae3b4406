package additions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"toolroom/internal/gateway"
	"toolroom/internal/workflow"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
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

func (r *Repository) Create(ctx context.Context, req models.CreateToolAddition) (*models.ToolAdditionRequest, error) {
	if _, err := r.engine.CanCreate(workflow.KindToolAddition); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created models.ToolAdditionRequest
	if err := r.api.Call(ctx, http.MethodPost, "/supervisor/tool-additions", req, &created); err != nil {
		return nil, fmt.Errorf("create tool addition request: %w", err)
	}
	return &created, nil
}

// ListMine returns the supervisor's own addition requests. An empty status
// returns all of them.
func (r *Repository) ListMine(ctx context.Context, status metadata.Status) ([]models.ToolAdditionRequest, error) {
	return r.list(ctx, "/supervisor/tool-addition-requests", status)
}

func (r *Repository) ListForReview(ctx context.Context, status metadata.Status) ([]models.ToolAdditionRequest, error) {
	return r.list(ctx, "/officer/tool-additions", status)
}

// Review approves or rejects an addition. Approving adds the tool to the
// inventory on the backend.
func (r *Repository) Review(ctx context.Context, addition models.ToolAdditionRequest, action workflow.Action, reason string) (*models.ToolAdditionRequest, error) {
	if action != workflow.ActionApprove && action != workflow.ActionReject {
		return nil, custom_error.NewValidationError("action", fmt.Sprintf("%s is not a review action", action))
	}

	var updated models.ToolAdditionRequest
	err := r.engine.Transition(ctx, workflow.ToolAddition(&addition), action, func(ctx context.Context, _ roles.Role) error {
		path := fmt.Sprintf("/officer/tool-additions/%d/%s", addition.ID, action)
		return r.api.Call(ctx, http.MethodPost, path, models.ReviewPayload{Reason: reason}, &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("%s tool addition request %d: %w", action, addition.ID, err)
	}
	return &updated, nil
}

func Find(list []models.ToolAdditionRequest, id int) (*models.ToolAdditionRequest, error) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("tool addition request %d not found", id)
}

func (r *Repository) list(ctx context.Context, path string, status metadata.Status) ([]models.ToolAdditionRequest, error) {
	if status != "" {
		path += "?" + url.Values{"status": {strings.ToLower(status.String())}}.Encode()
	}

	var list []models.ToolAdditionRequest
	if err := r.api.Call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list tool addition requests: %w", err)
	}
	return list, nil
}
