package issues

import (
	"context"
	"fmt"
	"net/http"

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

func (r *Repository) Create(ctx context.Context, req models.CreateIssueReport) (*models.IssueReport, error) {
	if _, err := r.engine.CanCreate(workflow.KindIssueReport); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var created models.IssueReport
	if err := r.api.Call(ctx, http.MethodPost, "/operator/tool-issues", req, &created); err != nil {
		return nil, fmt.Errorf("report issue: %w", err)
	}
	return &created, nil
}

func (r *Repository) ListMine(ctx context.Context) ([]models.IssueReport, error) {
	return r.list(ctx, "/operator/tool-issues")
}

func (r *Repository) ListForReview(ctx context.Context) ([]models.IssueReport, error) {
	return r.list(ctx, "/officer/tool-issues")
}

// Review resolves an open issue with the officer's response.
func (r *Repository) Review(ctx context.Context, issue models.IssueReport, action workflow.Action, response string) (*models.IssueReport, error) {
	if action != workflow.ActionApprove && action != workflow.ActionReject {
		return nil, custom_error.NewValidationError("action", fmt.Sprintf("%s is not a review action", action))
	}

	var updated models.IssueReport
	err := r.engine.Transition(ctx, workflow.IssueReport(&issue), action, func(ctx context.Context, _ roles.Role) error {
		path := fmt.Sprintf("/officer/tool-issues/%d/%s", issue.ID, action)
		return r.api.Call(ctx, http.MethodPost, path, models.ReviewPayload{Response: response}, &updated)
	})
	if err != nil {
		return nil, fmt.Errorf("%s issue report %d: %w", action, issue.ID, err)
	}
	return &updated, nil
}

func Find(list []models.IssueReport, id int) (*models.IssueReport, error) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, fmt.Errorf("issue report %d not found", id)
}

func (r *Repository) list(ctx context.Context, path string) ([]models.IssueReport, error) {
	var list []models.IssueReport
	if err := r.api.Call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list issue reports: %w", err)
	}
	return list, nil
}
