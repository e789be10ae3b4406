package requests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"toolroom/internal/gateway/gatewaytest"
	"toolroom/internal/workflow"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

type fixedRole roles.Role

func (f fixedRole) CurrentRole() (roles.Role, bool) {
	return roles.Role(f), f != ""
}

func newRepo(role roles.Role) (*Repository, *gatewaytest.MockCaller) {
	api := new(gatewaytest.MockCaller)
	return NewRepository(api, workflow.NewEngine(fixedRole(role), nil)), api
}

func TestCreate(t *testing.T) {
	repo, api := newRepo(roles.Operator)
	req := models.CreateToolRequest{ToolID: 7, RequestedQty: 2}
	api.Respond("POST", "/operator/tool-requests", req, models.ToolRequest{RequestID: "TR00001", ToolID: 7, RequestedQty: 2, Status: metadata.StatusPending})

	created, err := repo.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusPending, created.Status)
	api.AssertExpectations(t)
}

func TestCreateRefusedLocally(t *testing.T) {
	tests := []struct {
		name  string
		role  roles.Role
		req   models.CreateToolRequest
		check func(error) bool
	}{
		{"officer cannot request", roles.Officer, models.CreateToolRequest{ToolID: 7, RequestedQty: 1}, custom_error.IsAuthorization},
		{"zero quantity", roles.Operator, models.CreateToolRequest{ToolID: 7, RequestedQty: 0}, custom_error.IsValidation},
		{"negative quantity", roles.Operator, models.CreateToolRequest{ToolID: 7, RequestedQty: -3}, custom_error.IsValidation},
		{"no tool", roles.Operator, models.CreateToolRequest{RequestedQty: 1}, custom_error.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, api := newRepo(tt.role)
			_, err := repo.Create(context.Background(), tt.req)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			api.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreateForChecksAvailableQuantity(t *testing.T) {
	repo, api := newRepo(roles.Operator)

	_, err := repo.CreateFor(context.Background(), models.Tool{ID: 7, Quantity: 5}, 6)
	assert.True(t, custom_error.IsValidation(err))
	api.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestListForReviewUsesRolePath(t *testing.T) {
	repo, api := newRepo(roles.Supervisor)
	api.Respond("GET", "/supervisor/tool-requests", nil, []models.ToolRequest{{RequestID: "TR00001"}})
	api.Respond("GET", "/officer/tool-requests", nil, []models.ToolRequest{{RequestID: "TR00001"}, {RequestID: "TR00002"}})

	list, err := repo.ListForReview(context.Background(), roles.Supervisor)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = repo.ListForReview(context.Background(), roles.Officer)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = repo.ListForReview(context.Background(), roles.Operator)
	assert.True(t, custom_error.IsAuthorization(err))
}

func TestReview(t *testing.T) {
	repo, api := newRepo(roles.Officer)
	pending := models.ToolRequest{RequestID: "TR00001", Status: metadata.StatusPending}
	api.Respond("POST", "/officer/tool-requests/TR00001/approve", models.ReviewPayload{Remarks: "ok"},
		models.ToolRequest{RequestID: "TR00001", Status: metadata.StatusApproved, Remarks: "ok"})

	updated, err := repo.Review(context.Background(), pending, workflow.ActionApprove, "ok")
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusApproved, updated.Status)
	assert.Equal(t, metadata.StatusPending, pending.Status)
	api.AssertExpectations(t)
}

func TestReviewTerminalRequestNeverSent(t *testing.T) {
	repo, api := newRepo(roles.Officer)
	approved := models.ToolRequest{RequestID: "TR00001", Status: metadata.StatusApproved}

	_, err := repo.Review(context.Background(), approved, workflow.ActionReject, "")
	assert.True(t, custom_error.IsState(err))
	api.AssertNotCalled(t, "Call", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewBackendConflict(t *testing.T) {
	repo, api := newRepo(roles.Supervisor)
	pending := models.ToolRequest{RequestID: "TR00003", Status: metadata.StatusPending}
	api.Fail("POST", "/supervisor/tool-requests/TR00003/reject", models.ReviewPayload{},
		&custom_error.StateError{Message: "Request already processed", Cause: &custom_error.APIError{Status: 409}})

	_, err := repo.Review(context.Background(), pending, workflow.ActionReject, "")
	assert.True(t, custom_error.IsState(err))
}

func TestReviewRejectsCollectAction(t *testing.T) {
	repo, _ := newRepo(roles.Operator)
	_, err := repo.Review(context.Background(), models.ToolRequest{Status: metadata.StatusApproved}, workflow.ActionCollect, "")
	assert.True(t, custom_error.IsValidation(err))
}

func TestCollect(t *testing.T) {
	repo, api := newRepo(roles.Operator)
	approved := models.ToolRequest{RequestID: "TR00001", Status: metadata.StatusApproved}
	api.Respond("POST", "/operator/collect-tool/TR00001", nil, models.ToolRequest{RequestID: "TR00001", Status: metadata.StatusCollected})

	updated, err := repo.Collect(context.Background(), approved)
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusCollected, updated.Status)

	_, err = repo.Collect(context.Background(), models.ToolRequest{RequestID: "TR00002", Status: metadata.StatusPending})
	assert.True(t, custom_error.IsState(err))
	api.AssertNumberOfCalls(t, "Call", 1)
}

func TestFind(t *testing.T) {
	list := []models.ToolRequest{{RequestID: "TR00001"}, {RequestID: "TR00002"}}

	found, err := Find(list, "TR00002")
	require.NoError(t, err)
	assert.Equal(t, "TR00002", found.RequestID)

	_, err = Find(list, "TR00009")
	assert.Error(t, err)
}
