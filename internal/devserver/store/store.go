package store

import (
	"context"
	"errors"
	"time"

	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrRoleLocked = errors.New("role currently in use by another user")
)

type ToolRequestFilter struct {
	OperatorID int
	Statuses   []metadata.Status
}

type AdditionFilter struct {
	RequestedBy int
	Status      metadata.Status
}

type IssueFilter struct {
	OperatorID int
}

// ToolRequestFunc mutates a locked tool request and its tool. Both are
// persisted when it returns nil.
type ToolRequestFunc func(req *models.ToolRequest, tool *models.Tool) error

// AdditionFunc mutates a locked addition request. A returned tool is inserted
// into the inventory in the same step.
type AdditionFunc func(a *models.ToolAdditionRequest) (*models.Tool, error)

type IssueFunc func(issue *models.IssueReport) error

// Store is the persistence the backend handlers depend on. Transition methods
// run their callback atomically with respect to other transitions of the same
// entity.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int) error
	UpdatePassword(ctx context.Context, id int, hash string, firstLoginRequired bool) error

	// CreateSession stores rec. With exclusive set it fails with ErrRoleLocked
	// while another active session holds the same role.
	CreateSession(ctx context.Context, rec models.SessionRecord, exclusive bool) error
	GetSession(ctx context.Context, id string) (*models.SessionRecord, error)
	// EndSession records the logout of an active session. Ending an ended
	// session is a no-op.
	EndSession(ctx context.Context, id string, at time.Time, reason metadata.EndReason) error
	// ListSessionLogs returns sessions with their account names, newest first.
	ListSessionLogs(ctx context.Context, f SessionFilter) ([]models.SessionLog, error)

	ListTools(ctx context.Context, inStockOnly bool) ([]models.Tool, error)
	GetTool(ctx context.Context, id int) (*models.Tool, error)
	CreateTool(ctx context.Context, t *models.Tool) error

	CreateToolRequest(ctx context.Context, r *models.ToolRequest) error
	ListToolRequests(ctx context.Context, f ToolRequestFilter) ([]models.ToolRequest, error)
	TransitionToolRequest(ctx context.Context, requestID string, fn ToolRequestFunc) (*models.ToolRequest, error)
	// ListApprovedUsage returns approved and collected requests, latest approval first.
	ListApprovedUsage(ctx context.Context) ([]models.ApprovedUsage, error)

	CreateToolAddition(ctx context.Context, a *models.ToolAdditionRequest) error
	ListToolAdditions(ctx context.Context, f AdditionFilter) ([]models.ToolAdditionRequest, error)
	TransitionToolAddition(ctx context.Context, id int, fn AdditionFunc) (*models.ToolAdditionRequest, error)

	CreateIssue(ctx context.Context, i *models.IssueReport) error
	ListIssues(ctx context.Context, f IssueFilter) ([]models.IssueReport, error)
	TransitionIssue(ctx context.Context, id int, fn IssueFunc) (*models.IssueReport, error)

	CreateNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns notifications addressed to userID or broadcast
	// to role, newest first.
	ListNotifications(ctx context.Context, userID int, role roles.Role) ([]models.Notification, error)
}

// IsExclusive reports whether role may hold only one active session at a time.
func IsExclusive(role roles.Role) bool {
	return role == roles.Officer || role == roles.Supervisor
}

func matchesStatus(s metadata.Status, allowed []metadata.Status) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
