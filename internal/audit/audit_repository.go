package audit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"toolroom/internal/gateway"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// SessionQuery narrows the officer session logs. Empty fields are not sent.
type SessionQuery struct {
	Role     roles.Role
	Username string
	Status   metadata.SessionState
}

func (q SessionQuery) encode() string {
	values := url.Values{}
	if q.Role != "" {
		values.Set("role", q.Role.String())
	}
	if username := strings.TrimSpace(q.Username); username != "" {
		values.Set("username", username)
	}
	if q.Status != "" {
		values.Set("status", strings.ToLower(q.Status.String()))
	}
	return values.Encode()
}

type Repository struct {
	api gateway.Caller
}

func NewRepository(api gateway.Caller) *Repository {
	return &Repository{api: api}
}

func (r *Repository) SessionLogs(ctx context.Context, q SessionQuery) ([]models.SessionLog, error) {
	path := "/officer/session-logs"
	if query := q.encode(); query != "" {
		path += "?" + query
	}

	var list []models.SessionLog
	if err := r.api.Call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list session logs: %w", err)
	}
	return list, nil
}

func (r *Repository) ActiveSessions(ctx context.Context) ([]models.SessionLog, error) {
	var list []models.SessionLog
	if err := r.api.Call(ctx, http.MethodGet, "/officer/active-sessions", nil, &list); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return list, nil
}

func (r *Repository) ApprovedUsage(ctx context.Context) ([]models.ApprovedUsage, error) {
	var list []models.ApprovedUsage
	if err := r.api.Call(ctx, http.MethodGet, "/supervisor/logs/approved-usage", nil, &list); err != nil {
		return nil, fmt.Errorf("list approved usage: %w", err)
	}
	return list, nil
}
