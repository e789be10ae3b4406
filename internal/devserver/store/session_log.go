package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"toolroom/internal/repository"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// SessionFilter narrows the session logs. Zero fields match everything.
// Username matches case-insensitively anywhere in the login name.
type SessionFilter struct {
	Role     roles.Role
	Username string
	Status   metadata.SessionState
	Now      time.Time
}

var approvedUsageStatuses = []metadata.Status{metadata.StatusApproved, metadata.StatusCollected}

func (f SessionFilter) matches(log models.SessionLog) bool {
	if f.Role != "" && log.Role != f.Role {
		return false
	}
	if f.Username != "" && !strings.Contains(strings.ToLower(log.Username), strings.ToLower(f.Username)) {
		return false
	}
	return f.Status == "" || log.State(f.Now) == f.Status
}

// resolveSessionLogs fills the fields derived from the clock.
func resolveSessionLogs(list []models.SessionLog, now time.Time) {
	for i := range list {
		list[i].Status = list[i].State(now)
		list[i].EndedReason = list[i].EndReasonAt(now)
	}
}

func (m *Memory) ListSessionLogs(ctx context.Context, f SessionFilter) ([]models.SessionLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f.Now.IsZero() {
		f.Now = m.now()
	}
	out := make([]models.SessionLog, 0)
	for _, rec := range m.sessions {
		log := models.SessionLog{SessionRecord: rec}
		if u, ok := m.users[rec.UserID]; ok {
			log.Username, log.FullName = u.Username, u.FullName
		}
		if f.matches(log) {
			out = append(out, log)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].SessionID < out[j].SessionID
	})
	resolveSessionLogs(out, f.Now)
	return out, nil
}

func (m *Memory) ListApprovedUsage(ctx context.Context) ([]models.ApprovedUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ApprovedUsage, 0)
	for _, r := range m.requests {
		if !matchesStatus(r.Status, approvedUsageStatuses) {
			continue
		}
		usage := models.ApprovedUsage{
			RequestID:        r.RequestID,
			ToolName:         r.ToolName,
			Quantity:         r.RequestedQty,
			OperatorID:       r.OperatorID,
			OperatorUsername: m.users[r.OperatorID].Username,
			ReviewerID:       r.ReviewerID,
			Status:           r.Status,
			RequestedAt:      r.RequestedAt,
			ApprovedAt:       r.ProcessedAt,
		}
		if r.ReviewerID != nil {
			usage.ReviewerName = m.users[*r.ReviewerID].FullName
		}
		out = append(out, usage)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ApprovedAt, out[j].ApprovedAt
		if a != nil && b != nil && !a.Equal(*b) {
			return a.After(*b)
		}
		if (a == nil) != (b == nil) {
			return a != nil
		}
		return models.RequestSeq(out[i].RequestID) > models.RequestSeq(out[j].RequestID)
	})
	return out, nil
}

func (p *Postgres) ListSessionLogs(ctx context.Context, f SessionFilter) ([]models.SessionLog, error) {
	if f.Now.IsZero() {
		f.Now = time.Now()
	}

	qb := repository.NewQueryBuilder()
	if f.Role != "" {
		qb.AddCondition("role", string(f.Role))
	}

	query := p.db().From(goqu.T(sessionsTable).As("s")).
		Join(goqu.T(usersTable).As("u"), goqu.On(goqu.Ex{"s.user_id": goqu.I("u.id")})).
		Select(
			goqu.I("s.session_id").As("session_id"),
			goqu.I("s.user_id").As("user_id"),
			goqu.I("s.role").As("role"),
			goqu.I("s.created_at").As("created_at"),
			goqu.I("s.expires_at").As("expires_at"),
			goqu.I("s.logout_at").As("logout_at"),
			goqu.I("s.ended_reason").As("ended_reason"),
			goqu.I("s.ip_address").As("ip_address"),
			goqu.I("u.username").As("username"),
			goqu.I("u.full_name").As("full_name"),
		).
		Where(qb.BuildConditions(map[string]string{"role": "s.role"}))

	if f.Username != "" {
		query = query.Where(goqu.I("u.username").ILike("%" + f.Username + "%"))
	}
	switch f.Status {
	case metadata.SessionActive:
		query = query.Where(goqu.I("s.logout_at").IsNull(), goqu.I("s.expires_at").Gt(f.Now))
	case metadata.SessionEnded:
		query = query.Where(goqu.Or(goqu.I("s.logout_at").IsNotNull(), goqu.I("s.expires_at").Lte(f.Now)))
	}

	list := make([]models.SessionLog, 0)
	err := query.Order(goqu.I("s.created_at").Desc(), goqu.I("s.session_id").Asc()).ScanStructsContext(ctx, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list session logs: %w", err)
	}
	resolveSessionLogs(list, f.Now)
	return list, nil
}

func (p *Postgres) ListApprovedUsage(ctx context.Context) ([]models.ApprovedUsage, error) {
	statuses := make([]string, 0, len(approvedUsageStatuses))
	for _, s := range approvedUsageStatuses {
		statuses = append(statuses, string(s))
	}

	list := make([]models.ApprovedUsage, 0)
	err := p.db().From(goqu.T(toolRequestsTable).As("r")).
		Join(goqu.T(usersTable).As("o"), goqu.On(goqu.Ex{"r.operator_id": goqu.I("o.id")})).
		LeftJoin(goqu.T(usersTable).As("v"), goqu.On(goqu.Ex{"r.reviewer_id": goqu.I("v.id")})).
		Select(
			goqu.I("r.request_id").As("request_id"),
			goqu.I("r.tool_name").As("tool_name"),
			goqu.I("r.requested_qty").As("quantity"),
			goqu.I("r.operator_id").As("operator_id"),
			goqu.I("o.username").As("operator_username"),
			goqu.I("r.reviewer_id").As("reviewer_id"),
			goqu.COALESCE(goqu.I("v.full_name"), "").As("reviewer_name"),
			goqu.I("r.status").As("status"),
			goqu.I("r.requested_at").As("requested_at"),
			goqu.I("r.processed_at").As("approved_at"),
		).
		Where(goqu.Ex{"r.status": statuses}).
		Order(goqu.I("r.processed_at").Desc().NullsLast(), goqu.I("r.id").Desc()).
		ScanStructsContext(ctx, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved usage: %w", err)
	}
	return list, nil
}
