package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// Memory keeps all records in process memory. One mutex serializes every
// operation, which makes each transition atomic.
type Memory struct {
	mu  sync.Mutex
	now func() time.Time

	users         map[int]models.User
	sessions      map[string]models.SessionRecord
	tools         map[int]models.Tool
	requests      map[string]models.ToolRequest
	additions     map[int]models.ToolAdditionRequest
	issues        map[int]models.IssueReport
	notifications []models.Notification

	nextUser, nextTool, nextRequest, nextAddition, nextIssue, nextNotification int
}

func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		now:       now,
		users:     make(map[int]models.User),
		sessions:  make(map[string]models.SessionRecord),
		tools:     make(map[int]models.Tool),
		requests:  make(map[string]models.ToolRequest),
		additions: make(map[int]models.ToolAdditionRequest),
		issues:    make(map[int]models.IssueReport),
	}
}

func (m *Memory) Ping(ctx context.Context) error {
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return custom_error.WrapDBError("Username already exists", "23505")
		}
	}

	m.nextUser++
	u.ID = m.nextUser
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) GetUser(ctx context.Context, id int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteUser(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	if m.referencesUser(id) {
		return custom_error.WrapDBError("user still has requests on record", "23503")
	}
	delete(m.users, id)

	for sid, rec := range m.sessions {
		if rec.UserID == id {
			delete(m.sessions, sid)
		}
	}
	for key, r := range m.requests {
		if clearReviewer(&r.ReviewerID, id) {
			m.requests[key] = r
		}
	}
	for key, a := range m.additions {
		if clearReviewer(&a.ReviewerID, id) {
			m.additions[key] = a
		}
	}
	for key, i := range m.issues {
		if clearReviewer(&i.ReviewerID, id) {
			m.issues[key] = i
		}
	}
	return nil
}

// referencesUser mirrors the foreign keys that block deleting a user in postgres.
func (m *Memory) referencesUser(id int) bool {
	for _, r := range m.requests {
		if r.OperatorID == id {
			return true
		}
	}
	for _, a := range m.additions {
		if a.RequestedBy == id {
			return true
		}
	}
	for _, i := range m.issues {
		if i.OperatorID == id {
			return true
		}
	}
	return false
}

func clearReviewer(reviewer **int, id int) bool {
	if *reviewer == nil || **reviewer != id {
		return false
	}
	*reviewer = nil
	return true
}

func (m *Memory) UpdatePassword(ctx context.Context, id int, hash string, firstLoginRequired bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.FirstLoginRequired = firstLoginRequired
	m.users[id] = u
	return nil
}

func (m *Memory) CreateSession(ctx context.Context, rec models.SessionRecord, exclusive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exclusive {
		now := m.now()
		for _, existing := range m.sessions {
			if existing.Role == rec.Role && existing.Active(now) {
				return ErrRoleLocked
			}
		}
	}
	m.sessions[rec.SessionID] = rec
	return nil
}

func (m *Memory) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) EndSession(ctx context.Context, id string, at time.Time, reason metadata.EndReason) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if rec.LogoutAt == nil {
		rec.LogoutAt = &at
		rec.EndedReason = reason
		m.sessions[id] = rec
	}
	return nil
}

func (m *Memory) ListTools(ctx context.Context, inStockOnly bool) ([]models.Tool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Tool, 0, len(m.tools))
	for _, t := range m.tools {
		if inStockOnly && t.Quantity <= 0 {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) CreateTool(ctx context.Context, t *models.Tool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.insertTool(t)
	return nil
}

func (m *Memory) insertTool(t *models.Tool) {
	if t.ID == 0 {
		m.nextTool++
		t.ID = m.nextTool
	} else if t.ID > m.nextTool {
		m.nextTool = t.ID
	}
	if t.AddedAt.IsZero() {
		t.AddedAt = m.now()
	}
	m.tools[t.ID] = *t
}

func (m *Memory) CreateToolRequest(ctx context.Context, r *models.ToolRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tool, ok := m.tools[r.ToolID]
	if !ok {
		return custom_error.WrapDBError(fmt.Sprintf("tool %d", r.ToolID), "23503")
	}

	m.nextRequest++
	r.RequestID = models.FormatRequestID(m.nextRequest)
	r.ToolName = tool.ToolName
	if r.RequestedAt.IsZero() {
		r.RequestedAt = m.now()
	}
	m.requests[r.RequestID] = *r
	return nil
}

func (m *Memory) ListToolRequests(ctx context.Context, f ToolRequestFilter) ([]models.ToolRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ToolRequest, 0)
	for _, r := range m.requests {
		if f.OperatorID != 0 && r.OperatorID != f.OperatorID {
			continue
		}
		if !matchesStatus(r.Status, f.Statuses) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return models.RequestSeq(out[i].RequestID) > models.RequestSeq(out[j].RequestID)
	})
	return out, nil
}

func (m *Memory) TransitionToolRequest(ctx context.Context, requestID string, fn ToolRequestFunc) (*models.ToolRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	tool, ok := m.tools[req.ToolID]
	if !ok {
		return nil, fmt.Errorf("tool %d of request %s: %w", req.ToolID, requestID, ErrNotFound)
	}

	if err := fn(&req, &tool); err != nil {
		return nil, err
	}

	m.requests[requestID] = req
	m.tools[tool.ID] = tool
	return &req, nil
}

func (m *Memory) CreateToolAddition(ctx context.Context, a *models.ToolAdditionRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextAddition++
	a.ID = m.nextAddition
	now := m.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	m.additions[a.ID] = *a
	return nil
}

func (m *Memory) ListToolAdditions(ctx context.Context, f AdditionFilter) ([]models.ToolAdditionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ToolAdditionRequest, 0)
	for _, a := range m.additions {
		if f.RequestedBy != 0 && a.RequestedBy != f.RequestedBy {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) TransitionToolAddition(ctx context.Context, id int, fn AdditionFunc) (*models.ToolAdditionRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.additions[id]
	if !ok {
		return nil, ErrNotFound
	}

	tool, err := fn(&a)
	if err != nil {
		return nil, err
	}
	if tool != nil {
		m.insertTool(tool)
	}
	m.additions[id] = a
	return &a, nil
}

func (m *Memory) CreateIssue(ctx context.Context, i *models.IssueReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tools[i.ToolID]; !ok {
		return custom_error.WrapDBError(fmt.Sprintf("tool %d", i.ToolID), "23503")
	}

	m.nextIssue++
	i.ID = m.nextIssue
	if i.CreatedAt.IsZero() {
		i.CreatedAt = m.now()
	}
	m.issues[i.ID] = *i
	return nil
}

func (m *Memory) ListIssues(ctx context.Context, f IssueFilter) ([]models.IssueReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.IssueReport, 0)
	for _, i := range m.issues {
		if f.OperatorID != 0 && i.OperatorID != f.OperatorID {
			continue
		}
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (m *Memory) TransitionIssue(ctx context.Context, id int, fn IssueFunc) (*models.IssueReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	issue, ok := m.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(&issue); err != nil {
		return nil, err
	}
	m.issues[id] = issue
	return &issue, nil
}

func (m *Memory) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextNotification++
	n.ID = m.nextNotification
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.notifications = append(m.notifications, *n)
	return nil
}

func (m *Memory) ListNotifications(ctx context.Context, userID int, role roles.Role) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Notification, 0)
	for i := len(m.notifications) - 1; i >= 0; i-- {
		n := m.notifications[i]
		if n.UserID == userID || (n.UserID == 0 && n.Role == role) {
			out = append(out, n)
		}
	}
	return out, nil
}

var _ Store = (*Memory)(nil)
