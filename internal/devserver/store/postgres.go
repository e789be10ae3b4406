package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"toolroom/internal/repository"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

const (
	usersTable         = "users"
	sessionsTable      = "sessions"
	toolsTable         = "tools"
	toolRequestsTable  = "tool_requests"
	additionsTable     = "tool_addition_requests"
	issuesTable        = "issue_reports"
	notificationsTable = "notifications"
)

var (
	toolRequestColumns = []any{
		"request_id", "tool_id", "tool_name", "operator_id", "requested_qty", "status",
		"requested_at", "processed_at", "collected_at", "reviewer_id", "remarks",
	}
	userColumns = []any{
		"id", "username", "full_name", "role", "contact_number", "email",
		"first_login_required", "password_hash", "created_at",
	}
)

type Postgres struct {
	repo *repository.Repository
}

func NewPostgres(repo *repository.Repository) *Postgres {
	return &Postgres{repo: repo}
}

func (p *Postgres) db() *goqu.Database {
	return p.repo.GoquDBWrapper
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.repo.DB.PingContext(ctx)
}

func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	query := p.db().Insert(usersTable).
		Rows(goqu.Record{
			"username":             u.Username,
			"full_name":            u.FullName,
			"role":                 string(u.Role),
			"contact_number":       u.ContactNumber,
			"email":                u.Email,
			"first_login_required": u.FirstLoginRequired,
			"password_hash":        u.PasswordHash,
		}).
		Returning("id", "created_at")

	row := struct {
		ID        int       `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}{}
	if _, err := query.Executor().ScanStructContext(ctx, &row); err != nil {
		return fmt.Errorf("failed to insert user: %w", custom_error.FromPQ(err, "Username already exists"))
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

func (p *Postgres) GetUser(ctx context.Context, id int) (*models.User, error) {
	return p.getUser(ctx, goqu.Ex{"id": id})
}

func (p *Postgres) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return p.getUser(ctx, goqu.Ex{"username": username})
}

func (p *Postgres) getUser(ctx context.Context, where goqu.Ex) (*models.User, error) {
	var user models.User
	found, err := p.db().From(usersTable).Select(userColumns...).Where(where).
		ScanStructContext(ctx, &user)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := p.db().From(usersTable).Select(userColumns...).Order(goqu.C("id").Asc()).
		ScanStructsContext(ctx, &users)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	return users, nil
}

func (p *Postgres) DeleteUser(ctx context.Context, id int) error {
	res, err := p.db().Delete(usersTable).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", custom_error.FromPQ(err, "user still has requests on record"))
	}
	return requireAffected(res)
}

func (p *Postgres) UpdatePassword(ctx context.Context, id int, hash string, firstLoginRequired bool) error {
	res, err := p.db().Update(usersTable).
		Set(goqu.Record{"password_hash": hash, "first_login_required": firstLoginRequired}).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireAffected(res)
}

func (p *Postgres) CreateSession(ctx context.Context, rec models.SessionRecord, exclusive bool) error {
	return repository.WithTransaction(ctx, p.db(), func(tx *goqu.TxDatabase) error {
		if exclusive {
			// serializes concurrent logins so the active-role check below holds
			if _, err := tx.ExecContext(ctx, "LOCK TABLE sessions IN SHARE ROW EXCLUSIVE MODE"); err != nil {
				return fmt.Errorf("failed to lock sessions: %w", err)
			}
			active, err := tx.From(sessionsTable).
				Where(
					goqu.C("role").Eq(string(rec.Role)),
					goqu.C("logout_at").IsNull(),
					goqu.C("expires_at").Gt(rec.CreatedAt),
				).
				CountContext(ctx)
			if err != nil {
				return fmt.Errorf("failed to count active sessions: %w", err)
			}
			if active > 0 {
				return ErrRoleLocked
			}
		}

		_, err := tx.Insert(sessionsTable).Rows(goqu.Record{
			"session_id": rec.SessionID,
			"user_id":    rec.UserID,
			"role":       string(rec.Role),
			"created_at": rec.CreatedAt,
			"expires_at": rec.ExpiresAt,
			"ip_address": rec.IPAddress,
		}).Executor().ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

func (p *Postgres) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	found, err := p.db().From(sessionsTable).Where(goqu.Ex{"session_id": id}).ScanStructContext(ctx, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (p *Postgres) EndSession(ctx context.Context, id string, at time.Time, reason metadata.EndReason) error {
	_, err := p.db().Update(sessionsTable).
		Set(goqu.Record{"logout_at": at, "ended_reason": string(reason)}).
		Where(goqu.C("session_id").Eq(id), goqu.C("logout_at").IsNull()).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (p *Postgres) ListTools(ctx context.Context, inStockOnly bool) ([]models.Tool, error) {
	query := p.db().From(toolsTable).Order(goqu.C("id").Asc())
	if inStockOnly {
		query = query.Where(goqu.C("quantity").Gt(0))
	}

	tools := make([]models.Tool, 0)
	if err := query.ScanStructsContext(ctx, &tools); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}
	return tools, nil
}

func (p *Postgres) GetTool(ctx context.Context, id int) (*models.Tool, error) {
	var tool models.Tool
	found, err := p.db().From(toolsTable).Where(goqu.Ex{"id": id}).ScanStructContext(ctx, &tool)
	if err != nil {
		return nil, fmt.Errorf("failed to get tool: %w", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return &tool, nil
}

func (p *Postgres) CreateTool(ctx context.Context, t *models.Tool) error {
	return insertTool(ctx, p.db().Insert(toolsTable), t)
}

func insertTool(ctx context.Context, insert *goqu.InsertDataset, t *models.Tool) error {
	row := struct {
		ID      int       `db:"id"`
		AddedAt time.Time `db:"added_at"`
	}{}
	_, err := insert.Rows(goqu.Record{
		"tool_name":           t.ToolName,
		"quantity":            t.Quantity,
		"location":            t.Location,
		"category":            t.Category,
		"identification_code": t.IdentificationCode,
		"gauge":               t.Gauge,
		"make":                t.Make,
		"range_mm":            t.RangeMM,
		"description":         t.Description,
	}).Returning("id", "added_at").Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return fmt.Errorf("failed to insert tool: %w", err)
	}
	t.ID = row.ID
	t.AddedAt = row.AddedAt
	return nil
}

func (p *Postgres) CreateToolRequest(ctx context.Context, r *models.ToolRequest) error {
	return repository.WithTransaction(ctx, p.db(), func(tx *goqu.TxDatabase) error {
		var toolName string
		found, err := tx.From(toolsTable).Select("tool_name").Where(goqu.Ex{"id": r.ToolID}).
			ScanValContext(ctx, &toolName)
		if err != nil {
			return fmt.Errorf("failed to get tool: %w", err)
		}
		if !found {
			return custom_error.WrapDBError(fmt.Sprintf("tool %d", r.ToolID), "23503")
		}
		r.ToolName = toolName

		row := struct {
			RequestID   string    `db:"request_id"`
			RequestedAt time.Time `db:"requested_at"`
		}{}
		_, err = tx.Insert(toolRequestsTable).Rows(goqu.Record{
			"tool_id":       r.ToolID,
			"tool_name":     r.ToolName,
			"operator_id":   r.OperatorID,
			"requested_qty": r.RequestedQty,
			"status":        string(r.Status),
		}).Returning("request_id", "requested_at").Executor().ScanStructContext(ctx, &row)
		if err != nil {
			return fmt.Errorf("failed to insert tool request: %w", custom_error.FromPQ(err, "invalid tool request"))
		}
		r.RequestID = row.RequestID
		r.RequestedAt = row.RequestedAt
		return nil
	})
}

func (p *Postgres) ListToolRequests(ctx context.Context, f ToolRequestFilter) ([]models.ToolRequest, error) {
	qb := repository.NewQueryBuilder()
	if f.OperatorID != 0 {
		qb.AddCondition("operator_id", f.OperatorID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		qb.AddCondition("status", statuses)
	}

	list := make([]models.ToolRequest, 0)
	err := p.db().From(toolRequestsTable).Select(toolRequestColumns...).
		Where(qb.BuildConditions(nil)).
		Order(goqu.C("id").Desc()).
		ScanStructsContext(ctx, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool requests: %w", err)
	}
	return list, nil
}

func (p *Postgres) TransitionToolRequest(ctx context.Context, requestID string, fn ToolRequestFunc) (*models.ToolRequest, error) {
	var req models.ToolRequest
	err := repository.WithTransaction(ctx, p.db(), func(tx *goqu.TxDatabase) error {
		found, err := tx.From(toolRequestsTable).Select(toolRequestColumns...).
			Where(goqu.Ex{"request_id": requestID}).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &req)
		if err != nil {
			return fmt.Errorf("failed to lock tool request: %w", err)
		}
		if !found {
			return ErrNotFound
		}

		var tool models.Tool
		found, err = tx.From(toolsTable).Where(goqu.Ex{"id": req.ToolID}).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &tool)
		if err != nil {
			return fmt.Errorf("failed to lock tool: %w", err)
		}
		if !found {
			return fmt.Errorf("tool %d of request %s: %w", req.ToolID, requestID, ErrNotFound)
		}

		if err := fn(&req, &tool); err != nil {
			return err
		}

		if _, err := tx.Update(toolRequestsTable).Set(goqu.Record{
			"status":       string(req.Status),
			"processed_at": req.ProcessedAt,
			"collected_at": req.CollectedAt,
			"reviewer_id":  req.ReviewerID,
			"remarks":      req.Remarks,
		}).Where(goqu.Ex{"request_id": requestID}).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to update tool request: %w", err)
		}

		if _, err := tx.Update(toolsTable).Set(goqu.Record{"quantity": tool.Quantity}).
			Where(goqu.Ex{"id": tool.ID}).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to update tool quantity: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (p *Postgres) CreateToolAddition(ctx context.Context, a *models.ToolAdditionRequest) error {
	row := struct {
		ID        int       `db:"id"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}{}
	_, err := p.db().Insert(additionsTable).Rows(goqu.Record{
		"tool_name":    a.ToolName,
		"quantity":     a.Quantity,
		"description":  a.Description,
		"status":       string(a.Status),
		"requested_by": a.RequestedBy,
	}).Returning("id", "created_at", "updated_at").Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return fmt.Errorf("failed to insert tool addition request: %w", err)
	}
	a.ID = row.ID
	a.CreatedAt = row.CreatedAt
	a.UpdatedAt = row.UpdatedAt
	return nil
}

func (p *Postgres) ListToolAdditions(ctx context.Context, f AdditionFilter) ([]models.ToolAdditionRequest, error) {
	qb := repository.NewQueryBuilder()
	if f.RequestedBy != 0 {
		qb.AddCondition("requested_by", f.RequestedBy)
	}
	if f.Status != "" {
		qb.AddCondition("status", string(f.Status))
	}

	list := make([]models.ToolAdditionRequest, 0)
	err := p.db().From(additionsTable).Where(qb.BuildConditions(nil)).Order(goqu.C("id").Desc()).
		ScanStructsContext(ctx, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool addition requests: %w", err)
	}
	return list, nil
}

func (p *Postgres) TransitionToolAddition(ctx context.Context, id int, fn AdditionFunc) (*models.ToolAdditionRequest, error) {
	var addition models.ToolAdditionRequest
	err := repository.WithTransaction(ctx, p.db(), func(tx *goqu.TxDatabase) error {
		found, err := tx.From(additionsTable).Where(goqu.Ex{"id": id}).ForUpdate(exp.Wait).
			ScanStructContext(ctx, &addition)
		if err != nil {
			return fmt.Errorf("failed to lock tool addition request: %w", err)
		}
		if !found {
			return ErrNotFound
		}

		tool, err := fn(&addition)
		if err != nil {
			return err
		}

		if _, err := tx.Update(additionsTable).Set(goqu.Record{
			"status":           string(addition.Status),
			"updated_at":       addition.UpdatedAt,
			"reviewer_id":      addition.ReviewerID,
			"rejection_reason": addition.RejectionReason,
		}).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to update tool addition request: %w", err)
		}

		if tool != nil {
			return insertTool(ctx, tx.Insert(toolsTable), tool)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &addition, nil
}

func (p *Postgres) CreateIssue(ctx context.Context, i *models.IssueReport) error {
	row := struct {
		ID        int       `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}{}
	_, err := p.db().Insert(issuesTable).Rows(goqu.Record{
		"tool_id":     i.ToolID,
		"operator_id": i.OperatorID,
		"description": i.Description,
		"status":      string(i.Status),
	}).Returning("id", "created_at").Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return fmt.Errorf("failed to insert issue report: %w", custom_error.FromPQ(err, fmt.Sprintf("tool %d", i.ToolID)))
	}
	i.ID = row.ID
	i.CreatedAt = row.CreatedAt
	return nil
}

func (p *Postgres) ListIssues(ctx context.Context, f IssueFilter) ([]models.IssueReport, error) {
	qb := repository.NewQueryBuilder()
	if f.OperatorID != 0 {
		qb.AddCondition("operator_id", f.OperatorID)
	}

	list := make([]models.IssueReport, 0)
	err := p.db().From(issuesTable).Where(qb.BuildConditions(nil)).Order(goqu.C("id").Desc()).
		ScanStructsContext(ctx, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list issue reports: %w", err)
	}
	return list, nil
}

func (p *Postgres) TransitionIssue(ctx context.Context, id int, fn IssueFunc) (*models.IssueReport, error) {
	var issue models.IssueReport
	err := repository.WithTransaction(ctx, p.db(), func(tx *goqu.TxDatabase) error {
		found, err := tx.From(issuesTable).Where(goqu.Ex{"id": id}).ForUpdate(exp.Wait).
			ScanStructContext(ctx, &issue)
		if err != nil {
			return fmt.Errorf("failed to lock issue report: %w", err)
		}
		if !found {
			return ErrNotFound
		}

		if err := fn(&issue); err != nil {
			return err
		}

		if _, err := tx.Update(issuesTable).Set(goqu.Record{
			"status":      string(issue.Status),
			"resolved_at": issue.ResolvedAt,
			"reviewer_id": issue.ReviewerID,
			"response":    issue.Response,
		}).Where(goqu.Ex{"id": id}).Executor().ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to update issue report: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (p *Postgres) CreateNotification(ctx context.Context, n *models.Notification) error {
	row := struct {
		ID        int       `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}{}
	_, err := p.db().Insert(notificationsTable).Rows(goqu.Record{
		"user_id":     n.UserID,
		"role":        string(n.Role),
		"title":       n.Title,
		"description": n.Description,
		"target_url":  n.TargetURL,
	}).Returning("id", "created_at").Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

func (p *Postgres) ListNotifications(ctx context.Context, userID int, role roles.Role) ([]models.Notification, error) {
	list := make([]models.Notification, 0)
	err := p.db().From(notificationsTable).
		Where(goqu.Or(
			goqu.C("user_id").Eq(userID),
			goqu.And(goqu.C("user_id").Eq(0), goqu.C("role").Eq(string(role))),
		)).
		Order(goqu.C("id").Desc()).
		ScanStructsContext(ctx, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IsNotFound also matches sql.ErrNoRows from raw queries.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}

var _ Store = (*Postgres)(nil)
