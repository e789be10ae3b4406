package container

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"toolroom/internal/core/config"
	"toolroom/internal/devserver"
	"toolroom/internal/devserver/store"
	"toolroom/internal/filter"
	"toolroom/internal/inventory/additions"
	"toolroom/internal/inventory/requests"
	"toolroom/internal/issues"
	"toolroom/internal/session"
	"toolroom/internal/workflow"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

const password = "pw-12345"

type env struct {
	t     *testing.T
	store *store.Memory
	url   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory(nil)
	srv := devserver.New(config.Server{
		JWTSecret:       "e2e-secret",
		SessionDuration: time.Hour,
		LoginRateLimit:  1000,
		LoginRateWindow: time.Minute,
		DefaultPassword: "changeme",
	}, st, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	e := &env{t: t, store: st, url: ts.URL + "/api"}
	e.user("op", roles.Operator)
	e.user("officer", roles.Officer)
	e.user("sup", roles.Supervisor)
	return e
}

func (e *env) user(username string, role roles.Role) {
	e.t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(e.t, err)
	require.NoError(e.t, e.store.CreateUser(context.Background(), &models.User{
		Username: username, FullName: username, Role: role, PasswordHash: hash,
	}))
}

func (e *env) client(cache session.Cache) *Container {
	e.t.Helper()
	c, err := NewAppContainer(config.Client{APIURL: e.url, Timeout: 5 * time.Second, TimeZone: "UTC"}, nil, cache)
	require.NoError(e.t, err)
	return c
}

func (e *env) loggedIn(username string) *Container {
	e.t.Helper()
	c := e.client(session.NewMemoryCache())
	_, err := c.Auth.Login(context.Background(), username, password)
	require.NoError(e.t, err)
	return c
}

func TestToolRequestScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.CreateTool(ctx, &models.Tool{ID: 7, ToolName: "Torque wrench", Quantity: 5}))

	op := e.loggedIn("op")
	officer := e.loggedIn("officer")

	created, err := op.Requests.Create(ctx, models.CreateToolRequest{ToolID: 7, RequestedQty: 2})
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusPending, created.Status)

	list, err := officer.Requests.ListForReview(ctx, roles.Officer)
	require.NoError(t, err)
	pending, err := requests.Find(list, created.RequestID)
	require.NoError(t, err)

	approved, err := officer.Requests.Review(ctx, *pending, workflow.ActionApprove, "go ahead")
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusApproved, approved.Status)

	// second decision on a terminal request is refused locally
	_, err = officer.Requests.Review(ctx, *approved, workflow.ActionReject, "")
	assert.True(t, custom_error.IsState(err))
	// and by the backend when the local copy is stale
	_, err = officer.Requests.Review(ctx, *pending, workflow.ActionReject, "")
	assert.True(t, custom_error.IsState(err))

	mine, err := op.Requests.ListMine(ctx)
	require.NoError(t, err)
	mineApproved, err := requests.Find(mine, created.RequestID)
	require.NoError(t, err)

	collected, err := op.Requests.Collect(ctx, *mineApproved)
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusCollected, collected.Status)

	tool, err := officer.Tools.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, tool.Quantity)

	used, err := op.Requests.ListUsed(ctx)
	require.NoError(t, err)
	assert.Len(t, used, 1)
}

func TestWrongRoleLeavesEntityUnchanged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.CreateTool(ctx, &models.Tool{ToolName: "Drill", Quantity: 2}))
	op := e.loggedIn("op")
	sup := e.loggedIn("sup")

	req, err := op.Requests.Create(ctx, models.CreateToolRequest{ToolID: 1, RequestedQty: 1})
	require.NoError(t, err)
	_, err = op.Requests.Review(ctx, *req, workflow.ActionApprove, "")
	assert.True(t, custom_error.IsAuthorization(err))

	addition, err := sup.Additions.Create(ctx, models.CreateToolAddition{ToolName: "Caliper", Quantity: 3})
	require.NoError(t, err)
	_, err = sup.Additions.Review(ctx, *addition, workflow.ActionApprove, "")
	assert.True(t, custom_error.IsAuthorization(err))

	issue, err := op.Issues.Create(ctx, models.CreateIssueReport{ToolID: 1, Description: "wobbles"})
	require.NoError(t, err)
	_, err = op.Issues.Review(ctx, *issue, workflow.ActionReject, "")
	assert.True(t, custom_error.IsAuthorization(err))

	reqs, _ := e.store.ListToolRequests(ctx, store.ToolRequestFilter{})
	assert.Equal(t, metadata.StatusPending, reqs[0].Status)
	adds, _ := e.store.ListToolAdditions(ctx, store.AdditionFilter{})
	assert.Equal(t, metadata.StatusPending, adds[0].Status)
	iss, _ := e.store.ListIssues(ctx, store.IssueFilter{})
	assert.Equal(t, metadata.StatusOpen, iss[0].Status)
}

func TestToolAdditionScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sup := e.loggedIn("sup")
	officer := e.loggedIn("officer")

	_, err := sup.Additions.Create(ctx, models.CreateToolAddition{ToolName: "Caliper", Quantity: 3})
	require.NoError(t, err)

	pending, err := sup.Additions.ListMine(ctx, metadata.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Caliper", pending[0].ToolName)
	assert.Equal(t, 3, pending[0].Quantity)

	review, err := officer.Additions.ListForReview(ctx, "")
	require.NoError(t, err)
	target, err := additions.Find(review, pending[0].ID)
	require.NoError(t, err)
	_, err = officer.Additions.Review(ctx, *target, workflow.ActionApprove, "")
	require.NoError(t, err)

	inventory, err := officer.Tools.List(ctx)
	require.NoError(t, err)
	found := filter.Apply(inventory, filter.Query{Text: "caliper"}, filter.Tools, time.UTC)
	require.Len(t, found, 1)
	assert.Equal(t, 3, found[0].Quantity)

	notes, err := sup.Notifications.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, notes)
}

func TestIssueRejectScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.CreateTool(ctx, &models.Tool{ToolName: "Drill", Quantity: 1}))
	op := e.loggedIn("op")
	officer := e.loggedIn("officer")

	_, err := op.Issues.Create(ctx, models.CreateIssueReport{ToolID: 1, Description: "chuck slips"})
	require.NoError(t, err)

	open, err := officer.Issues.ListForReview(ctx)
	require.NoError(t, err)
	target, err := issues.Find(open, open[0].ID)
	require.NoError(t, err)

	rejected, err := officer.Issues.Review(ctx, *target, workflow.ActionReject, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, metadata.StatusRejected, rejected.Status)
	assert.Equal(t, "duplicate", rejected.Response)
	assert.NotNil(t, rejected.ResolvedAt)

	_, err = officer.Issues.Review(ctx, *rejected, workflow.ActionReject, "again")
	assert.True(t, custom_error.IsState(err))
	_, err = officer.Issues.Review(ctx, *target, workflow.ActionReject, "again")
	assert.True(t, custom_error.IsState(err))
}

func TestLogoutForcesReauthentication(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	op := e.loggedIn("op")

	_, err := op.Tools.List(ctx)
	require.NoError(t, err)

	require.NoError(t, op.Auth.Logout(ctx))
	assert.False(t, op.Session.IsAuthenticated())

	_, err = op.Tools.List(ctx)
	assert.True(t, custom_error.IsAuthorization(err))
	assert.ErrorIs(t, err, custom_error.ErrNotAuthenticated)
}

func TestRejectedSessionIsInvalidated(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	op := e.loggedIn("op")
	token, _ := op.Session.Token()

	// a second process using the same session logs out
	other := e.client(session.NewMemoryCache())
	require.NoError(t, other.Session.Login(roles.Operator, token, 1, "op"))
	require.NoError(t, other.Auth.Logout(ctx))

	_, err := op.Tools.List(ctx)
	assert.True(t, custom_error.IsAuthorization(err))
	assert.False(t, op.Session.IsAuthenticated())
}

func TestSessionSurvivesRestart(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cache := session.NewFileCache(filepath.Join(t.TempDir(), "session.json"))

	first := e.client(cache)
	_, err := first.Auth.Login(ctx, "officer", password)
	require.NoError(t, err)

	second := e.client(cache)
	role, ok := second.Session.CurrentRole()
	require.True(t, ok)
	assert.Equal(t, roles.Officer, role)
	_, err = second.Users.List(ctx)
	assert.NoError(t, err)
}

func TestRoleLockSurfacesAsStateError(t *testing.T) {
	e := newEnv(t)
	e.user("officer2", roles.Officer)
	e.loggedIn("officer")

	c := e.client(session.NewMemoryCache())
	_, err := c.Auth.Login(context.Background(), "officer2", password)
	require.Error(t, err)
	assert.True(t, custom_error.IsState(err))
	assert.Contains(t, err.Error(), "Role currently in use by another user")
	assert.False(t, c.Session.IsAuthenticated())
}

func TestConcurrentSubmissionIsGuarded(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.CreateTool(ctx, &models.Tool{ToolName: "Drill", Quantity: 5}))
	op := e.loggedIn("op")
	officer := e.loggedIn("officer")

	req, err := op.Requests.Create(ctx, models.CreateToolRequest{ToolID: 1, RequestedQty: 1})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = officer.Requests.Review(ctx, *req, workflow.ActionApprove, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, custom_error.IsState(err), err)
	}
	assert.Equal(t, 1, succeeded)
}
