package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"toolroom/internal/core/config"
	"toolroom/internal/devserver"
	"toolroom/internal/devserver/store"
	"toolroom/internal/menu"
	"toolroom/internal/session"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

const password = "pw-12345"

type cliEnv struct {
	t     *testing.T
	store *store.Memory
	url   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("TOOLROOM_TIMEZONE", "UTC")

	st := store.NewMemory(nil)
	srv := devserver.New(config.Server{
		JWTSecret:       "cli-secret",
		SessionDuration: time.Hour,
		LoginRateLimit:  1000,
		LoginRateWindow: time.Minute,
		DefaultPassword: "changeme",
	}, st, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	e := &cliEnv{t: t, store: st, url: ts.URL + "/api"}
	for _, u := range []struct {
		name string
		role roles.Role
	}{{"op", roles.Operator}, {"officer", roles.Officer}, {"sup", roles.Supervisor}} {
		hash, err := security.HashPassword(password)
		require.NoError(t, err)
		require.NoError(t, st.CreateUser(context.Background(), &models.User{
			Username: u.name, FullName: u.name, Role: u.role, PasswordHash: hash,
		}))
	}
	return e
}

func (e *cliEnv) exec(cache session.Cache, args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(""), &out, &errOut)
	a.cache = cache
	a.store = e.store

	rootCmd := NewRootCmd(a)
	rootCmd.SetArgs(append([]string{"--api-url", e.url}, args...))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func (e *cliEnv) login(username string) session.Cache {
	e.t.Helper()
	cache := session.NewMemoryCache()
	_, err := e.exec(cache, "login", "-u", username, "-p", password)
	require.NoError(e.t, err)
	return cache
}

func TestMenuEntriesResolveToCommands(t *testing.T) {
	rootCmd := NewRootCmd(newApp(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{}))

	for _, role := range roles.All() {
		for _, item := range menu.For(role) {
			found, _, err := rootCmd.Find(strings.Fields(item.Command))
			require.NoError(t, err, item.Command)
			assert.Equal(t, "toolroom "+item.Command, found.CommandPath())
			assert.Equal(t, item.Command, found.Annotations[menuAnnotation], item.Command)
		}
	}

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		if entry, ok := c.Annotations[menuAnnotation]; ok {
			assert.True(t, menu.Gated(entry), "%s points at unknown menu entry %q", c.CommandPath(), entry)
		}
		for _, child := range c.Commands() {
			walk(child)
		}
	}
	walk(rootCmd)
}

func TestLoginPrintsMenu(t *testing.T) {
	e := newCLIEnv(t)

	out, err := e.exec(session.NewMemoryCache(), "login", "-u", "sup", "-p", password)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as sup (SUPERVISOR)")
	assert.Contains(t, out, "Request Tool Addition")
	assert.NotContains(t, out, "Manage Users")
}

func TestToolRequestFlow(t *testing.T) {
	e := newCLIEnv(t)
	ctx := context.Background()
	require.NoError(t, e.store.CreateTool(ctx, &models.Tool{ToolName: "Torque wrench", Quantity: 5}))
	require.NoError(t, e.store.CreateTool(ctx, &models.Tool{ToolName: "Empty rack", Quantity: 0}))

	op := e.login("op")
	officer := e.login("officer")

	out, err := e.exec(op, "tools", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Torque wrench")
	assert.NotContains(t, out, "Empty rack")

	out, err = e.exec(op, "requests", "create", "--tool", "1", "--qty", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "TR00001")

	_, err = e.exec(op, "requests", "create", "--tool", "1", "--qty", "9")
	assert.True(t, custom_error.IsValidation(err), err)

	out, err = e.exec(officer, "requests", "review", "--search", "torque")
	require.NoError(t, err)
	assert.Contains(t, out, "TR00001")

	out, err = e.exec(officer, "requests", "approve", "TR00001", "--remarks", "ok")
	require.NoError(t, err)
	assert.Contains(t, out, "APPROVED")

	out, err = e.exec(op, "requests", "collect", "TR00001")
	require.NoError(t, err)
	assert.Contains(t, out, "Collected 2 x Torque wrench")

	tool, err := e.store.GetTool(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, tool.Quantity)

	out, err = e.exec(op, "requests", "used")
	require.NoError(t, err)
	assert.Contains(t, out, metadata.StatusCollected.String())
}

func TestAdditionAndIssueCommands(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, e.store.CreateTool(context.Background(), &models.Tool{ToolName: "Drill", Quantity: 1}))
	sup := e.login("sup")
	officer := e.login("officer")
	op := e.login("op")

	_, err := e.exec(sup, "additions", "create", "--name", "Caliper", "--qty", "3")
	require.NoError(t, err)
	out, err := e.exec(sup, "additions", "list", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "Caliper")

	_, err = e.exec(sup, "additions", "list", "--status", "lost")
	assert.Error(t, err)

	out, err = e.exec(officer, "additions", "reject", "1", "--reason", "budget")
	require.NoError(t, err)
	assert.Contains(t, out, "REJECTED")

	_, err = e.exec(op, "issues", "create", "--tool", "1", "--description", "chuck slips")
	require.NoError(t, err)
	out, err = e.exec(officer, "issues", "approve", "1", "--response", "replaced")
	require.NoError(t, err)
	assert.Contains(t, out, "Issue 1 is now APPROVED")

	out, err = e.exec(op, "notifications", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "replaced")
}

func TestCommandOutsideMenuIsRefused(t *testing.T) {
	e := newCLIEnv(t)
	op := e.login("op")

	_, err := e.exec(op, "users", "list")
	require.Error(t, err)
	assert.True(t, custom_error.IsAuthorization(err))

	_, err = e.exec(op, "requests", "approve", "TR00001")
	assert.True(t, custom_error.IsAuthorization(err))
}

func TestGatedCommandNeedsSession(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.exec(session.NewMemoryCache(), "tools", "list")
	assert.ErrorIs(t, err, custom_error.ErrNotAuthenticated)
}

func TestUserCommands(t *testing.T) {
	e := newCLIEnv(t)
	officer := e.login("officer")

	out, err := e.exec(officer, "users", "create", "--username", "op2", "--full-name", "Second Operator",
		"--contact", "9876543210", "--role", "operator")
	require.NoError(t, err)
	assert.Contains(t, out, "User op2 created")

	_, err = e.exec(officer, "users", "create", "--username", "op3", "--full-name", "X", "--contact", "123", "--role", "operator")
	assert.True(t, custom_error.IsValidation(err))

	_, err = e.exec(session.NewMemoryCache(), "login", "-u", "op2", "-p", "changeme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reset-password --username op2")

	_, err = e.exec(session.NewMemoryCache(), "reset-password", "-u", "op2", "--old-password", "changeme", "--new-password", "fresh-pass")
	require.NoError(t, err)
	out, err = e.exec(session.NewMemoryCache(), "login", "-u", "op2", "-p", "fresh-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Second Operator")
}

func TestLogoutEndsSession(t *testing.T) {
	e := newCLIEnv(t)
	op := e.login("op")

	out, err := e.exec(op, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "op (user 1, OPERATOR)")

	_, err = e.exec(op, "logout")
	require.NoError(t, err)
	_, err = e.exec(op, "whoami")
	assert.ErrorIs(t, err, custom_error.ErrNotAuthenticated)
}

func TestRunReportsErrorsOnStderr(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("TOOLROOM_SESSION_FILE", filepath.Join(t.TempDir(), "session.json"))

	var out, errOut bytes.Buffer
	code := run(context.Background(), []string{"--api-url", e.url, "tools", "list"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())
	assert.True(t, strings.HasPrefix(errOut.String(), "Error: "))
	assert.Equal(t, 1, strings.Count(errOut.String(), "\n"))
}

func TestSessionAuditCommands(t *testing.T) {
	e := newCLIEnv(t)
	require.NoError(t, e.store.CreateTool(context.Background(), &models.Tool{ToolName: "Torque wrench", Quantity: 5}))
	op := e.login("op")
	officer := e.login("officer")
	sup := e.login("sup")

	_, err := e.exec(op, "requests", "create", "--tool", "1", "--qty", "1")
	require.NoError(t, err)
	_, err = e.exec(officer, "requests", "approve", "TR00001")
	require.NoError(t, err)

	out, err := e.exec(officer, "sessions", "list", "--role", "operator")
	require.NoError(t, err)
	assert.Contains(t, out, "OPERATOR")
	assert.Contains(t, out, metadata.SessionActive.String())
	assert.NotContains(t, out, "SUPERVISOR")

	_, err = e.exec(sup, "logout")
	require.NoError(t, err)
	out, err = e.exec(officer, "sessions", "list", "--status", "ended")
	require.NoError(t, err)
	assert.Contains(t, out, "sup")
	assert.Contains(t, out, metadata.EndLogout.String())

	_, err = e.exec(officer, "sessions", "list", "--status", "lost")
	assert.True(t, custom_error.IsValidation(err), err)

	out, err = e.exec(officer, "sessions", "active")
	require.NoError(t, err)
	assert.Contains(t, out, "officer")
	assert.NotContains(t, out, "SUPERVISOR")

	_, err = e.exec(op, "sessions", "list")
	assert.True(t, custom_error.IsAuthorization(err), err)

	sup = e.login("sup")
	out, err = e.exec(sup, "requests", "approved")
	require.NoError(t, err)
	assert.Contains(t, out, "TR00001")
	assert.Contains(t, out, "Torque wrench")

	_, err = e.exec(officer, "requests", "approved")
	assert.True(t, custom_error.IsAuthorization(err), err)
}

func TestToolImportAndSeed(t *testing.T) {
	e := newCLIEnv(t)
	dir := t.TempDir()
	csvFile := filepath.Join(dir, "tools.csv")
	require.NoError(t, os.WriteFile(csvFile, []byte("tool_name,quantity,location\nBore Gauge,2,Rack C\nMicrometer,1,Rack D\n"), 0o600))
	textFile := filepath.Join(dir, "tools.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("1\tSurface Plate\t600x400\tSP-1\tSteelco\t1\tBay 2\n"), 0o600))

	out, err := e.exec(session.NewMemoryCache(), "tools", "import", csvFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 tools, skipped 0")

	out, err = e.exec(session.NewMemoryCache(), "tools", "import", "--format", "text", textFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 tools")

	out, err = e.exec(session.NewMemoryCache(), "tools", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 3 tools, skipped 1")

	_, err = e.exec(session.NewMemoryCache(), "tools", "import", "--format", "xlsx", csvFile)
	assert.True(t, custom_error.IsValidation(err), err)

	list, err := e.store.ListTools(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, list, 6)
}
