package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSourceURL(t *testing.T) {
	url, err := SourceURL("migrations")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, "/migrations"))
}

func TestRunMigrationsRequiresURL(t *testing.T) {
	err := RunMigrations("", "migrations", false, zap.NewNop())
	assert.EqualError(t, err, "DATABASE_URL environment variable is not set")
}
