package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolroom/internal/gateway/gatewaytest"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

func TestSessionLogsQuery(t *testing.T) {
	tests := []struct {
		name  string
		query SessionQuery
		path  string
	}{
		{"no filter", SessionQuery{}, "/officer/session-logs"},
		{"role and status", SessionQuery{Role: roles.Operator, Status: metadata.SessionEnded}, "/officer/session-logs?role=OPERATOR&status=ended"},
		{"username trimmed", SessionQuery{Username: " ravi "}, "/officer/session-logs?username=ravi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(gatewaytest.MockCaller)
			api.Respond("GET", tt.path, nil, []models.SessionLog{{Username: "ravi"}})

			list, err := NewRepository(api).SessionLogs(context.Background(), tt.query)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "ravi", list[0].Username)
			api.AssertExpectations(t)
		})
	}
}

func TestActiveSessions(t *testing.T) {
	api := new(gatewaytest.MockCaller)
	rec := models.SessionLog{SessionRecord: models.SessionRecord{SessionID: "s1", Role: roles.Officer}, Status: metadata.SessionActive}
	api.Respond("GET", "/officer/active-sessions", nil, []models.SessionLog{rec})

	list, err := NewRepository(api).ActiveSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0].SessionID)
	assert.Equal(t, metadata.SessionActive, list[0].Status)
}

func TestApprovedUsage(t *testing.T) {
	api := new(gatewaytest.MockCaller)
	api.Fail("GET", "/supervisor/logs/approved-usage", nil, errors.New("boom"))

	_, err := NewRepository(api).ApprovedUsage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list approved usage")
}
