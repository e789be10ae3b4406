package models

import (
	"time"

	"toolroom/pkg/metadata"
	"toolroom/pkg/roles"
)

// Session is what the client keeps about the logged in actor.
type Session struct {
	SessionID string     `json:"session_id"`
	Role      roles.Role `json:"role"`
	UserID    int        `json:"user_id"`
	FullName  string     `json:"full_name"`
}

// SessionRecord is the backend side of a session.
type SessionRecord struct {
	SessionID   string             `json:"session_id" db:"session_id"`
	UserID      int                `json:"user_id" db:"user_id"`
	Role        roles.Role         `json:"role" db:"role"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	ExpiresAt   time.Time          `json:"expires_at" db:"expires_at"`
	LogoutAt    *time.Time         `json:"logout_at,omitempty" db:"logout_at"`
	EndedReason metadata.EndReason `json:"ended_reason,omitempty" db:"ended_reason"`
	IPAddress   string             `json:"ip_address,omitempty" db:"ip_address"`
}

// Active reports whether the session can still authorize calls at now.
func (s SessionRecord) Active(now time.Time) bool {
	return s.LogoutAt == nil && now.Before(s.ExpiresAt)
}

func (s SessionRecord) State(now time.Time) metadata.SessionState {
	if s.Active(now) {
		return metadata.SessionActive
	}
	return metadata.SessionEnded
}

// EndReasonAt is the stored end reason. A session that ran out without
// being closed reads as expired, an active one has no reason.
func (s SessionRecord) EndReasonAt(now time.Time) metadata.EndReason {
	switch {
	case s.EndedReason != "":
		return s.EndedReason
	case s.Active(now):
		return ""
	default:
		return metadata.EndExpired
	}
}

// SessionLog is a session joined with the account that opened it.
type SessionLog struct {
	SessionRecord
	Username string                `json:"username" db:"username"`
	FullName string                `json:"full_name" db:"full_name"`
	Status   metadata.SessionState `json:"status" db:"-"`
}

// ApprovedUsage is an approved tool request with the names of the operator
// and the reviewer resolved.
type ApprovedUsage struct {
	RequestID        string          `json:"request_id" db:"request_id"`
	ToolName         string          `json:"tool_name" db:"tool_name"`
	Quantity         int             `json:"quantity" db:"quantity"`
	OperatorID       int             `json:"operator_id" db:"operator_id"`
	OperatorUsername string          `json:"operator_username" db:"operator_username"`
	ReviewerID       *int            `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewerName     string          `json:"reviewer_name,omitempty" db:"reviewer_name"`
	Status           metadata.Status `json:"status" db:"status"`
	RequestedAt      time.Time       `json:"requested_at" db:"requested_at"`
	ApprovedAt       *time.Time      `json:"approved_at,omitempty" db:"approved_at"`
}
