package models

import (
	"strings"
	"time"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
)

type IssueReport struct {
	ID          int             `json:"id" db:"id"`
	ToolID      int             `json:"tool_id" db:"tool_id"`
	OperatorID  int             `json:"operator_id" db:"operator_id"`
	Description string          `json:"description" db:"description"`
	Status      metadata.Status `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	ReviewerID  *int            `json:"reviewer_id,omitempty" db:"reviewer_id"`
	Response    string          `json:"response,omitempty" db:"response"`
}

type CreateIssueReport struct {
	ToolID      int    `json:"tool_id"`
	Description string `json:"description"`
}

func (r CreateIssueReport) Validate() error {
	if r.ToolID <= 0 {
		return custom_error.NewValidationError("tool_id", "please select a tool")
	}
	if strings.TrimSpace(r.Description) == "" {
		return custom_error.NewValidationError("description", "is required")
	}
	return nil
}
