package models

import (
	"strings"
	"time"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
)

type ToolAdditionRequest struct {
	ID              int             `json:"id" db:"id"`
	ToolName        string          `json:"tool_name" db:"tool_name"`
	Quantity        int             `json:"quantity" db:"quantity"`
	Description     string          `json:"description,omitempty" db:"description"`
	Status          metadata.Status `json:"status" db:"status"`
	RequestedBy     int             `json:"requested_by" db:"requested_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	ReviewerID      *int            `json:"reviewer_id,omitempty" db:"reviewer_id"`
	RejectionReason string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
}

type CreateToolAddition struct {
	ToolName    string `json:"tool_name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

func (r CreateToolAddition) Validate() error {
	if strings.TrimSpace(r.ToolName) == "" {
		return custom_error.NewValidationError("tool_name", "is required")
	}
	if r.Quantity <= 0 {
		return custom_error.NewValidationError("quantity", "must be a positive number")
	}
	return nil
}
