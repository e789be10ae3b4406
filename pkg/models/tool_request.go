package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
)

// ToolRequest is an operator asking to use a quantity of an inventory tool.
type ToolRequest struct {
	RequestID    string          `json:"request_id" db:"request_id"`
	ToolID       int             `json:"tool_id" db:"tool_id"`
	ToolName     string          `json:"tool_name" db:"tool_name"`
	OperatorID   int             `json:"operator_id" db:"operator_id"`
	RequestedQty int             `json:"requested_qty" db:"requested_qty"`
	Status       metadata.Status `json:"status" db:"status"`
	RequestedAt  time.Time       `json:"requested_at" db:"requested_at"`
	ProcessedAt  *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	CollectedAt  *time.Time      `json:"collected_at,omitempty" db:"collected_at"`
	ReviewerID   *int            `json:"reviewer_id,omitempty" db:"reviewer_id"`
	Remarks      string          `json:"remarks,omitempty" db:"remarks"`
}

type CreateToolRequest struct {
	ToolID       int `json:"tool_id"`
	RequestedQty int `json:"requested_qty"`
}

func (r CreateToolRequest) Validate() error {
	if r.ToolID <= 0 {
		return custom_error.NewValidationError("tool_id", "please select a tool")
	}
	if r.RequestedQty <= 0 {
		return custom_error.NewValidationError("requested_qty", "must be a positive number")
	}
	return nil
}

// ValidateAvailable applies the quantity shown in the inventory as an upper bound hint.
func (r CreateToolRequest) ValidateAvailable(available int) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.RequestedQty > available {
		return custom_error.NewValidationError("requested_qty", fmt.Sprintf("exceeds available quantity (%d)", available))
	}
	return nil
}

// FormatRequestID renders the sequential public identifier of a tool request.
func FormatRequestID(seq int) string {
	return fmt.Sprintf("TR%05d", seq)
}

// RequestSeq reverses FormatRequestID. Ids it did not produce yield 0.
func RequestSeq(id string) int {
	seq, err := strconv.Atoi(strings.TrimPrefix(id, "TR"))
	if err != nil {
		return 0
	}
	return seq
}

// ReviewPayload carries the optional comment of an approve or reject call.
// Each request kind reads its own field.
type ReviewPayload struct {
	Remarks  string `json:"remarks,omitempty"`
	Response string `json:"response,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
