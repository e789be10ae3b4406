package metadata

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusOpen      Status = "OPEN" // issue reports start here instead of PENDING
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusResolved  Status = "RESOLVED"
	StatusCollected Status = "COLLECTED"
)

// NewStatus parses a status coming from the wire. Case is ignored because
// query strings use the lower case form (?status=pending).
func NewStatus(value string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !status.isValid() {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return status, nil
}

func (s Status) isValid() bool {
	switch s {
	case StatusPending, StatusOpen, StatusApproved, StatusRejected, StatusResolved, StatusCollected:
		return true
	default:
		return false
	}
}

// IsInitial reports whether further review transitions can start from s.
func (s Status) IsInitial() bool {
	return s == StatusPending || s == StatusOpen
}

func (s Status) String() string {
	return string(s)
}
