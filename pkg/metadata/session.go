package metadata

import (
	"fmt"
	"strings"
)

// SessionState is how the session logs group sessions.
type SessionState string

const (
	SessionActive SessionState = "ACTIVE"
	SessionEnded  SessionState = "ENDED"
)

func NewSessionState(value string) (SessionState, error) {
	state := SessionState(strings.ToUpper(strings.TrimSpace(value)))
	switch state {
	case SessionActive, SessionEnded:
		return state, nil
	default:
		return "", fmt.Errorf("invalid session state: %s", value)
	}
}

func (s SessionState) String() string {
	return string(s)
}

// EndReason records why a session stopped authorizing calls.
type EndReason string

const (
	EndLogout  EndReason = "LOGOUT"
	EndExpired EndReason = "EXPIRED"
)

func (r EndReason) String() string {
	return string(r)
}
