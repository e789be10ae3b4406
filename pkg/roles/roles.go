package roles

import "fmt"

// Role identifies what an authenticated actor is allowed to do.
type Role string

const (
	Officer    Role = "OFFICER"
	Operator   Role = "OPERATOR"
	Supervisor Role = "SUPERVISOR"
)

// All returns every known role in a fixed order.
func All() []Role {
	return []Role{Officer, Operator, Supervisor}
}

// Parse accepts the wire form of a role and rejects anything outside the closed set.
func Parse(value string) (Role, error) {
	role := Role(value)
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role: %q", value)
	}
	return role, nil
}

// IsValid reports whether the role belongs to the closed role set.
func (r Role) IsValid() bool {
	switch r {
	case Officer, Operator, Supervisor:
		return true
	default:
		return false
	}
}

// OneOf reports whether r is any of the given roles.
func (r Role) OneOf(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}
