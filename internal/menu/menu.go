package menu

import (
	"toolroom/pkg/roles"
)

// Item is one navigation entry. Command is the CLI path that opens it.
type Item struct {
	Label   string
	Target  string
	Command string
}

var dashboard = Item{Label: "Dashboard", Target: "/dashboard", Command: "whoami"}
var notifications = Item{Label: "Notifications", Target: "/notifications", Command: "notifications list"}

var byRole = map[roles.Role][]Item{
	roles.Officer: {
		dashboard,
		{Label: "View Tool Requests", Target: "/officer/tool-requests", Command: "requests review"},
		{Label: "Manage Users", Target: "/officer/users", Command: "users list"},
		{Label: "Tool Addition Requests", Target: "/officer/tool-additions", Command: "additions review"},
		{Label: "Issue Reports", Target: "/officer/tool-issues", Command: "issues review"},
		{Label: "Inventory", Target: "/officer/inventory", Command: "tools list"},
		{Label: "Session Logs", Target: "/officer/session-logs", Command: "sessions list"},
		notifications,
	},
	roles.Operator: {
		dashboard,
		{Label: "Available Tools", Target: "/operator/tools", Command: "tools list"},
		{Label: "Request Tool", Target: "/operator/request-tool", Command: "requests create"},
		{Label: "My Tool Requests", Target: "/operator/tool-requests", Command: "requests list"},
		{Label: "Used Tools", Target: "/operator/used-tools", Command: "requests used"},
		{Label: "Report Issue", Target: "/operator/report-issue", Command: "issues create"},
		{Label: "My Reported Issues", Target: "/operator/tool-issues", Command: "issues list"},
		notifications,
	},
	roles.Supervisor: {
		dashboard,
		{Label: "View Tool Requests", Target: "/supervisor/tool-requests", Command: "requests review"},
		{Label: "Tool Addition Requests", Target: "/supervisor/tool-addition-requests", Command: "additions list"},
		{Label: "Request Tool Addition", Target: "/supervisor/request-tool-addition", Command: "additions create"},
		{Label: "Approved Usage", Target: "/supervisor/logs/approved-usage", Command: "requests approved"},
		notifications,
	},
}

// For returns the menu of role. Unauthenticated callers pass the empty role
// and get nothing.
func For(role roles.Role) []Item {
	items := byRole[role]
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// Allowed reports whether command is reachable from the menu of role.
// Commands outside every menu (login, logout) are not gated here.
func Allowed(role roles.Role, command string) bool {
	for _, item := range byRole[role] {
		if item.Command == command {
			return true
		}
	}
	return false
}

// Gated reports whether command is on any role's menu.
func Gated(command string) bool {
	for _, items := range byRole {
		for _, item := range items {
			if item.Command == command {
				return true
			}
		}
	}
	return false
}
