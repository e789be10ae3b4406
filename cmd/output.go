package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"toolroom/internal/menu"
	"toolroom/pkg/models"
)

const timeLayout = "2006-01-02 15:04"

type table struct {
	w *tabwriter.Writer
}

func newTable(out io.Writer, headers ...string) *table {
	t := &table{w: tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cells ...string) {
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *table) flush() error {
	return t.w.Flush()
}

func formatTime(ts time.Time, loc *time.Location) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.In(loc).Format(timeLayout)
}

func formatOptionalTime(ts *time.Time, loc *time.Location) string {
	if ts == nil {
		return "-"
	}
	return formatTime(*ts, loc)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printTools(out io.Writer, list []models.Tool, loc *time.Location) error {
	t := newTable(out, "ID", "NAME", "QTY", "CATEGORY", "LOCATION", "CODE", "MAKE", "ADDED")
	for _, tool := range list {
		t.row(strconv.Itoa(tool.ID), tool.ToolName, strconv.Itoa(tool.Quantity), orDash(tool.Category),
			orDash(tool.Location), orDash(tool.IdentificationCode), orDash(tool.Make), formatTime(tool.AddedAt, loc))
	}
	return t.flush()
}

func printToolRequests(out io.Writer, list []models.ToolRequest, loc *time.Location) error {
	t := newTable(out, "REQUEST", "TOOL", "QTY", "OPERATOR", "STATUS", "REQUESTED", "PROCESSED", "REMARKS")
	for _, r := range list {
		t.row(r.RequestID, fmt.Sprintf("%s (#%d)", r.ToolName, r.ToolID), strconv.Itoa(r.RequestedQty),
			strconv.Itoa(r.OperatorID), r.Status.String(), formatTime(r.RequestedAt, loc),
			formatOptionalTime(r.ProcessedAt, loc), orDash(r.Remarks))
	}
	return t.flush()
}

func printToolAdditions(out io.Writer, list []models.ToolAdditionRequest, loc *time.Location) error {
	t := newTable(out, "ID", "NAME", "QTY", "REQUESTED BY", "STATUS", "CREATED", "REASON")
	for _, a := range list {
		t.row(strconv.Itoa(a.ID), a.ToolName, strconv.Itoa(a.Quantity), strconv.Itoa(a.RequestedBy),
			a.Status.String(), formatTime(a.CreatedAt, loc), orDash(a.RejectionReason))
	}
	return t.flush()
}

func printIssues(out io.Writer, list []models.IssueReport, loc *time.Location) error {
	t := newTable(out, "ID", "TOOL", "OPERATOR", "STATUS", "CREATED", "RESOLVED", "DESCRIPTION", "RESPONSE")
	for _, i := range list {
		t.row(strconv.Itoa(i.ID), strconv.Itoa(i.ToolID), strconv.Itoa(i.OperatorID), i.Status.String(),
			formatTime(i.CreatedAt, loc), formatOptionalTime(i.ResolvedAt, loc), i.Description, orDash(i.Response))
	}
	return t.flush()
}

func printUsers(out io.Writer, list []models.User, loc *time.Location) error {
	t := newTable(out, "ID", "USERNAME", "NAME", "ROLE", "CONTACT", "CREATED")
	for _, u := range list {
		t.row(strconv.Itoa(u.ID), u.Username, u.FullName, u.Role.String(), orDash(u.ContactNumber), formatTime(u.CreatedAt, loc))
	}
	return t.flush()
}

func printNotifications(out io.Writer, list []models.Notification, loc *time.Location) error {
	t := newTable(out, "CREATED", "TITLE", "DESCRIPTION", "LINK")
	for _, n := range list {
		t.row(formatTime(n.CreatedAt, loc), n.Title, n.Description, orDash(n.TargetURL))
	}
	return t.flush()
}

func printMenu(out io.Writer, items []menu.Item) error {
	t := newTable(out, "ENTRY", "COMMAND")
	for _, item := range items {
		t.row(item.Label, "toolroom "+item.Command)
	}
	return t.flush()
}

func printSessionLogs(out io.Writer, list []models.SessionLog, loc *time.Location) error {
	t := newTable(out, "USERNAME", "NAME", "ROLE", "STATUS", "LOGIN", "EXPIRES", "LOGOUT", "ENDED", "IP")
	for _, l := range list {
		t.row(l.Username, l.FullName, l.Role.String(), l.Status.String(), formatTime(l.CreatedAt, loc),
			formatTime(l.ExpiresAt, loc), formatOptionalTime(l.LogoutAt, loc), orDash(l.EndedReason.String()), orDash(l.IPAddress))
	}
	return t.flush()
}

func printApprovedUsage(out io.Writer, list []models.ApprovedUsage, loc *time.Location) error {
	t := newTable(out, "REQUEST", "TOOL", "QTY", "OPERATOR", "APPROVED BY", "STATUS", "REQUESTED", "APPROVED")
	for _, u := range list {
		t.row(u.RequestID, u.ToolName, strconv.Itoa(u.Quantity), u.OperatorUsername, orDash(u.ReviewerName),
			u.Status.String(), formatTime(u.RequestedAt, loc), formatOptionalTime(u.ApprovedAt, loc))
	}
	return t.flush()
}
