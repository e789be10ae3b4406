package filter

import (
	"strconv"
	"time"

	"toolroom/pkg/models"
)

var Tools = Fields[models.Tool]{
	Text: func(t models.Tool) []string {
		return []string{strconv.Itoa(t.ID), t.ToolName, t.Make, t.Location, t.IdentificationCode, t.Gauge, t.Category}
	},
	Date: func(t models.Tool) (time.Time, bool) {
		return t.AddedAt, !t.AddedAt.IsZero()
	},
}

var ToolRequests = Fields[models.ToolRequest]{
	Text: func(r models.ToolRequest) []string {
		return []string{r.RequestID, r.ToolName, strconv.Itoa(r.ToolID), strconv.Itoa(r.OperatorID), r.Status.String()}
	},
	Date: func(r models.ToolRequest) (time.Time, bool) {
		return r.RequestedAt, !r.RequestedAt.IsZero()
	},
}

var ToolAdditions = Fields[models.ToolAdditionRequest]{
	Text: func(a models.ToolAdditionRequest) []string {
		return []string{strconv.Itoa(a.ID), a.ToolName, a.Description, a.Status.String()}
	},
	Date: func(a models.ToolAdditionRequest) (time.Time, bool) {
		return a.CreatedAt, !a.CreatedAt.IsZero()
	},
}

var IssueReports = Fields[models.IssueReport]{
	Text: func(i models.IssueReport) []string {
		return []string{strconv.Itoa(i.ID), strconv.Itoa(i.ToolID), strconv.Itoa(i.OperatorID), i.Description, i.Status.String()}
	},
	Date: func(i models.IssueReport) (time.Time, bool) {
		return i.CreatedAt, !i.CreatedAt.IsZero()
	},
}

var Users = Fields[models.User]{
	Text: func(u models.User) []string {
		return []string{u.Username, u.FullName, u.Role.String(), u.ContactNumber}
	},
	Date: func(u models.User) (time.Time, bool) {
		return u.CreatedAt, !u.CreatedAt.IsZero()
	},
}

var Notifications = Fields[models.Notification]{
	Text: func(n models.Notification) []string {
		return []string{n.Title, n.Description}
	},
	Date: func(n models.Notification) (time.Time, bool) {
		return n.CreatedAt, !n.CreatedAt.IsZero()
	},
}

var SessionLogs = Fields[models.SessionLog]{
	Text: func(l models.SessionLog) []string {
		return []string{l.SessionID, l.Username, l.FullName, l.Role.String(), l.Status.String(), l.EndedReason.String(), l.IPAddress}
	},
	Date: func(l models.SessionLog) (time.Time, bool) {
		return l.CreatedAt, !l.CreatedAt.IsZero()
	},
}

var ApprovedUsage = Fields[models.ApprovedUsage]{
	Text: func(u models.ApprovedUsage) []string {
		return []string{u.RequestID, u.ToolName, u.OperatorUsername, u.ReviewerName, u.Status.String()}
	},
	Date: func(u models.ApprovedUsage) (time.Time, bool) {
		if u.ApprovedAt == nil {
			return time.Time{}, false
		}
		return *u.ApprovedAt, true
	},
}
