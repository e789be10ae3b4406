package workflow

import (
	"strconv"
	"time"

	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// Subject adapts an entity to the workflow.
type Subject interface {
	Kind() Kind
	Key() string
	Status() metadata.Status
	apply(next metadata.Status, action Action, actor Actor, comment string, now time.Time)
}

type Actor struct {
	Role   roles.Role
	UserID int
}

// Apply validates the transition and mutates the entity. The entity is left
// untouched when the transition is refused.
func Apply(s Subject, action Action, actor Actor, comment string, now time.Time) error {
	rule, err := RuleFor(s.Kind())
	if err != nil {
		return err
	}
	next, err := rule.Next(action, actor.Role, s.Status())
	if err != nil {
		return err
	}
	s.apply(next, action, actor, comment, now)
	return nil
}

type toolRequestSubject struct {
	req *models.ToolRequest
}

func ToolRequest(req *models.ToolRequest) Subject {
	return toolRequestSubject{req: req}
}

func (s toolRequestSubject) Kind() Kind              { return KindToolRequest }
func (s toolRequestSubject) Key() string             { return s.req.RequestID }
func (s toolRequestSubject) Status() metadata.Status { return s.req.Status }

func (s toolRequestSubject) apply(next metadata.Status, action Action, actor Actor, comment string, now time.Time) {
	s.req.Status = next
	if action == ActionCollect {
		s.req.CollectedAt = &now
		return
	}
	reviewer := actor.UserID
	s.req.ProcessedAt = &now
	s.req.ReviewerID = &reviewer
	s.req.Remarks = comment
}

type toolAdditionSubject struct {
	addition *models.ToolAdditionRequest
}

func ToolAddition(a *models.ToolAdditionRequest) Subject {
	return toolAdditionSubject{addition: a}
}

func (s toolAdditionSubject) Kind() Kind              { return KindToolAddition }
func (s toolAdditionSubject) Key() string             { return strconv.Itoa(s.addition.ID) }
func (s toolAdditionSubject) Status() metadata.Status { return s.addition.Status }

func (s toolAdditionSubject) apply(next metadata.Status, action Action, actor Actor, comment string, now time.Time) {
	reviewer := actor.UserID
	s.addition.Status = next
	s.addition.UpdatedAt = now
	s.addition.ReviewerID = &reviewer
	if action == ActionReject {
		s.addition.RejectionReason = comment
	}
}

type issueSubject struct {
	issue *models.IssueReport
}

func IssueReport(i *models.IssueReport) Subject {
	return issueSubject{issue: i}
}

func (s issueSubject) Kind() Kind              { return KindIssueReport }
func (s issueSubject) Key() string             { return strconv.Itoa(s.issue.ID) }
func (s issueSubject) Status() metadata.Status { return s.issue.Status }

func (s issueSubject) apply(next metadata.Status, action Action, actor Actor, comment string, now time.Time) {
	reviewer := actor.UserID
	s.issue.Status = next
	s.issue.ResolvedAt = &now
	s.issue.ReviewerID = &reviewer
	s.issue.Response = comment
}
