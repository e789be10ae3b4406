package workflow

import (
	"fmt"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/metadata"
	"toolroom/pkg/roles"
)

type Kind string

const (
	KindToolRequest  Kind = "tool_request"
	KindToolAddition Kind = "tool_addition"
	KindIssueReport  Kind = "issue_report"
)

func Kinds() []Kind {
	return []Kind{KindToolRequest, KindToolAddition, KindIssueReport}
}

func (k Kind) Label() string {
	switch k {
	case KindToolRequest:
		return "tool request"
	case KindToolAddition:
		return "tool addition request"
	case KindIssueReport:
		return "issue report"
	default:
		return string(k)
	}
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCollect Action = "collect"
)

func ParseAction(value string) (Action, error) {
	switch a := Action(value); a {
	case ActionApprove, ActionReject, ActionCollect:
		return a, nil
	default:
		return "", custom_error.NewValidationError("action", fmt.Sprintf("unknown action %q", value))
	}
}

// Rule describes who creates an entity kind, who reviews it and which
// statuses the review moves it through.
type Rule struct {
	Kind      Kind
	Creator   roles.Role
	Reviewers []roles.Role
	Initial   metadata.Status
	// Collector may move an approved entity to COLLECTED. Empty when the kind
	// has no post-approval step.
	Collector roles.Role
}

var rules = map[Kind]Rule{
	KindToolRequest: {
		Kind:      KindToolRequest,
		Creator:   roles.Operator,
		Reviewers: []roles.Role{roles.Officer, roles.Supervisor},
		Initial:   metadata.StatusPending,
		Collector: roles.Operator,
	},
	KindToolAddition: {
		Kind:      KindToolAddition,
		Creator:   roles.Supervisor,
		Reviewers: []roles.Role{roles.Officer},
		Initial:   metadata.StatusPending,
	},
	KindIssueReport: {
		Kind:      KindIssueReport,
		Creator:   roles.Operator,
		Reviewers: []roles.Role{roles.Officer},
		Initial:   metadata.StatusOpen,
	},
}

func RuleFor(kind Kind) (Rule, error) {
	rule, ok := rules[kind]
	if !ok {
		return Rule{}, fmt.Errorf("no workflow rule for kind %q", kind)
	}
	return rule, nil
}

func (r Rule) CanCreate(actor roles.Role) error {
	if actor != r.Creator {
		return custom_error.NewAuthorizationError("role %s cannot create a %s", actor, r.Kind.Label())
	}
	return nil
}

func (r Rule) CanReview(actor roles.Role) bool {
	return actor.OneOf(r.Reviewers...)
}

// Next returns the status an entity in current moves to when actor performs
// action. The role is checked before the state.
func (r Rule) Next(action Action, actor roles.Role, current metadata.Status) (metadata.Status, error) {
	switch action {
	case ActionApprove, ActionReject:
		if !r.CanReview(actor) {
			return "", custom_error.NewAuthorizationError("role %s cannot %s a %s", actor, action, r.Kind.Label())
		}
		if current != r.Initial {
			return "", custom_error.NewStateError("%s is already %s", r.Kind.Label(), current)
		}
		if action == ActionApprove {
			return metadata.StatusApproved, nil
		}
		return metadata.StatusRejected, nil

	case ActionCollect:
		if r.Collector == "" {
			return "", custom_error.NewStateError("a %s cannot be collected", r.Kind.Label())
		}
		if actor != r.Collector {
			return "", custom_error.NewAuthorizationError("role %s cannot collect a %s", actor, r.Kind.Label())
		}
		if current != metadata.StatusApproved {
			return "", custom_error.NewStateError("only approved requests can be collected, this one is %s", current)
		}
		return metadata.StatusCollected, nil

	default:
		return "", custom_error.NewValidationError("action", fmt.Sprintf("unknown action %q", action))
	}
}
