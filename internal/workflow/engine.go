package workflow

import (
	"context"

	"go.uber.org/zap"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/roles"
)

type RoleSource interface {
	CurrentRole() (roles.Role, bool)
}

// Submit sends an already gated transition to the backend.
type Submit func(ctx context.Context, role roles.Role) error

// Engine gates transitions on the client before they reach the backend.
type Engine struct {
	roles RoleSource
	guard *Guard
	log   *zap.Logger
}

func NewEngine(rs RoleSource, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{roles: rs, guard: NewGuard(), log: log}
}

// CanCreate checks that the current role may create an entity of kind.
func (e *Engine) CanCreate(kind Kind) (roles.Role, error) {
	role, ok := e.roles.CurrentRole()
	if !ok {
		return "", custom_error.ErrNotAuthenticated
	}
	rule, err := RuleFor(kind)
	if err != nil {
		return "", err
	}
	if err := rule.CanCreate(role); err != nil {
		return "", err
	}
	return role, nil
}

// Transition checks role and current state of subject, then runs submit while
// holding the in-flight slot of the entity.
func (e *Engine) Transition(ctx context.Context, subject Subject, action Action, submit Submit) error {
	role, ok := e.roles.CurrentRole()
	if !ok {
		return custom_error.ErrNotAuthenticated
	}

	rule, err := RuleFor(subject.Kind())
	if err != nil {
		return err
	}
	if _, err := rule.Next(action, role, subject.Status()); err != nil {
		return err
	}

	release, err := e.guard.Claim(subject.Kind(), subject.Key())
	if err != nil {
		return err
	}
	defer release()

	e.log.Debug("submitting transition",
		zap.String("kind", string(subject.Kind())),
		zap.String("key", subject.Key()),
		zap.String("action", string(action)),
		zap.String("role", role.String()),
	)
	return submit(ctx, role)
}
