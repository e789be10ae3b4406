package handlers

import (
	"context"

	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// Notifier writes notifications on a best effort basis. A failure is logged
// and never fails the request that triggered it.
type Notifier struct {
	store store.Store
	log   *zap.Logger
}

func NewNotifier(st store.Store, log *zap.Logger) *Notifier {
	return &Notifier{store: st, log: log}
}

func (n *Notifier) ToUser(ctx context.Context, userID int, role roles.Role, title, description, target string) {
	n.create(ctx, &models.Notification{UserID: userID, Role: role, Title: title, Description: description, TargetURL: target})
}

func (n *Notifier) ToRoles(ctx context.Context, title, description, target string, recipients ...roles.Role) {
	for _, role := range recipients {
		n.create(ctx, &models.Notification{Role: role, Title: title, Description: description, TargetURL: target})
	}
}

func (n *Notifier) create(ctx context.Context, notification *models.Notification) {
	if err := n.store.CreateNotification(ctx, notification); err != nil {
		n.log.Warn("failed to create notification",
			zap.String("title", notification.Title),
			zap.Int("user_id", notification.UserID),
			zap.Error(err),
		)
	}
}
