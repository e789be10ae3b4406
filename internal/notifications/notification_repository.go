package notifications

import (
	"context"
	"fmt"
	"net/http"

	"toolroom/internal/gateway"
	"toolroom/pkg/models"
)

type Repository struct {
	api gateway.Caller
}

func NewRepository(api gateway.Caller) *Repository {
	return &Repository{api: api}
}

func (r *Repository) List(ctx context.Context) ([]models.Notification, error) {
	var list []models.Notification
	if err := r.api.Call(ctx, http.MethodGet, "/notifications", nil, &list); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// Unseen returns the notifications in list that are not in seen and records
// them there.
func Unseen(list []models.Notification, seen map[int]struct{}) []models.Notification {
	var fresh []models.Notification
	for _, n := range list {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}
	return fresh
}
