package users

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

func (r *Repository) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.api.Call(ctx, http.MethodGet, "/user/list", nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create validates the payload before anything is sent.
func (r *Repository) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var user models.User
	if err := r.api.Call(ctx, http.MethodPost, "/user/create", req, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

func (r *Repository) Delete(ctx context.Context, id int) error {
	if err := r.api.Call(ctx, http.MethodDelete, fmt.Sprintf("/user/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
