package tools

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

// List returns the inventory visible to the current role. Operators only see
// tools that are in stock.
func (r *Repository) List(ctx context.Context) ([]models.Tool, error) {
	var tools []models.Tool
	if err := r.api.Call(ctx, http.MethodGet, "/operator/tools", nil, &tools); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return tools, nil
}

// Get looks a tool up in the current inventory listing.
func (r *Repository) Get(ctx context.Context, id int) (*models.Tool, error) {
	tools, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tools {
		if tools[i].ID == id {
			return &tools[i], nil
		}
	}
	return nil, fmt.Errorf("tool %d not found", id)
}
