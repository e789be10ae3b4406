package models

import (
	"time"

	"toolroom/pkg/roles"
)

type Notification struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"user_id" db:"user_id"`
	Role        roles.Role `json:"role" db:"role"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	TargetURL   string     `json:"target_url,omitempty" db:"target_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	IsRead      bool       `json:"is_read" db:"is_read"`
}
