package models

import (
	"strings"
	"time"
	"unicode"

	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/roles"
)

type User struct {
	ID                 int        `json:"id" db:"id"`
	Username           string     `json:"username" db:"username"`
	FullName           string     `json:"full_name" db:"full_name"`
	Role               roles.Role `json:"role" db:"role"`
	ContactNumber      string     `json:"contact_number" db:"contact_number"`
	Email              string     `json:"email,omitempty" db:"email"`
	FirstLoginRequired bool       `json:"first_login_required" db:"first_login_required"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

type CreateUserRequest struct {
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	Email         string     `json:"email,omitempty"`
	ContactNumber string     `json:"contact_number"`
	Role          roles.Role `json:"role"`
	Password      string     `json:"password,omitempty"`
}

func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" {
		return custom_error.NewValidationError("username", "is required")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return custom_error.NewValidationError("full_name", "is required")
	}
	if !r.Role.IsValid() {
		return custom_error.NewValidationError("role", "must be one of OFFICER, OPERATOR, SUPERVISOR")
	}
	if !isTenDigits(r.ContactNumber) {
		return custom_error.NewValidationError("contact_number", "must be exactly 10 digits")
	}
	return nil
}

func isTenDigits(s string) bool {
	if len(s) != 10 {
		return false
	}
	for _, c := range s {
		if !unicode.IsDigit(c) || c > unicode.MaxASCII {
			return false
		}
	}
	return true
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return custom_error.NewValidationError("", "please enter both username and password")
	}
	return nil
}

type LoginResponse struct {
	SessionID          string     `json:"session_id,omitempty"`
	Role               roles.Role `json:"role,omitempty"`
	UserID             int        `json:"user_id,omitempty"`
	FullName           string     `json:"full_name,omitempty"`
	FirstLoginRequired bool       `json:"first_login_required,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
}

type ResetPasswordRequest struct {
	Username    string `json:"username"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() error {
	if r.Username == "" || r.OldPassword == "" || r.NewPassword == "" {
		return custom_error.NewValidationError("", "all fields are required")
	}
	if r.OldPassword == r.NewPassword {
		return custom_error.NewValidationError("new_password", "must differ from the old password")
	}
	return nil
}

type MessageResponse struct {
	Message string `json:"message"`
}
