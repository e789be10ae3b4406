package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"toolroom/internal/gateway"
	"toolroom/internal/session"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

// ErrFirstLoginRequired means the account must change its password before a
// session is issued.
var ErrFirstLoginRequired = errors.New("first login: please reset your password before logging in")

type Service struct {
	api   gateway.Caller
	store *session.Store
	log   *zap.Logger
}

func NewService(api gateway.Caller, store *session.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{api: api, store: store, log: log}
}

func (s *Service) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	req := models.LoginRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if err := s.api.CallAnonymous(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if resp.FirstLoginRequired {
		return &resp, ErrFirstLoginRequired
	}

	role, err := roles.Parse(string(resp.Role))
	if err != nil {
		return nil, fmt.Errorf("login: backend returned %w", err)
	}
	if err := s.store.Login(role, resp.SessionID, resp.UserID, resp.FullName); err != nil {
		return nil, err
	}

	s.log.Info("logged in", zap.String("username", username), zap.String("role", role.String()))
	return &resp, nil
}

// Logout tells the backend the session ended and clears the local session
// regardless of the backend answer.
func (s *Service) Logout(ctx context.Context) error {
	if !s.store.IsAuthenticated() {
		return custom_error.ErrNotAuthenticated
	}

	remoteErr := s.api.Call(ctx, http.MethodPost, "/auth/logout", nil, nil)
	if err := s.store.Logout(); err != nil {
		return err
	}

	if remoteErr != nil && !custom_error.IsAuthorization(remoteErr) {
		return fmt.Errorf("logged out locally, backend logout failed: %w", remoteErr)
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	var resp models.MessageResponse
	if err := s.api.CallAnonymous(ctx, http.MethodPost, "/auth/reset-password", req, &resp); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
