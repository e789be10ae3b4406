package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"toolroom/internal/devserver/store"
	"toolroom/pkg/metadata"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionInvalid     = errors.New("session is not valid, please log in again")
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Sessions issues signed session tokens and tracks them in the store so a
// token stops working after logout even before it expires.
type Sessions struct {
	store  store.Store
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(st store.Store, secret string, ttl time.Duration, now func() time.Time) *Sessions {
	if now == nil {
		now = time.Now
	}
	return &Sessions{store: st, secret: []byte(secret), ttl: ttl, now: now}
}

func (s *Sessions) AuthenticateUser(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Open starts a session for user logging in from ip. Officer and supervisor
// sessions are exclusive per role and fail with store.ErrRoleLocked.
func (s *Sessions) Open(ctx context.Context, user *models.User, ip string) (string, models.SessionRecord, error) {
	now := s.now()
	rec := models.SessionRecord{
		SessionID: uuid.NewString(),
		UserID:    user.ID,
		Role:      user.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		IPAddress: ip,
	}

	token, err := s.generateJWT(rec)
	if err != nil {
		return "", models.SessionRecord{}, err
	}
	if err := s.store.CreateSession(ctx, rec, store.IsExclusive(user.Role)); err != nil {
		return "", models.SessionRecord{}, err
	}
	return token, rec, nil
}

func (s *Sessions) generateJWT(rec models.SessionRecord) (string, error) {
	claims := jwt.MapClaims{
		"jti":    rec.SessionID,
		"userID": rec.UserID,
		"role":   rec.Role.String(),
		"iat":    rec.CreatedAt.Unix(),
		"exp":    rec.ExpiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Resolve validates token and returns the active session it names.
func (s *Sessions) Resolve(ctx context.Context, token string) (*models.SessionRecord, error) {
	sessionID, err := s.parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}

	rec, err := s.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}
	if !rec.Active(s.now()) {
		return nil, ErrSessionInvalid
	}
	return rec, nil
}

func (s *Sessions) parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims := token.Claims.(jwt.MapClaims)
	sessionID, ok := claims["jti"].(string)
	if !ok || sessionID == "" {
		return "", fmt.Errorf("jti is not a string")
	}
	if _, err := roles.Parse(fmt.Sprint(claims["role"])); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Close ends the session. Closing an ended session is not an error.
func (s *Sessions) Close(ctx context.Context, rec *models.SessionRecord) error {
	return s.store.EndSession(ctx, rec.SessionID, s.now(), metadata.EndLogout)
}
