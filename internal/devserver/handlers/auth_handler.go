package handlers

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	"toolroom/internal/rate_limiter"
	"toolroom/pkg/models"
	"toolroom/pkg/security"
)

type AuthHandler struct {
	store       store.Store
	sessions    *security.Sessions
	rateLimiter *rate_limiter.RateLimiter
	limit       int
	window      time.Duration
	log         *zap.Logger
}

func NewAuthHandler(st store.Store, sessions *security.Sessions, limit int, window time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:       st,
		sessions:    sessions,
		rateLimiter: rate_limiter.NewRateLimiter(limit, window),
		limit:       limit,
		window:      window,
		log:         log,
	}
}

// RateLimiter is exposed so the server can run its cleanup loop.
func (h *AuthHandler) RateLimiter() *rate_limiter.RateLimiter {
	return h.rateLimiter
}

func (h *AuthHandler) RegisterRoutes(public, protected gin.IRouter) {
	public.POST("/auth/login", h.Login)
	public.POST("/auth/reset-password", h.ResetPassword)
	protected.POST("/auth/logout", h.Logout)
}

func (h *AuthHandler) Login(c *gin.Context) {
	key := clientKey(c)
	if !h.rateLimiter.IsAllowed(key) {
		remaining := h.rateLimiter.GetRemainingRequests(key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(h.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", time.Now().Add(h.window).Format(time.RFC3339))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too many login attempts. Please try again later."})
		return
	}

	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.sessions.AuthenticateUser(ctx, req.Username, req.Password)
	if errors.Is(err, security.ErrInvalidCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	if user.FirstLoginRequired {
		c.JSON(http.StatusOK, models.LoginResponse{UserID: user.ID, FirstLoginRequired: true})
		return
	}

	token, rec, err := h.sessions.Open(ctx, user, c.ClientIP())
	if err != nil {
		if errors.Is(err, store.ErrRoleLocked) {
			h.log.Info("login refused, role locked", zap.String("username", user.Username), zap.String("role", user.Role.String()))
		}
		abortWithError(c, err)
		return
	}

	h.log.Info("user logged in", zap.Int("user_id", user.ID), zap.String("role", user.Role.String()))
	c.JSON(http.StatusOK, models.LoginResponse{
		SessionID: token,
		Role:      user.Role,
		UserID:    user.ID,
		FullName:  user.FullName,
		ExpiresAt: &rec.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	rec, _ := security.CurrentSession(c)
	if err := h.sessions.Close(c.Request.Context(), rec); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("user logged out", zap.Int("user_id", rec.UserID), zap.String("role", rec.Role.String()))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.sessions.AuthenticateUser(ctx, req.Username, req.OldPassword)
	if errors.Is(err, security.ErrInvalidCredentials) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid username or password"})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.store.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("password changed", zap.Int("user_id", user.ID))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Password updated successfully"})
}

// clientKey identifies the caller for rate limiting. Clients behind a private
// address are told apart by their user agent as well.
func clientKey(c *gin.Context) string {
	clientIP := c.GetHeader("X-Forwarded-For")
	if clientIP == "" {
		clientIP = c.GetHeader("X-Real-IP")
	}
	if clientIP == "" {
		clientIP = c.ClientIP()
	}
	if first, _, found := strings.Cut(clientIP, ","); found {
		clientIP = first
	}
	clientIP = strings.TrimSpace(clientIP)

	if ip := net.ParseIP(clientIP); ip != nil && (ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()) {
		return clientIP + ":" + c.GetHeader("User-Agent")
	}
	return clientIP
}
