package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom/internal/devserver/store"
	custom_error "toolroom/pkg/errors"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

type UserHandler struct {
	store           store.Store
	defaultPassword string
	log             *zap.Logger
}

func NewUserHandler(st store.Store, defaultPassword string, log *zap.Logger) *UserHandler {
	return &UserHandler{store: st, defaultPassword: defaultPassword, log: log}
}

func (h *UserHandler) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/user", security.Authorize(roles.Officer))
	group.GET("/list", h.GetUsers)
	group.POST("/create", h.CreateUser)
	group.DELETE("/:id", h.DeleteUser)
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser registers an account that must change its password on first login.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, err)
		return
	}

	password := req.Password
	if password == "" {
		password = h.defaultPassword
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	user := models.User{
		Username:           req.Username,
		FullName:           req.FullName,
		Role:               req.Role,
		ContactNumber:      req.ContactNumber,
		Email:              req.Email,
		FirstLoginRequired: true,
		PasswordHash:       hash,
	}
	if err := h.store.CreateUser(c.Request.Context(), &user); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("user created", zap.Int("user_id", user.ID), zap.String("role", user.Role.String()))
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	rec, _ := security.CurrentSession(c)
	if rec.UserID == id {
		abortWithError(c, custom_error.NewValidationError("id", "you cannot delete your own account"))
		return
	}

	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}

	h.log.Info("user deleted", zap.Int("user_id", id))
	c.JSON(http.StatusOK, models.MessageResponse{Message: "User deleted successfully"})
}
