package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"toolroom/internal/devserver/store"
	custom_error "toolroom/pkg/errors"
)

const roleLockedMessage = "Role currently in use by another user"

// abortWithError writes err as a {"detail": ...} body with the matching status.
func abortWithError(c *gin.Context, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func statusFor(err error) (int, string) {
	var (
		validation *custom_error.ValidationError
		authz      *custom_error.AuthorizationError
		state      *custom_error.StateError
		unique     *custom_error.UniqueViolationError
		foreignKey *custom_error.ForeignKeyViolationError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &authz):
		return http.StatusForbidden, authz.Error()
	case errors.As(err, &state):
		return http.StatusConflict, state.Error()
	case errors.Is(err, store.ErrRoleLocked):
		return http.StatusConflict, roleLockedMessage
	case store.IsNotFound(err):
		return http.StatusNotFound, "Not found"
	case errors.As(err, &unique):
		return http.StatusConflict, unique.Detail()
	case errors.As(err, &foreignKey):
		return http.StatusBadRequest, foreignKey.Detail()
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid request payload"})
		return false
	}
	return true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, target any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, target)
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Invalid " + name})
		return 0, false
	}
	return id, true
}
