package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolroom/pkg/roles"
)

func TestMiddlewareChain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, st, _ := newSessions(t)
	officer := addUser(t, st, "officer", roles.Officer)
	op := addUser(t, st, "op", roles.Operator)

	router := gin.New()
	router.GET("/users", SessionMiddleware(s), Authorize(roles.Officer), func(c *gin.Context) {
		rec, ok := CurrentSession(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": rec.UserID})
	})

	call := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		if token != "" {
			req.Header.Set(SessionHeader, token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	officerToken, _, err := s.Open(context.Background(), officer, "")
	require.NoError(t, err)
	opToken, _, err := s.Open(context.Background(), op, "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("not-a-jwt"))
	assert.Equal(t, http.StatusForbidden, call(opToken))
	assert.Equal(t, http.StatusOK, call(officerToken))
}

func TestAuthorizeWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Authorize(roles.Officer)(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
