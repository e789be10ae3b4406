package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_error "toolroom/pkg/errors"
)

type staticToken struct {
	token       string
	invalidated bool
}

func (s *staticToken) Token() (string, bool) {
	return s.token, s.token != ""
}

func (s *staticToken) Invalidate() {
	s.invalidated = true
	s.token = ""
}

func TestCallAttachesSessionHeader(t *testing.T) {
	var gotSession, gotRequestID, gotContentType string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession = r.Header.Get(SessionHeader)
		gotRequestID = r.Header.Get(RequestIDHeader)
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		assert.Equal(t, "/operator/tool-requests", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"request_id":"TR00001"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, &staticToken{token: "abc"})

	var out struct {
		RequestID string `json:"request_id"`
	}
	err := client.Call(context.Background(), http.MethodPost, "/operator/tool-requests", map[string]int{"tool_id": 7}, &out)
	require.NoError(t, err)

	assert.Equal(t, "abc", gotSession)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, float64(7), gotBody["tool_id"])
	assert.Equal(t, "TR00001", out.RequestID)
}

func TestCallWithoutTokenDoesNotReachNetwork(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, &staticToken{})
	err := client.Call(context.Background(), http.MethodGet, "/user/list", nil, nil)

	assert.ErrorIs(t, err, custom_error.ErrNotAuthenticated)
	assert.True(t, custom_error.IsAuthorization(err))
	assert.False(t, hit)
}

func TestCallAnonymousOmitsSessionHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(SessionHeader))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, &staticToken{token: "abc"})
	require.NoError(t, client.CallAnonymous(context.Background(), http.MethodPost, "/auth/login", map[string]string{"username": "u"}, nil))
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"detail":"Invalid or expired session"}`,
			message: "Invalid or expired session",
			check: func(t *testing.T, err error) {
				assert.True(t, custom_error.IsAuthorization(err))
			},
		},
		{
			name:    "forbidden",
			status:  http.StatusForbidden,
			body:    `{"detail":"Only officers can approve additions"}`,
			message: "Only officers can approve additions",
			check: func(t *testing.T, err error) {
				assert.True(t, custom_error.IsAuthorization(err))
			},
		},
		{
			name:    "conflict",
			status:  http.StatusConflict,
			body:    `{"detail":"Request already processed"}`,
			message: "Request already processed",
			check: func(t *testing.T, err error) {
				assert.True(t, custom_error.IsState(err))
			},
		},
		{
			name:    "bad request keeps api error",
			status:  http.StatusBadRequest,
			body:    `{"detail":"Requested quantity exceeds available stock"}`,
			message: "Requested quantity exceeds available stock",
			check: func(t *testing.T, err error) {
				assert.False(t, custom_error.IsState(err))
				assert.False(t, custom_error.IsAuthorization(err))
			},
		},
		{
			name:    "validation list",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"loc":["body","tool_id"],"msg":"field required"},{"msg":"value is not a valid integer"}]}`,
			message: "field required; value is not a valid integer",
		},
		{
			name:    "error key",
			status:  http.StatusNotFound,
			body:    `{"error":"not found"}`,
			message: "not found",
		},
		{
			name:    "no body",
			status:  http.StatusInternalServerError,
			body:    ``,
			message: "request failed with status 500",
		},
		{
			name:    "html body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			message: "request failed with status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL, time.Second, &staticToken{token: "abc"})
			err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)

			var apiErr *custom_error.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestUnauthorizedInvalidatesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	tokens := &staticToken{token: "stale"}
	client := NewClient(srv.URL, time.Second, tokens)

	err := client.Call(context.Background(), http.MethodGet, "/user/list", nil, nil)
	assert.True(t, custom_error.IsAuthorization(err))
	assert.True(t, tokens.invalidated)

	err = client.Call(context.Background(), http.MethodGet, "/user/list", nil, nil)
	assert.ErrorIs(t, err, custom_error.ErrNotAuthenticated)
}

func TestForbiddenKeepsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tokens := &staticToken{token: "abc"}
	client := NewClient(srv.URL, time.Second, tokens)

	_ = client.Call(context.Background(), http.MethodGet, "/user/list", nil, nil)
	assert.False(t, tokens.invalidated)
}

func TestTimeoutIsConnectionError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, 50*time.Millisecond, &staticToken{token: "abc"})
	err := client.Call(context.Background(), http.MethodGet, "/slow", nil, nil)

	assert.True(t, custom_error.IsConnection(err))
	assert.Equal(t, "connection error", err.Error())
}

func TestUnreachableIsConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second, &staticToken{token: "abc"})
	err := client.Call(context.Background(), http.MethodGet, "/x", nil, nil)

	assert.True(t, custom_error.IsConnection(err))
}

func TestBaseURLTrailingSlash(t *testing.T) {
	client := NewClient("http://localhost:8000/api/", 0, &staticToken{})
	assert.Equal(t, "http://localhost:8000/api", client.BaseURL())
}
