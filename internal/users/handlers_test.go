package users_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/matheusmosca/storefront/internal/storetest"
	"github.com/matheusmosca/storefront/internal/users"
)

func serve(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storetest.New()
	h := users.NewHandler(newService(store), noop.NewTracerProvider().Tracer("test"), zap.NewNop())
	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/user/:userId", h.GetUser)

	w := serve(r, http.MethodPost, "/auth/signup", `{"username": "ana", "email": "ana@example.org", "password": "pw"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var signup struct {
		Success bool  `json:"success"`
		UserID  int64 `json:"userId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &signup))
	assert.True(t, signup.Success)

	w = serve(r, http.MethodPost, "/auth/signup", `{"username": "ana", "email": "ana@example.org", "password": "pw"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(r, http.MethodPost, "/auth/login", `{"email": "ana@example.org", "password": "pw"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		UserID   int64  `json:"userId"`
		UserRole string `json:"userRole"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	assert.Equal(t, signup.UserID, login.UserID)
	assert.Equal(t, "user", login.UserRole)

	w = serve(r, http.MethodPost, "/auth/login", `{"email": "ana@example.org", "password": "nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, fmt.Sprintf("/auth/user/%d", signup.UserID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ana"`)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storetest.New()
	admin := store.AddUser("root", users.RoleAdmin)
	regular := store.AddUser("ana", users.RoleUser)

	r := gin.New()
	r.GET("/orders", users.RequireAdmin(newService(store), zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"admin", map[string]string{users.UserIDHeader: fmt.Sprint(admin)}, http.StatusOK},
		{"regular user", map[string]string{users.UserIDHeader: fmt.Sprint(regular)}, http.StatusForbidden},
		{"unknown user", map[string]string{users.UserIDHeader: "4242"}, http.StatusUnauthorized},
		{"garbage id", map[string]string{users.UserIDHeader: "abc"}, http.StatusUnauthorized},
		{"no header", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, "/orders", "", tt.header)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/login", users.NewRateLimiter(60, 2).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/login", "", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/auth/login", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/auth/login", "", nil).Code)
}
