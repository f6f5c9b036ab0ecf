package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eaglebank/api/internal/auth"
	"github.com/eaglebank/api/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/protected", middleware.Auth(tokens), func(c *gin.Context) {
		userID, _ := middleware.GetUserID(c)
		email, _ := middleware.GetEmail(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID, "email": email})
	})
	return router, tokens
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	router, tokens := protectedRouter(t)
	signed, err := tokens.Issue("usr-abc123", "alice@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "usr-abc123")
	require.Contains(t, w.Body.String(), "alice@example.com")
}

func TestAuthMiddlewareRejections(t *testing.T) {
	router, _ := protectedRouter(t)

	other, err := auth.NewTokenService("other-secret", time.Hour)
	require.NoError(t, err)
	foreign, err := other.Issue("usr-abc123", "alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"garbage token", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
