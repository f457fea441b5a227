package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/shared"
)

type mockKeyResolver struct {
	mock.Mock
}

func (m *mockKeyResolver) ResolveAPIKey(ctx context.Context, key string) (*account.Account, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func TestAPIKeyAuth(t *testing.T) {
	acct, err := account.NewOperatorAccount("Operator", "op@example.com")
	require.NoError(t, err)

	t.Run("accepts valid X-API-Key header", func(t *testing.T) {
		resolver := new(mockKeyResolver)
		resolver.On("ResolveAPIKey", mock.Anything, "sk-valid").Return(acct, nil)

		var seen *account.Account
		router := gin.New()
		router.Use(APIKeyAuth(resolver))
		router.GET("/api/v1/usage", func(c *gin.Context) {
			seen = GetAuthAccount(c)
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/api/v1/usage", nil)
		req.Header.Set(APIKeyHeader, "sk-valid")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, acct.ID, seen.ID)
		resolver.AssertExpectations(t)
	})

	t.Run("accepts bearer token in Authorization header", func(t *testing.T) {
		resolver := new(mockKeyResolver)
		resolver.On("ResolveAPIKey", mock.Anything, "sk-bearer").Return(acct, nil)

		router := gin.New()
		router.Use(APIKeyAuth(resolver))
		router.GET("/api/v1/usage", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/api/v1/usage", nil)
		req.Header.Set(AuthHeaderKey, "Bearer sk-bearer")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertExpectations(t)
	})

	t.Run("rejects missing credentials", func(t *testing.T) {
		resolver := new(mockKeyResolver)

		router := gin.New()
		router.Use(APIKeyAuth(resolver))
		router.GET("/api/v1/usage", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/api/v1/usage", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
		resolver.AssertNotCalled(t, "ResolveAPIKey")
	})

	t.Run("rejects key the resolver does not accept", func(t *testing.T) {
		resolver := new(mockKeyResolver)
		resolver.On("ResolveAPIKey", mock.Anything, "sk-revoked").Return(nil, shared.ErrUnauthorized)

		router := gin.New()
		router.Use(APIKeyAuth(resolver))
		router.GET("/api/v1/usage", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/api/v1/usage", nil)
		req.Header.Set(APIKeyHeader, "sk-revoked")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resolver.AssertExpectations(t)
	})

	t.Run("skips configured paths", func(t *testing.T) {
		resolver := new(mockKeyResolver)

		router := gin.New()
		router.Use(APIKeyAuth(resolver))
		router.GET("/health", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertNotCalled(t, "ResolveAPIKey")
	})

	t.Run("skips configured path prefixes", func(t *testing.T) {
		resolver := new(mockKeyResolver)

		cfg := DefaultAPIKeyConfig(resolver)
		cfg.SkipPathPrefixes = []string{"/public"}

		router := gin.New()
		router.Use(APIKeyAuthWithConfig(cfg))
		router.GET("/public/pricing", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest("GET", "/public/pricing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertNotCalled(t, "ResolveAPIKey")
	})
}
