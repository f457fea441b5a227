package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/infrastructure/logger"
	"github.com/resellbill/backend/internal/interfaces/http/dto"
)

// Context keys set by the API key middleware
const (
	AuthAccountKey = "auth_account"

	// APIKeyHeader is the primary credential header
	APIKeyHeader = "X-API-Key"
	// AuthHeaderKey also accepts "Authorization: Bearer <key>"
	AuthHeaderKey = "Authorization"
	bearerPrefix  = "Bearer "
)

// KeyResolver resolves a raw API key to the account it belongs to.
// Resolution fails for unknown, revoked, or expired keys and for keys
// whose account is suspended.
type KeyResolver interface {
	ResolveAPIKey(ctx context.Context, key string) (*account.Account, error)
}

// APIKeyConfig holds configuration for the API key middleware
type APIKeyConfig struct {
	Resolver KeyResolver
	// SkipPaths are paths that don't require authentication
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require authentication
	SkipPathPrefixes []string
	Logger           *zap.Logger
}

// DefaultAPIKeyConfig returns the default middleware configuration
func DefaultAPIKeyConfig(resolver KeyResolver) APIKeyConfig {
	return APIKeyConfig{
		Resolver: resolver,
		SkipPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/health",
		},
	}
}

// APIKeyAuth creates API key authentication middleware with defaults
func APIKeyAuth(resolver KeyResolver) gin.HandlerFunc {
	return APIKeyAuthWithConfig(DefaultAPIKeyConfig(resolver))
}

// APIKeyAuthWithConfig creates API key authentication middleware with
// custom configuration
func APIKeyAuthWithConfig(cfg APIKeyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		key := extractAPIKey(c)
		if key == "" {
			abortUnauthorized(c, "Missing API key")
			return
		}

		acct, err := cfg.Resolver.ResolveAPIKey(c.Request.Context(), key)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Debug("API key resolution failed",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			abortUnauthorized(c, "Invalid API key")
			return
		}

		c.Set(AuthAccountKey, acct)

		// Downstream log lines carry the account ID.
		ctx, _ := logger.WithAccountID(c.Request.Context(), logger.FromContext(c.Request.Context()), acct.ID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetAuthAccount returns the account authenticated for this request,
// or nil when the route skipped authentication.
func GetAuthAccount(c *gin.Context) *account.Account {
	if v, ok := c.Get(AuthAccountKey); ok {
		if acct, ok := v.(*account.Account); ok {
			return acct
		}
	}
	return nil
}

func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader(APIKeyHeader); key != "" {
		return key
	}
	authHeader := c.GetHeader(AuthHeaderKey)
	if strings.HasPrefix(authHeader, bearerPrefix) {
		return strings.TrimPrefix(authHeader, bearerPrefix)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	requestID := GetRequestID(c)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized,
		message,
		requestID,
	))
}
