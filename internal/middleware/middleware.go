package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"lanhall/internal/cache"
	"lanhall/internal/logger"
	"lanhall/internal/models"
	"lanhall/internal/repository"

	"github.com/gin-gonic/gin"
)

// Ctx key and helpers for the authenticated account id.
// Unexported type to avoid collisions.

type ctxKey string

const accountIDKey ctxKey = "account_id"

func ContextWithAccountID(ctx context.Context, accountID int64) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

func AccountIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(accountIDKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// RequestID tags every request with an id for log correlation. Inbound
// X-Request-ID headers are honored so gateway-assigned ids survive.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = logger.NewRequestID()
		}

		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(
			logger.ContextWithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// CORS middleware for browser clients
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}

		c.Next()
	}
}

// Logger middleware for structured request logging
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		accountID, exists := c.Get("account_id")

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		}

		if exists {
			logFields = append(logFields, "account_id", accountID)
		}

		if c.Writer.Status() >= 400 {
			if len(c.Errors) > 0 {
				logFields = append(logFields, "error", c.Errors.String())
			}
			logger.WithContext(c.Request.Context()).Error("Request completed with error", logFields...)
		}
	}
}

// Recovery middleware with detailed panic logging
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		slog.Error("PANIC recovered",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"client_ip", c.ClientIP(),
		)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
	})
}

// BasicAuth authenticates the account over HTTP Basic Auth, checking the
// Redis auth cache first, then the database. A successful database login
// is written back to the cache.
func BasicAuth(accountRepo *repository.AccountRepository, cacheClient *cache.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", "Basic realm=\"Restricted\"")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := c.Request.Context()

		hash := sha256.Sum256([]byte(password))
		passwordHash := fmt.Sprintf("%x", hash)

		if cacheClient != nil {
			if accountID, err := cacheClient.GetAccountIDByAuth(ctx, email, passwordHash); err == nil {
				c.Set("account_id", accountID)
				c.Request = c.Request.WithContext(ContextWithAccountID(ctx, accountID))
				c.Next()
				return
			}
		}

		account, err := accountRepo.GetByEmail(ctx, email)
		if err != nil || account == nil || !account.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if account.PasswordHash == "" || passwordHash != account.PasswordHash {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if cacheClient != nil {
			if err := cacheClient.CacheAuth(ctx, email, passwordHash, account.AccountID); err != nil {
				slog.Warn("Failed to fill auth cache", "error", err)
			}
		}

		c.Set("account_id", account.AccountID)
		c.Request = c.Request.WithContext(ContextWithAccountID(ctx, account.AccountID))

		c.Next()
	}
}

// RequireOperator guards the admin routes. Runs after BasicAuth.
func RequireOperator(accountRepo *repository.AccountRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := AccountIDFromContext(c.Request.Context())
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		account, err := accountRepo.GetByID(c.Request.Context(), accountID)
		if err != nil || account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		if account.Role != models.RoleOperator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Operator role required"})
			return
		}

		c.Next()
	}
}
