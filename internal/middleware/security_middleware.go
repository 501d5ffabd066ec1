package middleware

import (
	"net/http"
	"strings"
	"time"

	"go-pos-terminal/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Context keys set by AuthMiddleware.
const (
	KeyOperatorID = "operatorID"
	KeyUsername   = "username"
	KeyRole       = "role"
)

// AuthMiddleware checks that the operator has a valid JWT token
func AuthMiddleware(signer *auth.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the "Authorization" header or, for EventSource
		// clients that cannot set headers, the access_token query parameter
		tokenString := c.Query("access_token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
				return
			}
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		// 2. Validate the token
		claims, err := signer.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. Store operator info for the handlers
		c.Set(KeyOperatorID, claims.OperatorID)
		c.Set(KeyUsername, claims.Username)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(KeyRole)
		if !exists || role != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one line per request through logrus.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"module":  "http",
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if id, ok := c.Get(KeyOperatorID); ok {
			entry = entry.WithField("operator_id", id)
		}
		switch {
		case len(c.Errors) > 0:
			entry.Error(c.Errors.String())
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("request failed")
		default:
			entry.Debug("request")
		}
	}
}
