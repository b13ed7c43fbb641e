package httpHandler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"siar-server/auth"
	"siar-server/logs"
	"siar-server/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const userIDKey = "user_id"

// TokenParser validates bearer tokens.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RequestLogger logs one line per request and counts it by route.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Header("X-Request-ID", reqID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()

		entry := logs.Logger.WithFields(logrus.Fields{
			"request_id": reqID,
			"method":     c.Request.Method,
			"route":      route,
			"status":     code,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if uid, ok := c.Get(userIDKey); ok {
			entry = entry.WithField("user_id", uid)
		}
		switch {
		case code >= 500:
			entry.Error("request")
		case code >= 400:
			entry.Warn("request")
		default:
			entry.Debug("request")
		}
	}
}

// RequireUser accepts "Authorization: Bearer <jwt>", or ?token= on
// websocket upgrades.
func RequireUser(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

// UserID is the authenticated user set by RequireUser.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
