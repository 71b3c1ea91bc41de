package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agent-zon/grantd/pkg/logger"
)

// Logger writes a concise structured access log for each request. Requests
// that passed bearer auth additionally carry the caller's grant identity.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		fields = append(fields, identityFields(c)...)

		logger.WithModule("http").Info("request", fields...)
	}
}

// identityFields surfaces the authenticated caller when bearer auth ran.
func identityFields(c *gin.Context) []zap.Field {
	var fields []zap.Field
	if grantID := c.GetString(CtxGrantIDKey); grantID != "" {
		fields = append(fields, zap.String("grant_id", grantID))
	}
	if clientID := c.GetString(CtxClientIDKey); clientID != "" {
		fields = append(fields, zap.String("client_id", clientID))
	}
	return fields
}
