package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/middleware"
)

// callerClientID returns the authenticated client id set by the bearer
// middleware, or "" when the route is unauthenticated.
func callerClientID(c *gin.Context) string {
	return c.GetString(middleware.CtxClientIDKey)
}
