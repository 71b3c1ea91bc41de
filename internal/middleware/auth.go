package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/services"
	"github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/response"
)

const (
	CtxClientIDKey = "clientID"
	CtxSubjectKey  = "subject"
	CtxGrantIDKey  = "grantID"
)

// BearerAuth enforces opaque access-token authentication using the token
// service, propagating the issuing grant's identity into the request context.
func BearerAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		record, err := tokens.Authenticate(c.Request.Context(), strings.TrimSpace(authz[7:]))
		if err != nil {
			// Normalise all validation failures to 401
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClientIDKey, record.ClientID)
		c.Set(CtxSubjectKey, record.Subject)
		c.Set(CtxGrantIDKey, record.GrantID)

		c.Next()
	}
}
