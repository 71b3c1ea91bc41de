package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/services"
	"github.com/agent-zon/grantd/pkg/response"
)

// TokenHandler exposes the authorization-code token endpoint.
type TokenHandler struct {
	tokens  *services.TokenService
	clients *services.ClientService
}

// NewTokenHandler constructs a TokenHandler.
func NewTokenHandler(tokens *services.TokenService, clients *services.ClientService) *TokenHandler {
	return &TokenHandler{tokens: tokens, clients: clients}
}

// Exchange handles POST /token. The endpoint is form-encoded and renders
// OAuth error objects rather than the standard envelope.
func (h *TokenHandler) Exchange(c *gin.Context) {
	ctx := c.Request.Context()

	clientID := c.PostForm("client_id")
	if clientID != "" {
		if err := h.clients.Verify(ctx, clientID, c.PostForm("client_secret")); err != nil {
			response.ProtocolError(c, err)
			return
		}
	}

	result, err := h.tokens.Exchange(ctx, services.ExchangeInput{
		GrantType:   c.PostForm("grant_type"),
		Code:        c.PostForm("code"),
		RedirectURI: c.PostForm("redirect_uri"),
		ClientID:    clientID,
	})
	if err != nil {
		response.ProtocolError(c, oauthError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}
