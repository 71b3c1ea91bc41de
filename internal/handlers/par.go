package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/services"
	"github.com/agent-zon/grantd/pkg/metrics"
	"github.com/agent-zon/grantd/pkg/response"
)

// PARHandler exposes the pushed authorization request endpoint.
type PARHandler struct {
	requests *services.RequestService
	clients  *services.ClientService
}

// NewPARHandler constructs a PARHandler.
func NewPARHandler(requests *services.RequestService, clients *services.ClientService) *PARHandler {
	return &PARHandler{requests: requests, clients: clients}
}

type parResponse struct {
	RequestURI string `json:"request_uri"`
	ExpiresIn  int    `json:"expires_in"`
}

// Create handles POST /par. The endpoint is form-encoded and renders OAuth
// error objects rather than the standard envelope.
func (h *PARHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	clientID := c.PostForm("client_id")
	if err := h.clients.Verify(ctx, clientID, c.PostForm("client_secret")); err != nil {
		response.ProtocolError(c, err)
		return
	}

	request, err := h.requests.CreatePAR(ctx, services.CreatePARInput{
		ClientID:             clientID,
		RedirectURI:          c.PostForm("redirect_uri"),
		Scope:                c.PostForm("scope"),
		Action:               c.PostForm("grant_management_action"),
		GrantID:              c.PostForm("grant_id"),
		AuthorizationDetails: c.PostForm("authorization_details"),
		RequestedActor:       c.PostForm("requested_actor"),
		Subject:              c.PostForm("subject"),
	})
	if err != nil {
		response.ProtocolError(c, oauthError(err))
		return
	}

	metrics.PushedRequests.WithLabelValues(request.Action).Inc()

	c.JSON(http.StatusCreated, parResponse{
		RequestURI: services.RequestURI(request.ID),
		ExpiresIn:  request.ExpiresIn,
	})
}
