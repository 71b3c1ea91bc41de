package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/services"
)

// MetadataHandler serves the authorization server metadata document.
type MetadataHandler struct {
	issuer string
}

// NewMetadataHandler constructs a MetadataHandler for the given issuer URL.
func NewMetadataHandler(issuer string) *MetadataHandler {
	return &MetadataHandler{issuer: issuer}
}

type serverMetadata struct {
	Issuer                             string   `json:"issuer"`
	AuthorizationEndpoint              string   `json:"authorization_endpoint"`
	TokenEndpoint                      string   `json:"token_endpoint"`
	PushedAuthorizationRequestEndpoint string   `json:"pushed_authorization_request_endpoint"`
	AuthorizationDetailsTypesSupported []string `json:"authorization_details_types_supported"`
	GrantTypesSupported                []string `json:"grant_types_supported"`
}

// Get handles GET and POST /metadata.
func (h *MetadataHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, serverMetadata{
		Issuer:                             h.issuer,
		AuthorizationEndpoint:              h.issuer + "/authorize",
		TokenEndpoint:                      h.issuer + "/token",
		PushedAuthorizationRequestEndpoint: h.issuer + "/par",
		AuthorizationDetailsTypesSupported: details.SupportedTypes(),
		GrantTypesSupported:                []string{services.GrantTypeAuthorizationCode},
	})
}
