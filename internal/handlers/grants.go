package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
	"github.com/agent-zon/grantd/internal/services"
	"github.com/agent-zon/grantd/pkg/response"
)

// GrantHandler exposes grant reads and revocation.
type GrantHandler struct {
	grants      *services.GrantService
	permissions *services.PermissionService
}

// NewGrantHandler constructs a GrantHandler.
func NewGrantHandler(grants *services.GrantService, permissions *services.PermissionService) *GrantHandler {
	return &GrantHandler{grants: grants, permissions: permissions}
}

type grantView struct {
	ID                   string           `json:"id"`
	ClientID             string           `json:"client_id"`
	Subject              string           `json:"subject,omitempty"`
	Actor                string           `json:"actor,omitempty"`
	Status               string           `json:"status"`
	Scope                string           `json:"scope"`
	AuthorizationDetails []details.Detail `json:"authorization_details"`
}

func grantViewFrom(grant *models.Grant, scope string, grantDetails []details.Detail) grantView {
	view := grantView{
		ID:                   grant.ID,
		ClientID:             grant.ClientID,
		Subject:              grant.Subject,
		Status:               grant.Status,
		Scope:                scope,
		AuthorizationDetails: grantDetails,
	}
	if grant.Actor != nil {
		view.Actor = *grant.Actor
	}
	return view
}

// Get handles GET /grants/:id, returning the grant with its aggregated scope
// and the authorization details rebuilt from the flattened permission rows.
func (h *GrantHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	grant, err := h.grants.Get(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	scope, err := h.grants.AggregateScope(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	grantDetails, err := h.permissions.ReconstructGrant(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, grantViewFrom(grant, scope, grantDetails))
}

// Revoke handles POST /grants/:id/revoke.
func (h *GrantHandler) Revoke(c *gin.Context) {
	grant, err := h.grants.Revoke(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": grant.ID, "status": grant.Status})
}
