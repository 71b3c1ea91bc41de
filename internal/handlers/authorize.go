package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/services"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/response"
	"github.com/agent-zon/grantd/pkg/validator"
)

// AuthorizeHandler resolves a pushed request reference into the data contract
// the consent prompt consumes. HTML rendering happens client-side.
type AuthorizeHandler struct {
	consents *services.ConsentService
}

// NewAuthorizeHandler constructs an AuthorizeHandler.
func NewAuthorizeHandler(consents *services.ConsentService) *AuthorizeHandler {
	return &AuthorizeHandler{consents: consents}
}

type authorizeForm struct {
	RequestURI string `form:"request_uri" json:"request_uri" validate:"required"`
	ClientID   string `form:"client_id" json:"client_id"`
}

// Authorize handles POST /authorize.
func (h *AuthorizeHandler) Authorize(c *gin.Context) {
	var form authorizeForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, apperrors.NewBadRequest("malformed authorize request"))
		return
	}
	if err := validator.ValidateStruct(form); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	requestID, ok := services.RequestIDFromURI(form.RequestURI)
	if !ok {
		response.Error(c, apperrors.NewBadRequest("request_uri is not a recognised reference"))
		return
	}

	view, err := h.consents.RenderConsent(c.Request.Context(), requestID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if form.ClientID != "" && form.ClientID != view.Request.ClientID {
		response.Error(c, apperrors.NewBadRequest("client_id does not match the pushed request"))
		return
	}

	response.Success(c, http.StatusOK, view)
}
