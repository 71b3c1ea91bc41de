package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/services"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/response"
	"github.com/agent-zon/grantd/pkg/validator"
)

// ConsentHandler records the subject's approval decision.
type ConsentHandler struct {
	consents *services.ConsentService
}

// NewConsentHandler constructs a ConsentHandler.
func NewConsentHandler(consents *services.ConsentService) *ConsentHandler {
	return &ConsentHandler{consents: consents}
}

type consentBody struct {
	Subject              string          `json:"subject" validate:"required"`
	Scope                string          `json:"scope"`
	GrantID              string          `json:"grant_id"`
	ClientID             string          `json:"client_id"`
	AuthorizationDetails json.RawMessage `json:"authorization_details"`
}

// Submit handles PUT /AuthorizationRequests/:id/consent and answers with a
// 301 redirect carrying the one-time authorization code.
func (h *ConsentHandler) Submit(c *gin.Context) {
	var body consentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("malformed consent payload"))
		return
	}
	if err := validator.ValidateStruct(body); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	approved, err := details.ParseList(body.AuthorizationDetails)
	if err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	redirect, err := h.consents.SubmitConsent(c.Request.Context(), services.SubmitConsentInput{
		RequestID: c.Param("id"),
		GrantID:   body.GrantID,
		Subject:   body.Subject,
		Scope:     body.Scope,
		Details:   approved,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Redirect(http.StatusMovedPermanently, redirect)
}
