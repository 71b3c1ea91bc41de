package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agent-zon/grantd/internal/services"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/response"
)

// EvaluationHandler serves the AuthZEN-style access evaluation endpoints.
// Responses use the literal decision wire shape, not the standard envelope:
// a deny is a valid answer, not an error.
type EvaluationHandler struct {
	evaluations *services.EvaluationService
}

// NewEvaluationHandler constructs an EvaluationHandler.
func NewEvaluationHandler(evaluations *services.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations}
}

type decisionContext struct {
	Reason string `json:"reason,omitempty"`
}

type decisionResponse struct {
	Decision bool             `json:"decision"`
	Context  *decisionContext `json:"context,omitempty"`
	GrantID  string           `json:"grant_id,omitempty"`
}

func decisionFrom(result services.EvaluationResult) decisionResponse {
	out := decisionResponse{Decision: result.Decision, GrantID: result.GrantID}
	if result.Reason != "" {
		out.Context = &decisionContext{Reason: result.Reason}
	}
	return out
}

// Evaluate handles POST /access/v1/evaluation.
func (h *EvaluationHandler) Evaluate(c *gin.Context) {
	var req services.EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("malformed evaluation request"))
		return
	}

	result, err := h.evaluations.Evaluate(c.Request.Context(), callerClientID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, decisionFrom(*result))
}

type batchOptions struct {
	Semantic string `json:"evaluations_semantic"`
}

type batchBody struct {
	Subject     *services.EvalSubject  `json:"subject,omitempty"`
	Action      *services.EvalAction   `json:"action,omitempty"`
	Resource    *services.EvalResource `json:"resource,omitempty"`
	Context     map[string]string      `json:"context,omitempty"`
	Evaluations []services.BatchItem   `json:"evaluations"`
	Options     batchOptions           `json:"options"`
}

type batchResponse struct {
	Evaluations []decisionResponse `json:"evaluations"`
}

// EvaluateBatch handles POST /access/v1/evaluations.
func (h *EvaluationHandler) EvaluateBatch(c *gin.Context) {
	var body batchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperrors.NewBadRequest("malformed evaluations request"))
		return
	}

	results, err := h.evaluations.EvaluateBatch(c.Request.Context(), callerClientID(c), services.BatchInput{
		Subject:     body.Subject,
		Action:      body.Action,
		Resource:    body.Resource,
		Context:     body.Context,
		Semantic:    body.Options.Semantic,
		Evaluations: body.Evaluations,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := batchResponse{Evaluations: make([]decisionResponse, 0, len(results))}
	for _, result := range results {
		out.Evaluations = append(out.Evaluations, decisionFrom(result))
	}
	c.JSON(http.StatusOK, out)
}
