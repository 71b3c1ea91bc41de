package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/agent-zon/grantd/internal/details"
	"github.com/agent-zon/grantd/internal/models"
	apperrors "github.com/agent-zon/grantd/pkg/errors"
	"github.com/agent-zon/grantd/pkg/metrics"
)

// Batch evaluation semantics.
const (
	SemanticExecuteAll      = "execute_all"
	SemanticPermitOnFirst   = "permit_on_first_permit"
	SemanticDenyOnFirstDeny = "deny_on_first_deny"
)

// EvalSubject identifies who is requesting access.
type EvalSubject struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"`
}

// EvalAction names the operation being attempted.
type EvalAction struct {
	Name string `json:"name"`
}

// EvalResource identifies what is being accessed.
type EvalResource struct {
	Type string `json:"type,omitempty"`
	ID   string `json:"id"`
}

// EvaluationRequest is one access decision question.
type EvaluationRequest struct {
	Subject  EvalSubject       `json:"subject"`
	Action   EvalAction        `json:"action"`
	Resource EvalResource      `json:"resource"`
	Context  map[string]string `json:"context,omitempty"`
}

// EvaluationResult is the decision for one request. A deny is a valid
// result, not an error.
type EvaluationResult struct {
	Decision bool   `json:"decision"`
	GrantID  string `json:"grant_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// EvaluationService is the policy decision point: it searches stored
// authorization details for one that permits a live access request.
type EvaluationService struct {
	db *gorm.DB
}

// NewEvaluationService constructs an EvaluationService using the provided database handle.
func NewEvaluationService(db *gorm.DB) (*EvaluationService, error) {
	if db == nil {
		return nil, errors.New("evaluation service: db is required")
	}
	return &EvaluationService{db: db}, nil
}

// Evaluate answers whether the subject may perform the action on the
// resource, on behalf of the authenticated caller client.
func (s *EvaluationService) Evaluate(ctx context.Context, callerClientID string, req EvaluationRequest) (*EvaluationResult, error) {
	ctx = ensureContext(ctx)

	if req.Subject.ID == "" || req.Action.Name == "" || req.Resource.ID == "" {
		return nil, apperrors.NewBadRequest("subject.id, action.name and resource.id are required")
	}

	clientID := strings.TrimSpace(callerClientID)
	if clientID == "" {
		clientID = strings.TrimSpace(req.Context["client_id"])
	}
	if clientID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	serverLocation, resourceType, resourceName, isURI := parseResourceID(req.Resource.ID)
	if !isURI {
		if server := strings.TrimSpace(req.Context["server"]); server != "" {
			serverLocation = server
		}
	}

	candidates, err := s.loadCandidates(ctx, resourceType)
	if err != nil {
		return nil, err
	}

	for _, row := range candidates {
		detail, err := details.Parse(row.Payload)
		if err != nil {
			return nil, fmt.Errorf("evaluation service: decode detail %s: %w", row.ID, err)
		}

		if !detailMatches(detail, serverLocation, req.Action.Name, req.Resource.ID, resourceName) {
			continue
		}

		grantID, ok, err := s.verifyOwnership(ctx, row, req.Subject.ID, clientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		metrics.EvaluationDecisions.WithLabelValues("permit").Inc()
		return &EvaluationResult{Decision: true, GrantID: grantID}, nil
	}

	metrics.EvaluationDecisions.WithLabelValues("deny").Inc()
	return &EvaluationResult{
		Decision: false,
		Reason: fmt.Sprintf("no active grant authorizes subject %q to perform %q on %q",
			req.Subject.ID, req.Action.Name, req.Resource.ID),
	}, nil
}

// BatchInput is the batched evaluation request. Item fields default to the
// batch-level values when omitted.
type BatchInput struct {
	Subject     *EvalSubject
	Action      *EvalAction
	Resource    *EvalResource
	Context     map[string]string
	Semantic    string
	Evaluations []BatchItem
}

// BatchItem is one entry of a batched evaluation.
type BatchItem struct {
	Subject  *EvalSubject      `json:"subject,omitempty"`
	Action   *EvalAction       `json:"action,omitempty"`
	Resource *EvalResource     `json:"resource,omitempty"`
	Context  map[string]string `json:"context,omitempty"`
}

// EvaluateBatch runs each item with the requested short-circuit semantic.
func (s *EvaluationService) EvaluateBatch(ctx context.Context, callerClientID string, input BatchInput) ([]EvaluationResult, error) {
	ctx = ensureContext(ctx)

	semantic := input.Semantic
	if semantic == "" {
		semantic = SemanticExecuteAll
	}
	switch semantic {
	case SemanticExecuteAll, SemanticPermitOnFirst, SemanticDenyOnFirstDeny:
	default:
		return nil, apperrors.NewBadRequest(fmt.Sprintf("unknown evaluations_semantic %q", semantic))
	}

	results := make([]EvaluationResult, 0, len(input.Evaluations))
	for _, item := range input.Evaluations {
		req := resolveItem(input, item)

		result, err := s.Evaluate(ctx, callerClientID, req)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)

		if semantic == SemanticPermitOnFirst && result.Decision {
			break
		}
		if semantic == SemanticDenyOnFirstDeny && !result.Decision {
			break
		}
	}
	return results, nil
}

// resolveItem overlays an item's fields on the batch-level defaults.
func resolveItem(input BatchInput, item BatchItem) EvaluationRequest {
	req := EvaluationRequest{}

	if item.Subject != nil {
		req.Subject = *item.Subject
	} else if input.Subject != nil {
		req.Subject = *input.Subject
	}

	if item.Action != nil {
		req.Action = *item.Action
	} else if input.Action != nil {
		req.Action = *input.Action
	}

	if item.Resource != nil {
		req.Resource = *item.Resource
	} else if input.Resource != nil {
		req.Resource = *input.Resource
	}

	req.Context = make(map[string]string, len(input.Context)+len(item.Context))
	for k, v := range input.Context {
		req.Context[k] = v
	}
	for k, v := range item.Context {
		req.Context[k] = v
	}

	return req
}

// loadCandidates returns non-superseded details whose type matches the
// parsed resource type. MCP details are always candidates: tool access is
// commonly expressed through them regardless of the nominal resource type.
func (s *EvaluationService) loadCandidates(ctx context.Context, resourceType string) ([]models.AuthorizationDetail, error) {
	types := []string{resourceType}
	if resourceType != details.TypeMCP {
		types = append(types, details.TypeMCP)
	}

	var rows []models.AuthorizationDetail
	if err := s.db.WithContext(ctx).
		Where("type_code IN ? AND superseded = ?", types, false).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("evaluation service: load candidates: %w", err)
	}
	return rows, nil
}

// detailMatches applies the location, action and resource filters of one
// candidate detail.
func detailMatches(d details.Detail, serverLocation, actionName, resourceID, resourceName string) bool {
	if locations := d.Locations(); len(locations) > 0 {
		if !containsString(locations, serverLocation) {
			return false
		}
	}

	// MCP details carry no explicit action list; action matching is
	// implicit for them.
	if d.TypeCode() != details.TypeMCP {
		if !containsString(d.ActionNames(), actionName) {
			return false
		}
	}

	if mcp, ok := d.(*details.McpDetail); ok {
		_, hasTool := mcp.Tools[resourceName]
		if !hasTool {
			_, hasTool = mcp.Tools[resourceID]
		}
		return hasTool
	}

	names := d.ResourceNames()
	return containsString(names, resourceID) || containsString(names, resourceName)
}

// verifyOwnership checks the consent, request and grant behind a candidate
// detail: the consent's subject, the requesting client, and the grant's
// status must all line up.
func (s *EvaluationService) verifyOwnership(ctx context.Context, row models.AuthorizationDetail, subjectID, clientID string) (string, bool, error) {
	var consent models.Consent
	err := s.db.WithContext(ctx).First(&consent, "id = ?", row.ConsentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("evaluation service: load consent: %w", err)
	}
	if consent.Subject != subjectID {
		return "", false, nil
	}

	var request models.AuthorizationRequest
	err = s.db.WithContext(ctx).First(&request, "id = ?", consent.RequestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("evaluation service: load request: %w", err)
	}
	if request.ClientID != clientID {
		return "", false, nil
	}

	var grant models.Grant
	err = s.db.WithContext(ctx).First(&grant, "id = ?", row.GrantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("evaluation service: load grant: %w", err)
	}
	if !grant.Active() {
		return "", false, nil
	}

	return grant.ID, true, nil
}

// parseResourceID splits a resource identifier into server location and
// resource type/name. A URI form like scheme://host/path/tool yields
// (scheme://host, tool, tool, true); anything else is treated as both the
// location and the name.
func parseResourceID(resourceID string) (serverLocation, resourceType, resourceName string, isURI bool) {
	u, err := url.Parse(resourceID)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverLocation = u.Scheme + "://" + u.Host

		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		last := segments[len(segments)-1]
		if last == "" {
			last = resourceID
		}
		return serverLocation, last, last, true
	}

	return resourceID, resourceID, resourceID, false
}
