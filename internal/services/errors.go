package services

import (
	"net/http"

	apperrors "github.com/agent-zon/grantd/pkg/errors"
)

var (
	// ErrGrantNotFound indicates the requested grant does not exist.
	ErrGrantNotFound = apperrors.New("GRANT_NOT_FOUND", "Grant not found", http.StatusNotFound)
	// ErrRequestNotFound indicates the authorization request does not exist.
	ErrRequestNotFound = apperrors.New("REQUEST_NOT_FOUND", "Authorization request not found", http.StatusNotFound)
	// ErrRequestExpired indicates the authorization request TTL has elapsed.
	ErrRequestExpired = apperrors.New("REQUEST_EXPIRED", "Authorization request has expired", http.StatusBadRequest)
	// ErrRequestConsented indicates the request was already approved once.
	ErrRequestConsented = apperrors.New("REQUEST_CONSENTED", "Authorization request was already consented", http.StatusBadRequest)
	// ErrEssentialNotApproved rejects consents that drop a non-negotiable entry.
	ErrEssentialNotApproved = apperrors.New("ESSENTIAL_NOT_APPROVED", "Consent must include every essential entry", http.StatusBadRequest)
)
