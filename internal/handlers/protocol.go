package handlers

import (
	"net/http"

	apperrors "github.com/agent-zon/grantd/pkg/errors"
)

// oauthError maps application errors onto the OAuth error vocabulary before
// they are rendered by the /par and /token endpoints.
func oauthError(err error) error {
	appErr := apperrors.FromError(err)
	if appErr.Code == apperrors.ErrBadRequest.Code {
		return &apperrors.AppError{
			Code:       apperrors.ErrInvalidRequest.Code,
			Message:    appErr.Message,
			StatusCode: http.StatusBadRequest,
		}
	}
	return appErr
}
