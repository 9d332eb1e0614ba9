package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-library-circulation/internal/http/middleware"
	"github.com/tbourn/go-library-circulation/internal/services"
)

// Stable error codes returned in ErrorResponse.Code. Clients branch on these,
// never on the message.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeInvalidState     = "invalid_state"
	ErrCodeConflict         = "conflict"
	ErrCodeNoCopyAvailable  = "no_copy_available"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"
)

// failErr maps a service error to its HTTP status and code. Errors without a
// known kind are logged and reported as a generic 500 so storage details
// never reach the client.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoCopyAvailable):
		fail(c, http.StatusConflict, ErrCodeNoCopyAvailable, err.Error())
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		fail(c, http.StatusConflict, ErrCodeInvalidState, err.Error())
	case errors.Is(err, services.ErrConflict):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
