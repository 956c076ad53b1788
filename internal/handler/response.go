package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"drivepool/internal/repository"
	"drivepool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrAmountTooLarge),
		errors.Is(err, service.ErrInvalidSafetyFactor):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrUserHasActiveTrip),
		errors.Is(err, service.ErrTripNotRecording),
		errors.Is(err, service.ErrTripNotProcessing),
		errors.Is(err, service.ErrTripNotCompleted),
		errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrShareFinalized),
		errors.Is(err, service.ErrPhoneTaken):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrTripNotOwned):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
