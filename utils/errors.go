package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-search-service/internal/faults"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithFault maps a classified pipeline error to its HTTP status and
// sends the standard envelope. Unclassified errors become a 500.
func RespondWithFault(c *gin.Context, err error) {
	kind := faults.KindOf(err)
	code := faults.CodeOf(err)

	status := http.StatusInternalServerError
	switch kind {
	case faults.KindConfig:
		status = http.StatusBadRequest
	case faults.KindExtraction:
		status = http.StatusUnprocessableEntity
	case faults.KindEmbedding:
		status = http.StatusBadGateway
		if code == faults.CodeQuotaExceeded {
			status = http.StatusTooManyRequests
		}
	case faults.KindStore:
		status = http.StatusInternalServerError
		if code == faults.CodeStoreUnavailable || code == faults.CodeEmptyStore {
			status = http.StatusServiceUnavailable
		}
	}

	errorCode := code
	if errorCode == "" {
		errorCode = kind.String()
	}
	RespondWithError(c, status, errorCode, faults.MessageOf(err), nil)
}
