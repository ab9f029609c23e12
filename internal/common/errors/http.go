// internal/common/errors/http.go
package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPResponder translates application errors into HTTP responses
// with a uniform JSON body. The core never formats responses itself;
// every handler funnels its errors through here.
type HTTPResponder struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewHTTPResponder(logger Logger) *HTTPResponder {
	return &HTTPResponder{logger: logger}
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	RequestID string    `json:"request_id,omitempty"`
}

// HTTPStatus maps an error code to the status the API returns for it.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeFoodNotFound, ErrCodeRecordNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidInput, ErrCodeValidationFailed:
		return http.StatusBadRequest
	case ErrCodeModelUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeInvalidCredentials, ErrCodeTokenInvalid, ErrCodeTokenRevoked:
		return http.StatusUnauthorized
	case ErrCodeUserAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond normalizes err, logs it, and writes the JSON error response.
// Client errors log at Warn, server errors at Error.
func (h *HTTPResponder) Respond(c *gin.Context, err error) {
	stdErr := AsStandardError(err)
	status := HTTPStatus(stdErr.Code)
	requestID := c.GetString("request_id")

	fields := map[string]interface{}{
		"requestId":     requestID,
		"path":          c.FullPath(),
		"method":        c.Request.Method,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", fields)
	} else {
		h.logger.Warn("Request rejected", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Code:      stdErr.Code,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		RequestID: requestID,
	})
}
