package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terpspark/terpspark-api/internal/domain/common"
)

// SuggestionHeader carries a machine-readable hint steering the client
// toward an alternative flow, e.g. joining the waitlist when an event is
// exactly full.
const SuggestionHeader = "X-Suggestion"

// Response is the standard API response envelope
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorBody is the envelope for error responses
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
}

// Success sends a successful response
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends an error response with the given status
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{
		Success: false,
		Error:   message,
		Code:    status,
	})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// DomainError translates a domain error into the matching HTTP status,
// attaching the suggestion header when the error carries a hint.
func DomainError(c *gin.Context, err error) {
	if hint := common.HintOf(err); hint != "" {
		c.Header(SuggestionHeader, hint)
	}

	message := err.Error()
	if domainErr := common.AsError(err); domainErr != nil {
		message = domainErr.Message
	}

	Error(c, statusFor(common.KindOf(err)), message)
}

func statusFor(kind common.Kind) int {
	switch kind {
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindInvalidState:
		return http.StatusUnprocessableEntity
	case common.KindForbidden:
		return http.StatusForbidden
	case common.KindConflict:
		return http.StatusConflict
	case common.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
