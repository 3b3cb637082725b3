// Package response builds the envelope every service returns to callers and
// maps its error code to an HTTP status.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
)

// Response is the body of every reply. ErrorCode 0 is success.
type Response[T any] struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
	Data      *T     `json:"data"`
}

func OK[T any](message string, data T) Response[T] {
	return Response[T]{Message: message, ErrorCode: apperr.CodeOK, Data: &data}
}

// FromError classifies err. Errors outside the taxonomy become a 500 whose
// message hides the cause.
func FromError[T any](err error) Response[T] {
	return Response[T]{
		Message:   apperr.PublicMessage(err),
		ErrorCode: apperr.KindOf(err).Code(),
	}
}

// Status returns the HTTP status for the response, using success for
// ErrorCode 0.
func (r Response[T]) Status(success int) int {
	if r.ErrorCode == apperr.CodeOK {
		return success
	}
	return HTTPStatus(r.ErrorCode)
}

// HTTPStatus maps a nonzero error code to exactly one status. Codes outside
// the taxonomy map to 500.
func HTTPStatus(code int) int {
	switch code {
	case apperr.CodeValidationFailed:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Write sends r with its mapped status.
func Write[T any](c *gin.Context, success int, r Response[T]) {
	c.JSON(r.Status(success), r)
}

// Abort sends an error response and stops the handler chain.
func Abort(c *gin.Context, err error) {
	r := FromError[struct{}](err)
	c.AbortWithStatusJSON(r.Status(http.StatusOK), r)
}
