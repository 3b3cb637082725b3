// Package request reads and validates path and body input of gin handlers.
package request

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
)

// ID reads the positive integer path parameter "id".
func ID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("request.ID", "id must be a positive integer")
	}
	return id, nil
}

// BindJSON decodes and validates the body into dst.
func BindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Wrap(apperr.KindValidationFailed, "request.BindJSON", "invalid request body: "+err.Error(), err)
	}
	return nil
}
