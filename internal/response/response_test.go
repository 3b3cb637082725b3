package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{400, http.StatusBadRequest},
		{401, http.StatusUnauthorized},
		{403, http.StatusForbidden},
		{404, http.StatusNotFound},
		{409, http.StatusConflict},
		{500, http.StatusInternalServerError},
		{418, http.StatusInternalServerError},
		{-1, http.StatusInternalServerError},
		{503, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.code), "code %d", tt.code)
	}
}

func TestStatus_UsesSuccessForZero(t *testing.T) {
	assert.Equal(t, http.StatusCreated, OK("created", 1).Status(http.StatusCreated))
	assert.Equal(t, http.StatusNotFound, Response[int]{ErrorCode: 404}.Status(http.StatusCreated))
}

func TestFromError(t *testing.T) {
	conflict := FromError[int](apperr.Conflict("op", "order conflicts with its current state"))
	assert.Equal(t, 409, conflict.ErrorCode)
	assert.Equal(t, "order conflicts with its current state", conflict.Message)
	assert.Nil(t, conflict.Data)

	unknown := FromError[int](errors.New("pq: relation does not exist"))
	assert.Equal(t, 500, unknown.ErrorCode)
	assert.Equal(t, "internal error", unknown.Message)
}

func TestWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Write(c, http.StatusCreated, OK("order created", map[string]int{"id": 5}))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"message":"order created","errorCode":0,"data":{"id":5}}`, w.Body.String())
}

func TestAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Abort(c, apperr.Forbidden("op", "access to order denied"))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"access to order denied","errorCode":403,"data":null}`, w.Body.String())
}
