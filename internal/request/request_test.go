package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
)

func TestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		param string
		want  int64
		ok    bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
		{"99999999999999999999", 0, false},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: tt.param}}

		id, err := ID(c)

		if tt.ok {
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
			continue
		}
		assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err), "param %q", tt.param)
	}
}

type body struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

func TestBindJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bind := func(raw string) (body, error) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		c.Request.Header.Set("Content-Type", "application/json")
		var b body
		err := BindJSON(c, &b)
		return b, err
	}

	b, err := bind(`{"name":"widget","quantity":3}`)
	require.NoError(t, err)
	assert.Equal(t, body{Name: "widget", Quantity: 3}, b)

	for _, raw := range []string{`{"quantity":3}`, `{"name":"w","quantity":-1}`, `{not json`} {
		_, err := bind(raw)
		assert.Equal(t, apperr.KindValidationFailed, apperr.KindOf(err), raw)
		assert.True(t, strings.HasPrefix(apperr.PublicMessage(err), "invalid request body: "), raw)
	}
}
