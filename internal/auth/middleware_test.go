package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(tokens *TokenIssuer, roles ...Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", Middleware(tokens), RequireRole(roles...), func(c *gin.Context) {
		caller, _ := CallerFrom(c)
		c.JSON(http.StatusOK, caller)
	})
	return r
}

func get(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokenIssuer(testSecret, "orders-inventory", time.Hour)
	user, err := tokens.Issue(Identity{ID: 7, Username: "ada", Role: RoleUser})
	require.NoError(t, err)
	admin, err := tokens.Issue(Identity{ID: 1, Username: "root", Role: RoleAdmin})
	require.NoError(t, err)
	r := protectedRouter(tokens, RoleAdmin)

	tests := []struct {
		name          string
		authorization string
		status        int
		body          string
	}{
		{"no header", "", http.StatusUnauthorized, `{"message":"missing bearer token","errorCode":401,"data":null}`},
		{"wrong scheme", "Basic " + admin.Value, http.StatusUnauthorized, `{"message":"missing bearer token","errorCode":401,"data":null}`},
		{"bad token", "Bearer nope", http.StatusUnauthorized, `{"message":"invalid or expired token","errorCode":401,"data":null}`},
		{"role not permitted", "Bearer " + user.Value, http.StatusForbidden, `{"message":"role not permitted","errorCode":403,"data":null}`},
		{"admin", "bearer " + admin.Value, http.StatusOK, `{"id":1,"username":"root","email":"","role":"Admin"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.authorization)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestRequireRole_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", RequireRole(RoleUser), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
