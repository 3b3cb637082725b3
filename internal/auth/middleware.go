package auth

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/response"
)

const identityKey = "auth.identity"

// Middleware requires a valid bearer token and stores the caller identity on
// the request.
func Middleware(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "auth.Middleware"

		header := c.GetHeader("Authorization")
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
			response.Abort(c, apperr.Unauthenticated(op, "missing bearer token"))
			return
		}

		identity, err := tokens.Parse(strings.TrimSpace(value))
		if err != nil {
			response.Abort(c, apperr.Wrap(apperr.KindUnauthenticated, op, "invalid or expired token", err))
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireRole lets the request through only for the given roles. It must run
// after Middleware.
func RequireRole(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := CallerFrom(c)
		if !ok {
			response.Abort(c, apperr.Unauthenticated("auth.RequireRole", "authentication required"))
			return
		}
		if !slices.Contains(roles, identity.Role) {
			response.Abort(c, apperr.Forbidden("auth.RequireRole", "role not permitted"))
			return
		}
		c.Next()
	}
}

// CallerFrom returns the identity stored by Middleware.
func CallerFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	identity, ok := v.(Identity)
	return identity, ok
}
