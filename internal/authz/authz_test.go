package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/resource"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

var (
	owner    = auth.Identity{ID: 7, Username: "ada", Role: auth.RoleUser}
	stranger = auth.Identity{ID: 8, Username: "bob", Role: auth.RoleUser}
	admin    = auth.Identity{ID: 1, Username: "root", Role: auth.RoleAdmin}
)

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name   string
		caller auth.Identity
		op     Operation
		want   apperr.Kind
		allow  bool
	}{
		{"owner reads", owner, Read, 0, true},
		{"owner mutates", owner, Mutate, 0, true},
		{"owner admin only", owner, AdminOnly, apperr.KindForbidden, false},
		{"stranger reads", stranger, Read, apperr.KindForbidden, false},
		{"stranger mutates", stranger, Mutate, apperr.KindForbidden, false},
		{"admin reads", admin, Read, 0, true},
		{"admin mutates", admin, Mutate, 0, true},
		{"admin admin only", admin, AdminOnly, 0, true},
		{"anonymous", auth.Identity{}, Read, apperr.KindUnauthenticated, false},
		{"unknown role", auth.Identity{ID: 7, Role: "Root"}, Read, apperr.KindUnauthenticated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.caller, tt.op, "order", owner.ID)

			if tt.allow {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestAuthorize_DenialMessage(t *testing.T) {
	err := Authorize(stranger, Mutate, "inventory item", owner.ID)

	assert.Equal(t, "access to inventory item denied", apperr.PublicMessage(err))
}

type owned struct {
	resource.Base
}

func TestFetched(t *testing.T) {
	doc := owned{Base: resource.Base{ID: 3, CreatedBy: owner.ID, CreatedDate: time.Now()}}

	t.Run("owner gets the resource", func(t *testing.T) {
		got, err := Fetched(owner, Read, "order", storedproc.Envelope[owned]{Data: &doc})

		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ID)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		_, err := Fetched(stranger, Read, "order", storedproc.Envelope[owned]{Data: &doc})

		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("not found comes before forbidden", func(t *testing.T) {
		_, err := Fetched(stranger, Mutate, "order", storedproc.Envelope[owned]{ErrorCode: apperr.CodeNotFound})

		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		assert.Equal(t, "order not found", apperr.PublicMessage(err))
	})
}

func TestOwnerFilter(t *testing.T) {
	assert.Nil(t, OwnerFilter(admin))
	require.NotNil(t, OwnerFilter(owner))
	assert.Equal(t, owner.ID, *OwnerFilter(owner))
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "read", Read.String())
	assert.Equal(t, "mutate", Mutate.String())
	assert.Equal(t, "admin", AdminOnly.String())
}
