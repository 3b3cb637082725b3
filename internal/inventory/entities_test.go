package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/matheusmosca/orders-inventory/internal/resource"
)

func TestItemValidate(t *testing.T) {
	base := func(id int64) resource.Base {
		return resource.Base{ID: id, IsActive: true, CreatedDate: time.Now()}
	}

	tests := []struct {
		name string
		item Item
		want error
	}{
		{"without stock", Item{Base: base(1), UnitPrice: decimal.RequireFromString("9.99")}, nil},
		{"free item", Item{Base: base(1), UnitPrice: decimal.Zero}, nil},
		{"with stock", Item{Base: base(1), Stock: &Stock{Base: base(4), ItemID: 1, Quantity: 3}}, nil},
		{"negative price", Item{Base: base(1), UnitPrice: decimal.RequireFromString("-0.01")}, ErrNegativePrice},
		{"stock of another item", Item{Base: base(1), Stock: &Stock{Base: base(4), ItemID: 2}}, ErrStockMismatch},
		{"negative stock", Item{Base: base(1), Stock: &Stock{Base: base(4), ItemID: 1, Quantity: -1}}, ErrNegativeStock},
		{"missing audit", Item{Base: resource.Base{ID: 1}}, resource.ErrMissingCreatedDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.item.Validate(), tt.want)
		})
	}
}
