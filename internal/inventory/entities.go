package inventory

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/orders-inventory/internal/resource"
)

var (
	ErrNegativePrice = errors.New("unit price is negative")
	ErrNegativeStock = errors.New("stock quantity is negative")
	ErrStockMismatch = errors.New("stock belongs to another item")
)

// Item is a sellable inventory item. CreatedBy is the owning user.
type Item struct {
	resource.Base
	Name        string          `json:"name"`
	Description string          `json:"description"`
	SKU         string          `json:"sku"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Stock       *Stock          `json:"stock,omitempty"`
}

// Stock is the on-hand quantity of one item.
type Stock struct {
	resource.Base
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

// NewItem holds the caller supplied fields of an item to be created.
type NewItem struct {
	Name        string
	Description string
	SKU         string
	UnitPrice   decimal.Decimal
}

// Changes holds the editable fields of an item.
type Changes struct {
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	IsActive    bool
}

func (i Item) Validate() error {
	if err := i.Base.Validate(); err != nil {
		return fmt.Errorf("item %d: %w", i.ID, err)
	}
	if i.UnitPrice.IsNegative() {
		return fmt.Errorf("item %d: %w", i.ID, ErrNegativePrice)
	}
	if i.Stock != nil {
		if i.Stock.ItemID != i.ID {
			return fmt.Errorf("item %d: %w", i.ID, ErrStockMismatch)
		}
		return i.Stock.Validate()
	}
	return nil
}

func (s Stock) Validate() error {
	if err := s.Base.Validate(); err != nil {
		return fmt.Errorf("stock %d: %w", s.ID, err)
	}
	if s.Quantity < 0 {
		return fmt.Errorf("stock %d: %w", s.ID, ErrNegativeStock)
	}
	return nil
}
