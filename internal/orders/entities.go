package orders

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/orders-inventory/internal/resource"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// transitions lists the legal next states. Terminal states have none.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
	StatusDelivered: nil,
	StatusCancelled: nil,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

var (
	ErrLineTotalMismatch  = errors.New("line total does not equal quantity times unit price")
	ErrOrderTotalMismatch = errors.New("order total does not equal the sum of its active lines")
	ErrUnknownStatus      = errors.New("unknown order status")
)

// Order is a customer order. CreatedBy is the owning user.
type Order struct {
	resource.Base
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Status        Status          `json:"status"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Items         []OrderItem     `json:"items"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	resource.Base
	OrderID    int64           `json:"orderId"`
	ItemID     int64           `json:"itemId"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

// LineItem is what a caller asks for when placing an order.
type LineItem struct {
	ItemID   int64 `json:"itemId" binding:"required,gt=0"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// NewOrder holds the caller supplied fields of an order to be created.
type NewOrder struct {
	CustomerName  string
	CustomerEmail string
	Items         []LineItem
}

// Changes holds the fields an owner may edit while the order is pending.
type Changes struct {
	CustomerName  string
	CustomerEmail string
}

// Validate checks the audit fields of the order and its lines and the status.
func (o Order) Validate() error {
	if err := o.Base.Validate(); err != nil {
		return fmt.Errorf("order %d: %w", o.ID, err)
	}
	if !o.Status.Valid() {
		return fmt.Errorf("order %d: %w %q", o.ID, ErrUnknownStatus, o.Status)
	}
	for _, item := range o.Items {
		if err := item.Base.Validate(); err != nil {
			return fmt.Errorf("order %d item %d: %w", o.ID, item.ID, err)
		}
	}
	return nil
}

// CheckTotals verifies every active line total and the order total.
func (o Order) CheckTotals() error {
	sum := decimal.Zero
	for _, item := range o.Items {
		if !item.Visible() {
			continue
		}
		expected := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		if !item.TotalPrice.Equal(expected) {
			return fmt.Errorf("order %d item %d: %w", o.ID, item.ID, ErrLineTotalMismatch)
		}
		sum = sum.Add(item.TotalPrice)
	}
	if !sum.Equal(o.TotalAmount) {
		return fmt.Errorf("order %d: %w", o.ID, ErrOrderTotalMismatch)
	}
	return nil
}

// ActiveItems returns the lines that are not soft-deleted.
func (o Order) ActiveItems() []OrderItem {
	active := make([]OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		if item.Visible() {
			active = append(active, item)
		}
	}
	return active
}
