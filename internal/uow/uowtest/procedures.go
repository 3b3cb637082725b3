package uowtest

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/inventory"
	"github.com/matheusmosca/orders-inventory/internal/orders"
	"github.com/matheusmosca/orders-inventory/internal/resource"
	"github.com/matheusmosca/orders-inventory/internal/users"
)

const (
	TableOrders         = "orders"
	TableOrderItems     = "order_items"
	TableItems          = "inventory_items"
	TableStock          = "stock"
	TableStockMovements = "stock_movements"
	TableUsers          = "users"
)

func newBase(s *Store, table string, createdBy int64) resource.Base {
	return resource.Base{
		ID:          s.NextID(table),
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedDate: s.Now(),
	}
}

func touch(b *resource.Base, s *Store, by int64) {
	now := s.Now()
	b.UpdatedBy = &by
	b.UpdatedDate = &now
}

// WithOrders registers the orders database procedures. prices is the catalog
// the order lines are priced from.
func (db *FakeDB) WithOrders(prices map[int64]decimal.Decimal) *FakeDB {
	db.Register(orders.ProcCreate, func(s *Store, a Args) Result {
		var lines []orders.LineItem
		a.JSON("p_items", &lines)
		if len(lines) == 0 {
			return Code(apperr.CodeValidationFailed)
		}
		for _, l := range lines {
			if _, ok := prices[l.ItemID]; !ok || l.Quantity <= 0 {
				return Code(apperr.CodeValidationFailed)
			}
		}

		createdBy := a.Int64("p_created_by")
		o := orders.Order{
			Base:          newBase(s, TableOrders, createdBy),
			CustomerName:  a.String("p_customer_name"),
			CustomerEmail: a.String("p_customer_email"),
			Status:        orders.StatusPending,
			TotalAmount:   decimal.Zero,
		}
		s.Put(TableOrders, o.ID, o)

		for _, l := range lines {
			price := prices[l.ItemID]
			item := orders.OrderItem{
				Base:       newBase(s, TableOrderItems, createdBy),
				OrderID:    o.ID,
				ItemID:     l.ItemID,
				Quantity:   l.Quantity,
				UnitPrice:  price,
				TotalPrice: price.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			s.Put(TableOrderItems, item.ID, item)
			o.TotalAmount = o.TotalAmount.Add(item.TotalPrice)
		}
		s.Put(TableOrders, o.ID, o)

		return OK(loadOrder(s, o))
	})

	db.Register(orders.ProcGetByID, func(s *Store, a Args) Result {
		o, ok := visibleOrder(s, a.Int64("p_order_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		return OK(loadOrder(s, o))
	})

	db.Register(orders.ProcGetAll, func(s *Store, a Args) Result {
		owner := a.OptInt64("p_owner_id")
		list := []orders.Order{}
		for _, o := range Rows[orders.Order](s, TableOrders) {
			if o.IsDeleted || (owner != nil && o.CreatedBy != *owner) {
				continue
			}
			list = append(list, loadOrder(s, o))
		}
		return OK(list)
	})

	db.Register(orders.ProcUpdate, func(s *Store, a Args) Result {
		o, ok := visibleOrder(s, a.Int64("p_order_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		if o.Status != orders.StatusPending {
			return Code(apperr.CodeConflict)
		}
		o.CustomerName = a.String("p_customer_name")
		o.CustomerEmail = a.String("p_customer_email")
		touch(&o.Base, s, a.Int64("p_updated_by"))
		s.Put(TableOrders, o.ID, o)
		return OK(loadOrder(s, o))
	})

	db.Register(orders.ProcUpdateStatus, func(s *Store, a Args) Result {
		o, ok := visibleOrder(s, a.Int64("p_order_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		next := orders.Status(a.String("p_status"))
		if !next.Valid() {
			return Code(apperr.CodeValidationFailed)
		}
		if !orders.CanTransition(o.Status, next) {
			return Code(apperr.CodeConflict)
		}
		o.Status = next
		touch(&o.Base, s, a.Int64("p_updated_by"))
		s.Put(TableOrders, o.ID, o)
		return OK(loadOrder(s, o))
	})

	db.Register(orders.ProcCancel, func(s *Store, a Args) Result {
		o, ok := visibleOrder(s, a.Int64("p_order_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		if !orders.CanTransition(o.Status, orders.StatusCancelled) {
			return Code(apperr.CodeConflict)
		}
		o.Status = orders.StatusCancelled
		touch(&o.Base, s, a.Int64("p_updated_by"))
		s.Put(TableOrders, o.ID, o)
		return OK(loadOrder(s, o))
	})

	db.Register(orders.ProcDelete, func(s *Store, a Args) Result {
		o, ok := visibleOrder(s, a.Int64("p_order_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		by := a.Int64("p_updated_by")
		for _, item := range Rows[orders.OrderItem](s, TableOrderItems) {
			if item.OrderID != o.ID || item.IsDeleted {
				continue
			}
			item.IsDeleted, item.IsActive = true, false
			touch(&item.Base, s, by)
			s.Put(TableOrderItems, item.ID, item)
		}
		o.IsDeleted, o.IsActive = true, false
		touch(&o.Base, s, by)
		s.Put(TableOrders, o.ID, o)
		return OK(loadOrder(s, o))
	})

	return db
}

func visibleOrder(s *Store, id int64) (orders.Order, bool) {
	o, ok := Get[orders.Order](s, TableOrders, id)
	if !ok || o.IsDeleted {
		return orders.Order{}, false
	}
	return o, true
}

func loadOrder(s *Store, o orders.Order) orders.Order {
	o.Items = []orders.OrderItem{}
	for _, item := range Rows[orders.OrderItem](s, TableOrderItems) {
		if item.OrderID == o.ID {
			o.Items = append(o.Items, item)
		}
	}
	return o
}

// WithInventory registers the inventory database procedures.
func (db *FakeDB) WithInventory() *FakeDB {
	db.Register(inventory.ProcCreateItem, func(s *Store, a Args) Result {
		sku := a.String("p_sku")
		price := a.Decimal("p_unit_price")
		if price.IsNegative() {
			return Code(apperr.CodeValidationFailed)
		}
		for _, existing := range Rows[inventory.Item](s, TableItems) {
			if !existing.IsDeleted && strings.EqualFold(existing.SKU, sku) {
				return Code(apperr.CodeConflict)
			}
		}

		item := inventory.Item{
			Base:        newBase(s, TableItems, a.Int64("p_created_by")),
			Name:        a.String("p_name"),
			Description: a.String("p_description"),
			SKU:         sku,
			UnitPrice:   price,
		}
		s.Put(TableItems, item.ID, item)
		return OK(item)
	})

	db.Register(inventory.ProcCreateStock, func(s *Store, a Args) Result {
		itemID := a.Int64("p_item_id")
		if _, ok := visibleItem(s, itemID); !ok {
			return Code(apperr.CodeNotFound)
		}
		if _, ok := stockOf(s, itemID); ok {
			return Code(apperr.CodeConflict)
		}
		quantity := a.Int("p_quantity")
		if quantity < 0 {
			return Code(apperr.CodeValidationFailed)
		}

		stock := inventory.Stock{
			Base:     newBase(s, TableStock, a.Int64("p_created_by")),
			ItemID:   itemID,
			Quantity: quantity,
		}
		s.Put(TableStock, stock.ID, stock)
		return OK(stock)
	})

	db.Register(inventory.ProcGetByID, func(s *Store, a Args) Result {
		item, ok := visibleItem(s, a.Int64("p_item_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		return OK(withStock(s, item))
	})

	db.Register(inventory.ProcGetAll, func(s *Store, a Args) Result {
		owner := a.OptInt64("p_owner_id")
		list := []inventory.Item{}
		for _, item := range Rows[inventory.Item](s, TableItems) {
			if item.IsDeleted || (owner != nil && item.CreatedBy != *owner) {
				continue
			}
			list = append(list, withStock(s, item))
		}
		return OK(list)
	})

	db.Register(inventory.ProcUpdate, func(s *Store, a Args) Result {
		item, ok := visibleItem(s, a.Int64("p_item_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		price := a.Decimal("p_unit_price")
		if price.IsNegative() {
			return Code(apperr.CodeValidationFailed)
		}
		item.Name = a.String("p_name")
		item.Description = a.String("p_description")
		item.UnitPrice = price
		item.IsActive = a.Bool("p_is_active")
		touch(&item.Base, s, a.Int64("p_updated_by"))
		s.Put(TableItems, item.ID, item)
		return OK(withStock(s, item))
	})

	db.Register(inventory.ProcDelete, func(s *Store, a Args) Result {
		item, ok := visibleItem(s, a.Int64("p_item_id"))
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		by := a.Int64("p_updated_by")
		item.IsDeleted, item.IsActive = true, false
		touch(&item.Base, s, by)
		s.Put(TableItems, item.ID, item)

		if stock, ok := stockOf(s, item.ID); ok {
			stock.IsDeleted, stock.IsActive = true, false
			touch(&stock.Base, s, by)
			s.Put(TableStock, stock.ID, stock)
			item.Stock = &stock
		}
		return OK(item)
	})

	db.Register(inventory.ProcGetStock, func(s *Store, a Args) Result {
		itemID := a.Int64("p_item_id")
		if _, ok := visibleItem(s, itemID); !ok {
			return Code(apperr.CodeNotFound)
		}
		stock, ok := stockOf(s, itemID)
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		return OK(stock)
	})

	db.Register(inventory.ProcAdjustStock, func(s *Store, a Args) Result {
		itemID := a.Int64("p_item_id")
		if _, ok := visibleItem(s, itemID); !ok {
			return Code(apperr.CodeNotFound)
		}
		stock, ok := stockOf(s, itemID)
		if !ok {
			return Code(apperr.CodeNotFound)
		}
		delta := a.Int("p_delta")
		if stock.Quantity+delta < 0 {
			return Code(apperr.CodeConflict)
		}

		by := a.Int64("p_updated_by")
		movement := stockMovement{
			ID:     s.NextID(TableStockMovements),
			ItemID: itemID,
			Delta:  delta,
			Reason: a.String("p_reason"),
			By:     by,
		}
		s.Put(TableStockMovements, movement.ID, movement)

		stock.Quantity += delta
		touch(&stock.Base, s, by)
		s.Put(TableStock, stock.ID, stock)
		return OK(stock)
	})

	return db
}

type stockMovement struct {
	ID     int64
	ItemID int64
	Delta  int
	Reason string
	By     int64
}

func visibleItem(s *Store, id int64) (inventory.Item, bool) {
	item, ok := Get[inventory.Item](s, TableItems, id)
	if !ok || item.IsDeleted {
		return inventory.Item{}, false
	}
	return item, true
}

func stockOf(s *Store, itemID int64) (inventory.Stock, bool) {
	for _, stock := range Rows[inventory.Stock](s, TableStock) {
		if stock.ItemID == itemID && !stock.IsDeleted {
			return stock, true
		}
	}
	return inventory.Stock{}, false
}

func withStock(s *Store, item inventory.Item) inventory.Item {
	if stock, ok := stockOf(s, item.ID); ok {
		item.Stock = &stock
	}
	return item
}

// UserRow is an account as the fake identity database stores it.
type UserRow struct {
	users.Credential
	Audit resource.Base
}

// WithUsers registers the identity database procedures.
func (db *FakeDB) WithUsers() *FakeDB {
	db.Register(users.ProcGetByUsername, func(s *Store, a Args) Result {
		username := a.String("p_username")
		for _, u := range Rows[UserRow](s, TableUsers) {
			if u.Username == username {
				return OK(u.Credential)
			}
		}
		return Code(apperr.CodeNotFound)
	})

	db.Register(users.ProcCreate, func(s *Store, a Args) Result {
		username, email := a.String("p_username"), a.String("p_email")
		role := a.String("p_role")
		if role != "User" && role != "Admin" {
			return Code(apperr.CodeValidationFailed)
		}
		for _, u := range Rows[UserRow](s, TableUsers) {
			if strings.EqualFold(u.Username, username) || strings.EqualFold(u.Email, email) {
				return Code(apperr.CodeConflict)
			}
		}

		createdBy := a.OptInt64("p_created_by")
		var owner int64
		if createdBy != nil {
			owner = *createdBy
		}
		base := newBase(s, TableUsers, owner)
		row := UserRow{
			Credential: users.Credential{
				ID:           base.ID,
				Username:     username,
				Email:        email,
				PasswordHash: a.String("p_password_hash"),
				Role:         role,
				IsActive:     true,
			},
			Audit: base,
		}
		s.Put(TableUsers, row.ID, row)
		return OK(users.User{Base: base, Username: username, Email: email, Role: role})
	})

	return db
}

// SeedUser stores an account directly and returns its id.
func SeedUser(s *Store, c users.Credential) int64 {
	base := newBase(s, TableUsers, 0)
	c.ID = base.ID
	s.Put(TableUsers, c.ID, UserRow{Credential: c, Audit: base})
	return c.ID
}
