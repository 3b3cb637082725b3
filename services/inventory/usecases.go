package main

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/authz"
	"github.com/matheusmosca/orders-inventory/internal/inventory"
	"github.com/matheusmosca/orders-inventory/internal/response"
	"github.com/matheusmosca/orders-inventory/internal/uow"
	"github.com/matheusmosca/orders-inventory/internal/usecase"
)

const (
	itemSubject  = "inventory item"
	stockSubject = "stock"
)

type CreateItemRequest struct {
	Name            string           `json:"name" binding:"required,max=200"`
	Description     string           `json:"description" binding:"max=2000"`
	SKU             string           `json:"sku" binding:"required,max=64"`
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	InitialQuantity int              `json:"initialQuantity" binding:"gte=0"`
}

// UpdateItemRequest keeps the current unit price and active flag when they
// are omitted.
type UpdateItemRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Description string           `json:"description" binding:"max=2000"`
	UnitPrice   *decimal.Decimal `json:"unitPrice"`
	IsActive    *bool            `json:"isActive"`
}

type AdjustStockRequest struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required,max=500"`
}

type InventoryUseCase struct {
	scopes   *uow.Factory
	observer usecase.Observer
}

func NewInventoryUseCase(scopes *uow.Factory, observer usecase.Observer) *InventoryUseCase {
	return &InventoryUseCase{scopes: scopes, observer: observer}
}

// CreateItem creates the item and its initial stock in one transaction.
func (uc *InventoryUseCase) CreateItem(ctx context.Context, caller auth.Identity, req CreateItemRequest) response.Response[inventory.Item] {
	op := usecase.Operation{Name: "inventory.create_item", Caller: caller}
	return usecase.Run(ctx, uc.observer, op, "inventory item created", func(ctx context.Context) (inventory.Item, error) {
		if req.UnitPrice == nil {
			return inventory.Item{}, apperr.Validation(op.Name, "unit price is required")
		}
		if req.UnitPrice.IsNegative() {
			return inventory.Item{}, apperr.Validation(op.Name, "unit price must not be negative")
		}

		return uow.Transact(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (inventory.Item, error) {
			item, err := u.Inventory().CreateItem(ctx, inventory.NewItem{
				Name:        req.Name,
				Description: req.Description,
				SKU:         req.SKU,
				UnitPrice:   *req.UnitPrice,
			}, caller.ID).Unwrap(itemSubject)
			if err != nil {
				return inventory.Item{}, err
			}

			stock, err := u.Inventory().CreateStock(ctx, item.ID, req.InitialQuantity, caller.ID).Unwrap(stockSubject)
			if err != nil {
				return inventory.Item{}, err
			}
			item.Stock = &stock
			return item, nil
		})
	})
}

func (uc *InventoryUseCase) GetItem(ctx context.Context, caller auth.Identity, id int64) response.Response[inventory.Item] {
	op := usecase.Operation{Name: "inventory.get_item", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "inventory item retrieved", func(ctx context.Context) (inventory.Item, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (inventory.Item, error) {
			return authz.Fetched(caller, authz.Read, itemSubject, u.Inventory().GetByID(ctx, id))
		})
	})
}

func (uc *InventoryUseCase) ListItems(ctx context.Context, caller auth.Identity) response.Response[[]inventory.Item] {
	op := usecase.Operation{Name: "inventory.list_items", Caller: caller}
	return usecase.Run(ctx, uc.observer, op, "inventory items retrieved", func(ctx context.Context) ([]inventory.Item, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) ([]inventory.Item, error) {
			return u.Inventory().GetAll(ctx, authz.OwnerFilter(caller)).Unwrap(itemSubject)
		})
	})
}

func (uc *InventoryUseCase) UpdateItem(ctx context.Context, caller auth.Identity, id int64, req UpdateItemRequest) response.Response[inventory.Item] {
	op := usecase.Operation{Name: "inventory.update_item", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "inventory item updated", func(ctx context.Context) (inventory.Item, error) {
		if req.UnitPrice != nil && req.UnitPrice.IsNegative() {
			return inventory.Item{}, apperr.Validation(op.Name, "unit price must not be negative")
		}

		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (inventory.Item, error) {
			current, err := authz.Fetched(caller, authz.Mutate, itemSubject, u.Inventory().GetByID(ctx, id))
			if err != nil {
				return inventory.Item{}, err
			}

			price, active := current.UnitPrice, current.IsActive
			if req.UnitPrice != nil {
				price = *req.UnitPrice
			}
			if req.IsActive != nil {
				active = *req.IsActive
			}
			return u.Inventory().Update(ctx, id, inventory.Changes{
				Name:        req.Name,
				Description: req.Description,
				UnitPrice:   price,
				IsActive:    active,
			}, caller.ID).Unwrap(itemSubject)
		})
	})
}

// DeleteItem soft-deletes the item and its stock. Deleting it again is not
// found.
func (uc *InventoryUseCase) DeleteItem(ctx context.Context, caller auth.Identity, id int64) response.Response[inventory.Item] {
	op := usecase.Operation{Name: "inventory.delete_item", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "inventory item deleted", func(ctx context.Context) (inventory.Item, error) {
		return uow.Transact(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (inventory.Item, error) {
			if _, err := authz.Fetched(caller, authz.Mutate, itemSubject, u.Inventory().GetByID(ctx, id)); err != nil {
				return inventory.Item{}, err
			}
			return u.Inventory().Delete(ctx, id, caller.ID).Unwrap(itemSubject)
		})
	})
}

// GetStock returns the stock of an item the caller may read.
func (uc *InventoryUseCase) GetStock(ctx context.Context, caller auth.Identity, itemID int64) response.Response[inventory.Stock] {
	op := usecase.Operation{Name: "inventory.get_stock", Caller: caller, ResourceID: itemID}
	return usecase.Run(ctx, uc.observer, op, "stock retrieved", func(ctx context.Context) (inventory.Stock, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (inventory.Stock, error) {
			if _, err := authz.Fetched(caller, authz.Read, itemSubject, u.Inventory().GetByID(ctx, itemID)); err != nil {
				return inventory.Stock{}, err
			}
			return u.Inventory().GetStock(ctx, itemID).Unwrap(stockSubject)
		})
	})
}

// AdjustStock changes the on-hand quantity of an item the caller may mutate.
func (uc *InventoryUseCase) AdjustStock(ctx context.Context, caller auth.Identity, itemID int64, req AdjustStockRequest) response.Response[inventory.Stock] {
	op := usecase.Operation{Name: "inventory.adjust_stock", Caller: caller, ResourceID: itemID}
	return usecase.Run(ctx, uc.observer, op, "stock adjusted", func(ctx context.Context) (inventory.Stock, error) {
		return uow.Transact(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (inventory.Stock, error) {
			if _, err := authz.Fetched(caller, authz.Mutate, itemSubject, u.Inventory().GetByID(ctx, itemID)); err != nil {
				return inventory.Stock{}, err
			}
			return u.Inventory().AdjustStock(ctx, itemID, req.Delta, req.Reason, caller.ID).Unwrap(stockSubject)
		})
	})
}
