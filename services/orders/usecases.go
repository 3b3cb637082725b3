package main

import (
	"context"
	"fmt"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/authz"
	"github.com/matheusmosca/orders-inventory/internal/orders"
	"github.com/matheusmosca/orders-inventory/internal/response"
	"github.com/matheusmosca/orders-inventory/internal/uow"
	"github.com/matheusmosca/orders-inventory/internal/usecase"
)

const subject = "order"

// CreateOrderRequest is the body of an order creation.
type CreateOrderRequest struct {
	CustomerName  string            `json:"customerName" binding:"required,max=200"`
	CustomerEmail string            `json:"customerEmail" binding:"required,email"`
	Items         []orders.LineItem `json:"items" binding:"required,min=1,dive"`
}

// UpdateOrderRequest is the body of an order update.
type UpdateOrderRequest struct {
	CustomerName  string `json:"customerName" binding:"required,max=200"`
	CustomerEmail string `json:"customerEmail" binding:"required,email"`
}

// UpdateStatusRequest is the body of a status change.
type UpdateStatusRequest struct {
	Status orders.Status `json:"status" binding:"required"`
}

// OrderUseCase holds the order operations. Each one runs in its own unit of
// work scope.
type OrderUseCase struct {
	scopes   *uow.Factory
	observer usecase.Observer
}

func NewOrderUseCase(scopes *uow.Factory, observer usecase.Observer) *OrderUseCase {
	return &OrderUseCase{scopes: scopes, observer: observer}
}

// CreateOrder places an order with all of its lines. The caller becomes the
// owner.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, caller auth.Identity, req CreateOrderRequest) response.Response[orders.Order] {
	op := usecase.Operation{Name: "orders.create", Caller: caller}
	return usecase.Run(ctx, uc.observer, op, "order created", func(ctx context.Context) (orders.Order, error) {
		return uow.Transact(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (orders.Order, error) {
			order, err := u.Orders().Create(ctx, orders.NewOrder{
				CustomerName:  req.CustomerName,
				CustomerEmail: req.CustomerEmail,
				Items:         req.Items,
			}, caller.ID).Unwrap(subject)
			if err != nil {
				return orders.Order{}, err
			}
			if err := order.CheckTotals(); err != nil {
				return orders.Order{}, apperr.Internal(op.Name, err)
			}
			if len(order.ActiveItems()) != len(req.Items) {
				return orders.Order{}, apperr.Internal(op.Name,
					fmt.Errorf("order %d has %d lines, %d requested", order.ID, len(order.ActiveItems()), len(req.Items)))
			}
			return order, nil
		})
	})
}

func (uc *OrderUseCase) GetOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order] {
	op := usecase.Operation{Name: "orders.get", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "order retrieved", func(ctx context.Context) (orders.Order, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (orders.Order, error) {
			return authz.Fetched(caller, authz.Read, subject, u.Orders().GetByID(ctx, id))
		})
	})
}

// ListOrders returns the caller's orders, or every order for an admin.
func (uc *OrderUseCase) ListOrders(ctx context.Context, caller auth.Identity) response.Response[[]orders.Order] {
	op := usecase.Operation{Name: "orders.list", Caller: caller}
	return usecase.Run(ctx, uc.observer, op, "orders retrieved", func(ctx context.Context) ([]orders.Order, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) ([]orders.Order, error) {
			return u.Orders().GetAll(ctx, authz.OwnerFilter(caller)).Unwrap(subject)
		})
	})
}

func (uc *OrderUseCase) UpdateOrder(ctx context.Context, caller auth.Identity, id int64, req UpdateOrderRequest) response.Response[orders.Order] {
	op := usecase.Operation{Name: "orders.update", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "order updated", func(ctx context.Context) (orders.Order, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (orders.Order, error) {
			if _, err := authz.Fetched(caller, authz.Mutate, subject, u.Orders().GetByID(ctx, id)); err != nil {
				return orders.Order{}, err
			}
			return u.Orders().Update(ctx, id, orders.Changes{
				CustomerName:  req.CustomerName,
				CustomerEmail: req.CustomerEmail,
			}, caller.ID).Unwrap(subject)
		})
	})
}

// UpdateOrderStatus moves an order through its lifecycle. Admins only.
func (uc *OrderUseCase) UpdateOrderStatus(ctx context.Context, caller auth.Identity, id int64, req UpdateStatusRequest) response.Response[orders.Order] {
	op := usecase.Operation{Name: "orders.update_status", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "order status updated", func(ctx context.Context) (orders.Order, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (orders.Order, error) {
			current, err := authz.Fetched(caller, authz.AdminOnly, subject, u.Orders().GetByID(ctx, id))
			if err != nil {
				return orders.Order{}, err
			}
			if !req.Status.Valid() {
				return orders.Order{}, apperr.Validation(op.Name, fmt.Sprintf("unknown status %q", req.Status))
			}
			if current.Status.Terminal() {
				return orders.Order{}, apperr.Conflict(op.Name, fmt.Sprintf("order is already %s", current.Status))
			}
			if !orders.CanTransition(current.Status, req.Status) {
				return orders.Order{}, apperr.Conflict(op.Name,
					fmt.Sprintf("order cannot move from %s to %s", current.Status, req.Status))
			}
			return u.Orders().UpdateStatus(ctx, id, req.Status, caller.ID).Unwrap(subject)
		})
	})
}

// CancelOrder cancels an order. Cancelling it again is a conflict.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order] {
	op := usecase.Operation{Name: "orders.cancel", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "order cancelled", func(ctx context.Context) (orders.Order, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (orders.Order, error) {
			current, err := authz.Fetched(caller, authz.Mutate, subject, u.Orders().GetByID(ctx, id))
			if err != nil {
				return orders.Order{}, err
			}
			if current.Status.Terminal() {
				return orders.Order{}, apperr.Conflict(op.Name, fmt.Sprintf("order is already %s", current.Status))
			}
			return u.Orders().Cancel(ctx, id, caller.ID).Unwrap(subject)
		})
	})
}

// DeleteOrder soft-deletes an order and its lines. Deleting it again is not
// found.
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order] {
	op := usecase.Operation{Name: "orders.delete", Caller: caller, ResourceID: id}
	return usecase.Run(ctx, uc.observer, op, "order deleted", func(ctx context.Context) (orders.Order, error) {
		return uow.Transact(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (orders.Order, error) {
			if _, err := authz.Fetched(caller, authz.Mutate, subject, u.Orders().GetByID(ctx, id)); err != nil {
				return orders.Order{}, err
			}
			return u.Orders().Delete(ctx, id, caller.ID).Unwrap(subject)
		})
	})
}
