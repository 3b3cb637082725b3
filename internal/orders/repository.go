// Package orders holds the order entities and the repository that reaches
// them through the orders database procedures.
package orders

import (
	"context"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

const (
	ProcCreate       = "sp_order_create"
	ProcGetByID      = "sp_order_get_by_id"
	ProcGetAll       = "sp_order_get_all"
	ProcUpdate       = "sp_order_update"
	ProcUpdateStatus = "sp_order_update_status"
	ProcCancel       = "sp_order_cancel"
	ProcDelete       = "sp_order_delete"
)

// Repository runs order procedures through a gateway. Every method returns
// an envelope; expected outcomes such as not found are never Go errors.
type Repository struct {
	gw *storedproc.Gateway
}

func NewRepository(gw *storedproc.Gateway) *Repository {
	return &Repository{gw: gw}
}

// Create writes the order and all of its lines in one procedure call.
func (r *Repository) Create(ctx context.Context, in NewOrder, createdBy int64) storedproc.Envelope[Order] {
	items, err := storedproc.JSONParam("p_items", in.Items)
	if err != nil {
		return storedproc.Internal[Order](ProcCreate, err)
	}

	return r.order(storedproc.Call[Order](ctx, r.gw, ProcCreate,
		storedproc.P("p_customer_name", in.CustomerName),
		storedproc.P("p_customer_email", in.CustomerEmail),
		items,
		storedproc.P("p_created_by", createdBy),
	))
}

func (r *Repository) GetByID(ctx context.Context, id int64) storedproc.Envelope[Order] {
	return r.order(storedproc.Call[Order](ctx, r.gw, ProcGetByID,
		storedproc.P("p_order_id", id),
	))
}

// GetAll lists visible orders. A nil owner lists every owner's orders. Null
// data is an empty list.
func (r *Repository) GetAll(ctx context.Context, ownerID *int64) storedproc.Envelope[[]Order] {
	env := storedproc.Call[[]Order](ctx, r.gw, ProcGetAll,
		storedproc.P("p_owner_id", ownerID),
	)
	env = storedproc.Check(env, func(list []Order) error {
		for _, o := range list {
			if err := o.Validate(); err != nil {
				return err
			}
		}
		return nil
	})
	if env.OK() {
		var all []Order
		if env.Data != nil {
			all = *env.Data
		}
		visible := make([]Order, 0, len(all))
		for _, o := range all {
			if o.Visible() {
				visible = append(visible, o)
			}
		}
		env.Data = &visible
	}
	return env
}

func (r *Repository) Update(ctx context.Context, id int64, in Changes, updatedBy int64) storedproc.Envelope[Order] {
	return r.order(storedproc.Call[Order](ctx, r.gw, ProcUpdate,
		storedproc.P("p_order_id", id),
		storedproc.P("p_customer_name", in.CustomerName),
		storedproc.P("p_customer_email", in.CustomerEmail),
		storedproc.P("p_updated_by", updatedBy),
	))
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status, updatedBy int64) storedproc.Envelope[Order] {
	return r.order(storedproc.Call[Order](ctx, r.gw, ProcUpdateStatus,
		storedproc.P("p_order_id", id),
		storedproc.P("p_status", string(status)),
		storedproc.P("p_updated_by", updatedBy),
	))
}

// Cancel moves the order to Cancelled. Cancelling a cancelled order is a
// conflict.
func (r *Repository) Cancel(ctx context.Context, id int64, updatedBy int64) storedproc.Envelope[Order] {
	return r.order(storedproc.Call[Order](ctx, r.gw, ProcCancel,
		storedproc.P("p_order_id", id),
		storedproc.P("p_updated_by", updatedBy),
	))
}

// Delete soft-deletes the order and its lines. Deleting again is not found.
func (r *Repository) Delete(ctx context.Context, id int64, updatedBy int64) storedproc.Envelope[Order] {
	return storedproc.Check(storedproc.Call[Order](ctx, r.gw, ProcDelete,
		storedproc.P("p_order_id", id),
		storedproc.P("p_updated_by", updatedBy),
	), Order.Validate)
}

// order validates a single decoded order and hides a deleted one.
func (r *Repository) order(env storedproc.Envelope[Order]) storedproc.Envelope[Order] {
	env = storedproc.Check(env, Order.Validate)
	if env.OK() && env.Data != nil && !env.Data.Visible() {
		return storedproc.Envelope[Order]{Procedure: env.Procedure, ErrorCode: apperr.CodeNotFound}
	}
	return env
}
