// Package inventory holds items with their stock and the repository over the
// inventory database procedures.
package inventory

import (
	"context"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

const (
	ProcCreateItem  = "sp_inventory_item_create"
	ProcCreateStock = "sp_inventory_stock_create"
	ProcGetByID     = "sp_inventory_item_get_by_id"
	ProcGetAll      = "sp_inventory_item_get_all"
	ProcUpdate      = "sp_inventory_item_update"
	ProcDelete      = "sp_inventory_item_delete"
	ProcGetStock    = "sp_inventory_stock_get"
	ProcAdjustStock = "sp_inventory_stock_adjust"
)

type Repository struct {
	gw *storedproc.Gateway
}

func NewRepository(gw *storedproc.Gateway) *Repository {
	return &Repository{gw: gw}
}

func (r *Repository) CreateItem(ctx context.Context, in NewItem, createdBy int64) storedproc.Envelope[Item] {
	return storedproc.Check(storedproc.Call[Item](ctx, r.gw, ProcCreateItem,
		storedproc.P("p_name", in.Name),
		storedproc.P("p_description", in.Description),
		storedproc.P("p_sku", in.SKU),
		storedproc.P("p_unit_price", in.UnitPrice),
		storedproc.P("p_created_by", createdBy),
	), Item.Validate)
}

// CreateStock records the initial stock of a new item.
func (r *Repository) CreateStock(ctx context.Context, itemID int64, quantity int, createdBy int64) storedproc.Envelope[Stock] {
	return storedproc.Check(storedproc.Call[Stock](ctx, r.gw, ProcCreateStock,
		storedproc.P("p_item_id", itemID),
		storedproc.P("p_quantity", quantity),
		storedproc.P("p_created_by", createdBy),
	), Stock.Validate)
}

// GetByID returns the item with its stock.
func (r *Repository) GetByID(ctx context.Context, id int64) storedproc.Envelope[Item] {
	env := storedproc.Check(storedproc.Call[Item](ctx, r.gw, ProcGetByID,
		storedproc.P("p_item_id", id),
	), Item.Validate)
	if env.OK() && env.Data != nil && !env.Data.Visible() {
		return storedproc.Envelope[Item]{Procedure: env.Procedure, ErrorCode: apperr.CodeNotFound}
	}
	return env
}

// GetAll lists visible items. A nil owner lists every owner's items. Null
// data is an empty list.
func (r *Repository) GetAll(ctx context.Context, ownerID *int64) storedproc.Envelope[[]Item] {
	env := storedproc.Check(storedproc.Call[[]Item](ctx, r.gw, ProcGetAll,
		storedproc.P("p_owner_id", ownerID),
	), func(list []Item) error {
		for _, item := range list {
			if err := item.Validate(); err != nil {
				return err
			}
		}
		return nil
	})
	if env.OK() {
		var all []Item
		if env.Data != nil {
			all = *env.Data
		}
		visible := make([]Item, 0, len(all))
		for _, item := range all {
			if item.Visible() {
				visible = append(visible, item)
			}
		}
		env.Data = &visible
	}
	return env
}

func (r *Repository) Update(ctx context.Context, id int64, in Changes, updatedBy int64) storedproc.Envelope[Item] {
	return storedproc.Check(storedproc.Call[Item](ctx, r.gw, ProcUpdate,
		storedproc.P("p_item_id", id),
		storedproc.P("p_name", in.Name),
		storedproc.P("p_description", in.Description),
		storedproc.P("p_unit_price", in.UnitPrice),
		storedproc.P("p_is_active", in.IsActive),
		storedproc.P("p_updated_by", updatedBy),
	), Item.Validate)
}

// Delete soft-deletes the item together with its stock.
func (r *Repository) Delete(ctx context.Context, id int64, updatedBy int64) storedproc.Envelope[Item] {
	return storedproc.Check(storedproc.Call[Item](ctx, r.gw, ProcDelete,
		storedproc.P("p_item_id", id),
		storedproc.P("p_updated_by", updatedBy),
	), Item.Validate)
}

func (r *Repository) GetStock(ctx context.Context, itemID int64) storedproc.Envelope[Stock] {
	return storedproc.Check(storedproc.Call[Stock](ctx, r.gw, ProcGetStock,
		storedproc.P("p_item_id", itemID),
	), Stock.Validate)
}

// AdjustStock adds delta to the on-hand quantity. A result below zero is a
// conflict.
func (r *Repository) AdjustStock(ctx context.Context, itemID int64, delta int, reason string, updatedBy int64) storedproc.Envelope[Stock] {
	return storedproc.Check(storedproc.Call[Stock](ctx, r.gw, ProcAdjustStock,
		storedproc.P("p_item_id", itemID),
		storedproc.P("p_delta", delta),
		storedproc.P("p_reason", reason),
		storedproc.P("p_updated_by", updatedBy),
	), Stock.Validate)
}
