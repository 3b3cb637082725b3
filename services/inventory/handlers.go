package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/inventory"
	"github.com/matheusmosca/orders-inventory/internal/request"
	"github.com/matheusmosca/orders-inventory/internal/response"
)

// InventoryUseCaseInterface is what the handlers need from the use cases.
type InventoryUseCaseInterface interface {
	CreateItem(ctx context.Context, caller auth.Identity, req CreateItemRequest) response.Response[inventory.Item]
	GetItem(ctx context.Context, caller auth.Identity, id int64) response.Response[inventory.Item]
	ListItems(ctx context.Context, caller auth.Identity) response.Response[[]inventory.Item]
	UpdateItem(ctx context.Context, caller auth.Identity, id int64, req UpdateItemRequest) response.Response[inventory.Item]
	DeleteItem(ctx context.Context, caller auth.Identity, id int64) response.Response[inventory.Item]
	GetStock(ctx context.Context, caller auth.Identity, itemID int64) response.Response[inventory.Stock]
	AdjustStock(ctx context.Context, caller auth.Identity, itemID int64, req AdjustStockRequest) response.Response[inventory.Stock]
}

type InventoryHandler struct {
	useCase InventoryUseCaseInterface
}

func NewInventoryHandler(useCase InventoryUseCaseInterface) *InventoryHandler {
	return &InventoryHandler{useCase: useCase}
}

func (h *InventoryHandler) Register(r gin.IRouter, tokens *auth.TokenIssuer) {
	g := r.Group("/api/inventory/items", auth.Middleware(tokens), auth.RequireRole(auth.RoleUser, auth.RoleAdmin))
	g.POST("", h.CreateItem)
	g.GET("", h.ListItems)
	g.GET("/:id", h.GetItem)
	g.PUT("/:id", h.UpdateItem)
	g.DELETE("/:id", h.DeleteItem)
	g.GET("/:id/stock", h.GetStock)
	g.POST("/:id/stock/adjustments", h.AdjustStock)
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)

	var req CreateItemRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusCreated, h.useCase.CreateItem(c.Request.Context(), caller, req))
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.GetItem(c.Request.Context(), caller, id))
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	response.Write(c, http.StatusOK, h.useCase.ListItems(c.Request.Context(), caller))
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	var req UpdateItemRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.UpdateItem(c.Request.Context(), caller, id, req))
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.DeleteItem(c.Request.Context(), caller, id))
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.GetStock(c.Request.Context(), caller, id))
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	var req AdjustStockRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.AdjustStock(c.Request.Context(), caller, id, req))
}
