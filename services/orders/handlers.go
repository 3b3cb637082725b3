package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/orders"
	"github.com/matheusmosca/orders-inventory/internal/request"
	"github.com/matheusmosca/orders-inventory/internal/response"
)

// OrderUseCaseInterface is what the handlers need from the use cases.
type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, caller auth.Identity, req CreateOrderRequest) response.Response[orders.Order]
	GetOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order]
	ListOrders(ctx context.Context, caller auth.Identity) response.Response[[]orders.Order]
	UpdateOrder(ctx context.Context, caller auth.Identity, id int64, req UpdateOrderRequest) response.Response[orders.Order]
	UpdateOrderStatus(ctx context.Context, caller auth.Identity, id int64, req UpdateStatusRequest) response.Response[orders.Order]
	CancelOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order]
	DeleteOrder(ctx context.Context, caller auth.Identity, id int64) response.Response[orders.Order]
}

type OrderHandler struct {
	useCase OrderUseCaseInterface
}

func NewOrderHandler(useCase OrderUseCaseInterface) *OrderHandler {
	return &OrderHandler{useCase: useCase}
}

// Register mounts the order routes behind the bearer middleware.
func (h *OrderHandler) Register(r gin.IRouter, tokens *auth.TokenIssuer) {
	g := r.Group("/api/orders", auth.Middleware(tokens), auth.RequireRole(auth.RoleUser, auth.RoleAdmin))
	g.POST("", h.CreateOrder)
	g.GET("", h.ListOrders)
	g.GET("/:id", h.GetOrder)
	g.PUT("/:id", h.UpdateOrder)
	g.PATCH("/:id/status", h.UpdateOrderStatus)
	g.POST("/:id/cancel", h.CancelOrder)
	g.DELETE("/:id", h.DeleteOrder)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)

	var req CreateOrderRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusCreated, h.useCase.CreateOrder(c.Request.Context(), caller, req))
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.GetOrder(c.Request.Context(), caller, id))
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	response.Write(c, http.StatusOK, h.useCase.ListOrders(c.Request.Context(), caller))
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	var req UpdateOrderRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.UpdateOrder(c.Request.Context(), caller, id, req))
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.UpdateOrderStatus(c.Request.Context(), caller, id, req))
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.CancelOrder(c.Request.Context(), caller, id))
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	id, err := request.ID(c)
	if err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.DeleteOrder(c.Request.Context(), caller, id))
}
