package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/request"
	"github.com/matheusmosca/orders-inventory/internal/response"
	"github.com/matheusmosca/orders-inventory/internal/users"
)

// IdentityUseCaseInterface is what the handlers need from the use cases.
type IdentityUseCaseInterface interface {
	Login(ctx context.Context, req LoginRequest) response.Response[auth.Session]
	Register(ctx context.Context, req RegisterRequest) response.Response[users.User]
	RegisterAdmin(ctx context.Context, caller auth.Identity, req RegisterRequest) response.Response[users.User]
	Me(ctx context.Context, caller auth.Identity) response.Response[auth.Identity]
}

type IdentityHandler struct {
	useCase IdentityUseCaseInterface
}

func NewIdentityHandler(useCase IdentityUseCaseInterface) *IdentityHandler {
	return &IdentityHandler{useCase: useCase}
}

// Register mounts the public login and registration routes and the
// authenticated ones.
func (h *IdentityHandler) Register(r gin.IRouter, tokens *auth.TokenIssuer) {
	g := r.Group("/api/auth")
	g.POST("/login", h.Login)
	g.POST("/register", h.RegisterUser)

	protected := g.Group("", auth.Middleware(tokens))
	protected.GET("/me", auth.RequireRole(auth.RoleUser, auth.RoleAdmin), h.Me)
	protected.POST("/admins", auth.RequireRole(auth.RoleAdmin), h.RegisterAdmin)
}

func (h *IdentityHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusOK, h.useCase.Login(c.Request.Context(), req))
}

func (h *IdentityHandler) RegisterUser(c *gin.Context) {
	var req RegisterRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusCreated, h.useCase.Register(c.Request.Context(), req))
}

func (h *IdentityHandler) RegisterAdmin(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)

	var req RegisterRequest
	if err := request.BindJSON(c, &req); err != nil {
		response.Abort(c, err)
		return
	}

	response.Write(c, http.StatusCreated, h.useCase.RegisterAdmin(c.Request.Context(), caller, req))
}

func (h *IdentityHandler) Me(c *gin.Context) {
	caller, _ := auth.CallerFrom(c)
	response.Write(c, http.StatusOK, h.useCase.Me(c.Request.Context(), caller))
}
