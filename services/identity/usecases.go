package main

import (
	"context"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/authz"
	"github.com/matheusmosca/orders-inventory/internal/response"
	"github.com/matheusmosca/orders-inventory/internal/uow"
	"github.com/matheusmosca/orders-inventory/internal/usecase"
	"github.com/matheusmosca/orders-inventory/internal/users"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,max=72"`
}

// RegisterRequest limits the password to the 72 bytes bcrypt reads.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type IdentityUseCase struct {
	scopes    *uow.Factory
	tokens    *auth.TokenIssuer
	passwords *auth.Passwords
	observer  usecase.Observer
}

func NewIdentityUseCase(scopes *uow.Factory, tokens *auth.TokenIssuer, passwords *auth.Passwords, observer usecase.Observer) *IdentityUseCase {
	return &IdentityUseCase{scopes: scopes, tokens: tokens, passwords: passwords, observer: observer}
}

func (uc *IdentityUseCase) verifier(u *uow.UnitOfWork) *auth.Verifier {
	return auth.NewVerifier(u.Users(), uc.tokens, uc.passwords)
}

func (uc *IdentityUseCase) Login(ctx context.Context, req LoginRequest) response.Response[auth.Session] {
	op := usecase.Operation{Name: "identity.login"}
	return usecase.Run(ctx, uc.observer, op, "login successful", func(ctx context.Context) (auth.Session, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (auth.Session, error) {
			return uc.verifier(u).Authenticate(ctx, req.Username, req.Password)
		})
	})
}

// Register creates a User account for an anonymous caller.
func (uc *IdentityUseCase) Register(ctx context.Context, req RegisterRequest) response.Response[users.User] {
	op := usecase.Operation{Name: "identity.register"}
	return usecase.Run(ctx, uc.observer, op, "user registered", func(ctx context.Context) (users.User, error) {
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (users.User, error) {
			return uc.verifier(u).Register(ctx, registration(req), auth.RoleUser, nil)
		})
	})
}

// RegisterAdmin creates an Admin account. Only admins may call it.
func (uc *IdentityUseCase) RegisterAdmin(ctx context.Context, caller auth.Identity, req RegisterRequest) response.Response[users.User] {
	op := usecase.Operation{Name: "identity.register_admin", Caller: caller}
	return usecase.Run(ctx, uc.observer, op, "admin registered", func(ctx context.Context) (users.User, error) {
		if err := authz.Authorize(caller, authz.AdminOnly, "user administration", 0); err != nil {
			return users.User{}, err
		}
		createdBy := caller.ID
		return uow.Do(ctx, uc.scopes, func(ctx context.Context, u *uow.UnitOfWork) (users.User, error) {
			return uc.verifier(u).Register(ctx, registration(req), auth.RoleAdmin, &createdBy)
		})
	})
}

// Me echoes the identity carried by the caller's token.
func (uc *IdentityUseCase) Me(ctx context.Context, caller auth.Identity) response.Response[auth.Identity] {
	op := usecase.Operation{Name: "identity.me", Caller: caller}
	return usecase.Run(ctx, uc.observer, op, "identity retrieved", func(context.Context) (auth.Identity, error) {
		if err := authz.Authorize(caller, authz.Read, "identity", caller.ID); err != nil {
			return auth.Identity{}, err
		}
		return caller, nil
	})
}

func registration(req RegisterRequest) auth.Registration {
	return auth.Registration{Username: req.Username, Email: req.Email, Password: req.Password}
}
