// Package users reads and writes accounts in the identity database.
package users

import (
	"context"

	"github.com/matheusmosca/orders-inventory/internal/resource"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

const (
	ProcGetByUsername = "sp_user_get_by_username"
	ProcCreate        = "sp_user_create"
)

// Credential is the stored login record. It never leaves the identity service.
type Credential struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	IsActive     bool   `json:"isActive"`
	IsDeleted    bool   `json:"isDeleted"`
}

// User is an account as callers may see it.
type User struct {
	resource.Base
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// NewUser is an account to be created. PasswordHash is already hashed.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

type Repository struct {
	gw *storedproc.Gateway
}

func NewRepository(gw *storedproc.Gateway) *Repository {
	return &Repository{gw: gw}
}

func (r *Repository) FindByUsername(ctx context.Context, username string) storedproc.Envelope[Credential] {
	return storedproc.Call[Credential](ctx, r.gw, ProcGetByUsername,
		storedproc.P("p_username", username),
	)
}

// Create stores a new account. createdBy is nil for self registration.
func (r *Repository) Create(ctx context.Context, in NewUser, createdBy *int64) storedproc.Envelope[User] {
	return storedproc.Check(storedproc.Call[User](ctx, r.gw, ProcCreate,
		storedproc.P("p_username", in.Username),
		storedproc.P("p_email", in.Email),
		storedproc.P("p_password_hash", in.PasswordHash),
		storedproc.P("p_role", in.Role),
		storedproc.P("p_created_by", createdBy),
	), User.Validate)
}
