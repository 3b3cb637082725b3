package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
	"github.com/matheusmosca/orders-inventory/internal/users"
)

const invalidCredentials = "invalid credentials"

// CredentialStore is the identity database as the verifier needs it.
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) storedproc.Envelope[users.Credential]
	Create(ctx context.Context, in users.NewUser, createdBy *int64) storedproc.Envelope[users.User]
}

// Session is the result of a successful login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Identity  Identity  `json:"identity"`
}

// Registration is a new account request.
type Registration struct {
	Username string
	Email    string
	Password string
}

// Verifier authenticates and registers accounts.
type Verifier struct {
	store     CredentialStore
	tokens    *TokenIssuer
	passwords *Passwords
}

func NewVerifier(store CredentialStore, tokens *TokenIssuer, passwords *Passwords) *Verifier {
	return &Verifier{store: store, tokens: tokens, passwords: passwords}
}

// Authenticate checks a username and password and issues a token. Every
// rejection, whatever the cause, is the same Unauthenticated error.
func (v *Verifier) Authenticate(ctx context.Context, username, password string) (Session, error) {
	const op = "auth.Authenticate"

	env := v.store.FindByUsername(ctx, username)
	if env.Kind() == apperr.KindNotFound {
		v.passwords.Burn(password)
		return Session{}, apperr.Unauthenticated(op, invalidCredentials)
	}
	cred, err := env.Unwrap("user")
	if err != nil {
		return Session{}, err
	}

	ok, err := v.passwords.Matches(cred.PasswordHash, password)
	if err != nil {
		return Session{}, apperr.Internal(op, fmt.Errorf("user %d: %w", cred.ID, err))
	}
	if !ok || !cred.IsActive || cred.IsDeleted {
		return Session{}, apperr.Unauthenticated(op, invalidCredentials)
	}

	role, err := ParseRole(cred.Role)
	if err != nil {
		return Session{}, apperr.Internal(op, fmt.Errorf("user %d: %w", cred.ID, err))
	}
	identity := Identity{ID: cred.ID, Username: cred.Username, Email: cred.Email, Role: role}

	token, err := v.tokens.Issue(identity)
	if err != nil {
		return Session{}, apperr.Internal(op, err)
	}
	return Session{Token: token.Value, ExpiresAt: token.ExpiresAt, Identity: identity}, nil
}

// Register hashes the password and stores the account with role. createdBy
// is nil for self registration. No token is issued.
func (v *Verifier) Register(ctx context.Context, in Registration, role Role, createdBy *int64) (users.User, error) {
	const op = "auth.Register"

	if !role.Valid() {
		return users.User{}, apperr.Validation(op, "invalid role")
	}
	hash, err := v.passwords.Hash(in.Password)
	if err != nil {
		return users.User{}, apperr.Internal(op, err)
	}

	env := v.store.Create(ctx, users.NewUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         string(role),
	}, createdBy)
	switch {
	case env.OK():
		return env.Unwrap("user")
	case env.Kind() == apperr.KindConflict:
		return users.User{}, apperr.Conflict(op, "username or email already registered")
	default:
		cause := env.Cause
		if cause == nil {
			cause = fmt.Errorf("%s returned error code %d", env.Procedure, env.ErrorCode)
		}
		return users.User{}, apperr.Internal(op, cause)
	}
}
