package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the token payload. The subject is the numeric user id.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Token is a signed token and its expiry.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenIssuer signs and validates HS256 tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(id Identity) (Token, error) {
	if !id.Valid() {
		return Token{}, fmt.Errorf("issue token: invalid identity %d/%q", id.ID, id.Role)
	}

	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := Claims{
		Username: id.Username,
		Email:    id.Email,
		Role:     string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(id.ID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: expiresAt.UTC().Truncate(time.Second)}, nil
}

// Parse validates the signature, issuer and expiry and returns the identity
// the token carries.
func (t *TokenIssuer) Parse(value string) (Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(value, &claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}
	identity := Identity{
		ID:       id,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     Role(claims.Role),
	}
	if !identity.Valid() {
		return Identity{}, fmt.Errorf("%w: subject %d role %q", ErrInvalidToken, id, claims.Role)
	}
	return identity, nil
}
