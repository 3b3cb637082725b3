// Package auth verifies credentials, issues and validates bearer tokens and
// carries the caller identity through gin requests.
package auth

import "fmt"

type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// ParseRole accepts the exact role names only.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is the verified caller of a request.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Valid reports whether the identity can act at all.
func (i Identity) Valid() bool { return i.ID > 0 && i.Role.Valid() }
