// Package authz decides whether a caller may read or change a resource.
//
// Admins are always allowed. Users may read and mutate what they own.
// AdminOnly operations are denied to every non-admin. The decision is made
// on a fetched resource; a resource that could not be found is reported as
// not found before ownership is looked at.
package authz

import (
	"github.com/matheusmosca/orders-inventory/internal/apperr"
	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/resource"
	"github.com/matheusmosca/orders-inventory/internal/storedproc"
)

type Operation int

const (
	Read Operation = iota
	Mutate
	AdminOnly
)

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Mutate:
		return "mutate"
	case AdminOnly:
		return "admin"
	default:
		return "unknown"
	}
}

// Authorize decides op on a resource owned by ownerID. subject names the
// resource in the denial message.
func Authorize(caller auth.Identity, op Operation, subject string, ownerID int64) error {
	const name = "authz.Authorize"

	if !caller.Valid() {
		return apperr.Unauthenticated(name, "authentication required")
	}
	if caller.IsAdmin() {
		return nil
	}

	switch op {
	case Read, Mutate:
		if caller.ID == ownerID {
			return nil
		}
	}
	return apperr.Forbidden(name, "access to "+subject+" denied")
}

// Fetched unwraps a repository result and authorizes op on it. A failed
// fetch is returned as is, so not found wins over forbidden.
func Fetched[T resource.Owned](caller auth.Identity, op Operation, subject string, env storedproc.Envelope[T]) (T, error) {
	var zero T
	v, err := env.Unwrap(subject)
	if err != nil {
		return zero, err
	}
	if err := Authorize(caller, op, subject, v.OwnerID()); err != nil {
		return zero, err
	}
	return v, nil
}

// OwnerFilter returns the owner a listing is restricted to: the caller for
// users and nil, meaning everyone, for admins.
func OwnerFilter(caller auth.Identity) *int64 {
	if caller.IsAdmin() {
		return nil
	}
	id := caller.ID
	return &id
}
