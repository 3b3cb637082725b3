package resource

import (
	"errors"
	"time"
)

var (
	ErrMissingCreatedDate   = errors.New("created date is not set")
	ErrPartialUpdateAudit   = errors.New("updatedBy and updatedDate must be set together")
	ErrUpdateBeforeCreation = errors.New("updated date precedes created date")
)

// Base holds the columns every stored resource carries. CreatedBy is the owner.
type Base struct {
	ID          int64      `json:"id"`
	IsActive    bool       `json:"isActive"`
	IsDeleted   bool       `json:"isDeleted"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedDate time.Time  `json:"createdDate"`
	UpdatedBy   *int64     `json:"updatedBy,omitempty"`
	UpdatedDate *time.Time `json:"updatedDate,omitempty"`
}

// Owned is implemented by anything whose access depends on its creator.
type Owned interface {
	OwnerID() int64
}

// OwnerID returns the id of the user that created the resource.
func (b Base) OwnerID() int64 { return b.CreatedBy }

// Validate checks the audit invariants of a decoded resource.
func (b Base) Validate() error {
	if b.CreatedDate.IsZero() {
		return ErrMissingCreatedDate
	}
	if (b.UpdatedBy == nil) != (b.UpdatedDate == nil) {
		return ErrPartialUpdateAudit
	}
	if b.UpdatedDate != nil && b.UpdatedDate.Before(b.CreatedDate) {
		return ErrUpdateBeforeCreation
	}
	return nil
}

// Visible reports whether default reads may return the resource.
func (b Base) Visible() bool { return !b.IsDeleted }
