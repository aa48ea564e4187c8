package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Every owner-scoped repository method ignores soft-deleted rows and returns
// an error wrapping ErrNotFound when a single row cannot be found for that owner.

// FacilityRepository defines the interface for facility persistence operations
type FacilityRepository interface {
	// GetByID retrieves a facility owned by ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Facility, error)

	// List retrieves all facilities of an owner in creation order
	List(ctx context.Context, ownerID uuid.UUID) ([]*Facility, error)

	// Create creates a new facility
	Create(ctx context.Context, facility *Facility) error

	// Delete removes a facility. Obligations linked to it stay active and
	// become unlinked; their rate snapshot is kept.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// ObligationRepository defines the interface for obligation persistence operations
type ObligationRepository interface {
	// GetByID retrieves an active obligation owned by ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Obligation, error)

	// ListActive retrieves all active obligations of an owner
	ListActive(ctx context.Context, ownerID uuid.UUID) ([]*Obligation, error)

	// ListActiveByFacility retrieves the active obligations linked to a facility,
	// ordered by start date then creation time (oldest first).
	// Inside a unit of work the rows are locked until commit.
	ListActiveByFacility(ctx context.Context, ownerID, facilityID uuid.UUID) ([]*Obligation, error)

	// Create creates a new obligation
	Create(ctx context.Context, obligation *Obligation) error

	// UpdatePrincipal sets the outstanding principal of an obligation
	UpdatePrincipal(ctx context.Context, ownerID, id uuid.UUID, principal decimal.Decimal) error

	// LinkFacility attaches an obligation to a facility with a snapshot of its rate
	LinkFacility(ctx context.Context, ownerID, id, facilityID uuid.UUID, rate decimal.Decimal) error

	// SoftDelete marks an obligation as deleted
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
}

// LedgerRepository defines the interface for ledger entry persistence operations
type LedgerRepository interface {
	// GetByID retrieves an active entry owned by ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*LedgerEntry, error)

	// Create creates a new ledger entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// List retrieves all active entries of an owner, newest first by the given order
	List(ctx context.Context, ownerID uuid.UUID, order EntryOrder) ([]*LedgerEntry, error)

	// ListBetween retrieves the active entries of an owner dated within [from, to]
	// (inclusive, compared by calendar date), with CategoryName resolved.
	ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*LedgerEntry, error)

	// SoftDelete marks an entry as deleted
	SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error
}

// CategoryRepository defines the interface for category persistence operations
type CategoryRepository interface {
	// GetByName retrieves a category by its exact name
	GetByName(ctx context.Context, name string) (*Category, error)

	// Create creates a new category
	Create(ctx context.Context, category *Category) error
}

// Transactor runs fn as one atomic unit of work: every repository call made
// with the context passed to fn commits together or not at all.
// A nested WithinTx joins the outer unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
