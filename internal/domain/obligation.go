package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Obligation represents a discrete debt (loan, installment plan, card purchase).
// FacilityID is a weak reference: the facility may disappear without the
// obligation becoming invalid.
type Obligation struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Name         string
	Principal    decimal.Decimal     // Outstanding amount, never negative
	FacilityID   *uuid.UUID          // NULL until linked to a facility
	InterestRate decimal.NullDecimal // Snapshot of the facility rate at link time
	StartDate    time.Time
	EndDate      *time.Time
	Installments *int
	CreatedAt    time.Time
	DeletedAt    *time.Time
}

// Validate ensures the obligation adheres to domain rules
func (o *Obligation) Validate() error {
	if o.Name == "" {
		return errors.New("obligation name cannot be empty")
	}
	if o.Principal.IsNegative() {
		return errors.New("obligation principal cannot be negative")
	}
	if o.StartDate.IsZero() {
		return errors.New("obligation must have a start date")
	}
	if o.EndDate != nil && o.EndDate.Before(o.StartDate) {
		return errors.New("obligation end date cannot be before its start date")
	}
	if o.Installments != nil && *o.Installments <= 0 {
		return errors.New("obligation installments must be positive")
	}
	return nil
}

// IsActive reports whether the obligation has not been soft-deleted.
func (o *Obligation) IsActive() bool {
	return o.DeletedAt == nil
}

// LinkedTo reports whether the obligation references the given facility.
func (o *Obligation) LinkedTo(facilityID uuid.UUID) bool {
	return o.FacilityID != nil && *o.FacilityID == facilityID
}
