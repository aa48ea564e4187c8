package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Facility represents a credit line (credit card) owned by a user.
// A facility is immutable once created; its balance is derived from the
// obligations linked to it.
type Facility struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Name         string
	Limit        decimal.Decimal
	InterestRate decimal.Decimal // Zero when the card has no rate on record
	CreatedAt    time.Time
}

// Validate ensures the facility adheres to domain rules
func (f *Facility) Validate() error {
	if f.Name == "" {
		return errors.New("facility name cannot be empty")
	}
	if f.Limit.LessThanOrEqual(decimal.Zero) {
		return errors.New("facility limit must be positive")
	}
	if f.InterestRate.IsNegative() {
		return errors.New("facility interest rate cannot be negative")
	}
	return nil
}
