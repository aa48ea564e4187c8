package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// Calculator derives outstanding balances from the active obligations.
// It never reports missing data as an error: no obligations means a zero balance.
type Calculator struct {
	FacilityRepo   domain.FacilityRepository
	ObligationRepo domain.ObligationRepository
}

// NewCalculator creates a new Calculator instance
func NewCalculator(facilityRepo domain.FacilityRepository, obligationRepo domain.ObligationRepository) *Calculator {
	return &Calculator{
		FacilityRepo:   facilityRepo,
		ObligationRepo: obligationRepo,
	}
}

// FacilityBalance sums the principal of every active obligation linked to the facility
func (c *Calculator) FacilityBalance(ctx context.Context, ownerID, facilityID uuid.UUID) (decimal.Decimal, error) {
	obligations, err := c.ObligationRepo.ListActiveByFacility(ctx, ownerID, facilityID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list obligations for facility %s: %w", facilityID, err)
	}
	return SumPrincipal(obligations), nil
}

// ObligationBalance returns the outstanding principal of a single obligation.
// An unknown or deleted obligation has a zero balance.
func (c *Calculator) ObligationBalance(ctx context.Context, ownerID, obligationID uuid.UUID) (decimal.Decimal, error) {
	obligation, err := c.ObligationRepo.GetByID(ctx, ownerID, obligationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get obligation %s: %w", obligationID, err)
	}
	return domain.NonNegative(obligation.Principal), nil
}

// FacilityBalances returns the balance of every facility of the owner, keyed by facility ID
func (c *Calculator) FacilityBalances(ctx context.Context, ownerID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	facilities, err := c.FacilityRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return c.BalancesFor(ctx, ownerID, facilities)
}

// BalancesFor returns the balance of every facility in the given list,
// keyed by facility ID. Facilities without obligations map to zero.
func (c *Calculator) BalancesFor(ctx context.Context, ownerID uuid.UUID, facilities []*domain.Facility) (map[uuid.UUID]decimal.Decimal, error) {
	obligations, err := c.ObligationRepo.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}

	balances := make(map[uuid.UUID]decimal.Decimal, len(facilities))
	for _, f := range facilities {
		balances[f.ID] = decimal.Zero
	}
	for _, o := range obligations {
		if o.FacilityID == nil {
			continue
		}
		current, tracked := balances[*o.FacilityID]
		if !tracked {
			continue
		}
		balances[*o.FacilityID] = current.Add(domain.NonNegative(o.Principal))
	}

	return balances, nil
}

// SumPrincipal adds up the principal of the active obligations in the slice
func SumPrincipal(obligations []*domain.Obligation) decimal.Decimal {
	total := decimal.Zero
	for _, o := range obligations {
		if !o.IsActive() {
			continue
		}
		total = total.Add(domain.NonNegative(o.Principal))
	}
	return total
}
