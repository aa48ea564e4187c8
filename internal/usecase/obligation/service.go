package obligation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// CreateObligationInput represents the input for creating an obligation explicitly
type CreateObligationInput struct {
	OwnerID      uuid.UUID
	Name         string
	Principal    decimal.Decimal
	FacilityID   *uuid.UUID // Optional: link right away
	InterestRate *decimal.Decimal
	StartDate    time.Time
	EndDate      *time.Time
	Installments *int
}

// ObligationService handles the obligation lifecycle outside of repayments
type ObligationService struct {
	FacilityRepo   domain.FacilityRepository
	ObligationRepo domain.ObligationRepository
	Tx             domain.Transactor

	Now func() time.Time
}

// NewObligationService creates a new ObligationService instance
func NewObligationService(
	facilityRepo domain.FacilityRepository,
	obligationRepo domain.ObligationRepository,
	tx domain.Transactor,
) *ObligationService {
	return &ObligationService{
		FacilityRepo:   facilityRepo,
		ObligationRepo: obligationRepo,
		Tx:             tx,
		Now:            time.Now,
	}
}

// Create records a new obligation. When a facility is given it must belong to
// the owner, and the obligation takes a snapshot of the facility rate unless
// an explicit rate is supplied.
func (s *ObligationService) Create(ctx context.Context, input CreateObligationInput) (*domain.Obligation, error) {
	if input.Principal.IsNegative() {
		return nil, fmt.Errorf("%w: principal cannot be negative", domain.ErrInvalidAmount)
	}

	obligation := &domain.Obligation{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Principal:    input.Principal,
		StartDate:    domain.Day(input.StartDate),
		Installments: input.Installments,
		CreatedAt:    s.Now(),
	}
	if input.EndDate != nil {
		end := domain.Day(*input.EndDate)
		obligation.EndDate = &end
	}
	if input.InterestRate != nil {
		obligation.InterestRate = decimal.NewNullDecimal(*input.InterestRate)
	}

	if input.FacilityID != nil {
		facility, err := s.ownedFacility(ctx, input.OwnerID, *input.FacilityID)
		if err != nil {
			return nil, err
		}
		fid := facility.ID
		obligation.FacilityID = &fid
		if !obligation.InterestRate.Valid {
			obligation.InterestRate = decimal.NewNullDecimal(facility.InterestRate)
		}
	}

	if err := obligation.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := s.ObligationRepo.Create(ctx, obligation); err != nil {
		return nil, fmt.Errorf("failed to create obligation: %w", err)
	}

	return obligation, nil
}

// LinkFacility attaches an obligation to a facility and snapshots the facility's
// current interest rate. Later rate changes do not propagate.
func (s *ObligationService) LinkFacility(ctx context.Context, ownerID, obligationID, facilityID uuid.UUID) (*domain.Obligation, error) {
	var linked *domain.Obligation
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		obligation, err := s.ObligationRepo.GetByID(ctx, ownerID, obligationID)
		if err != nil {
			return err
		}

		facility, err := s.ownedFacility(ctx, ownerID, facilityID)
		if err != nil {
			return err
		}

		if err := s.ObligationRepo.LinkFacility(ctx, ownerID, obligation.ID, facility.ID, facility.InterestRate); err != nil {
			return fmt.Errorf("failed to link obligation %s: %w", obligation.ID, err)
		}

		fid := facility.ID
		obligation.FacilityID = &fid
		obligation.InterestRate = decimal.NewNullDecimal(facility.InterestRate)
		linked = obligation
		return nil
	})
	if err != nil {
		return nil, err
	}

	return linked, nil
}

// Delete soft-deletes an obligation; it disappears from every balance
func (s *ObligationService) Delete(ctx context.Context, ownerID, obligationID uuid.UUID) error {
	if _, err := s.ObligationRepo.GetByID(ctx, ownerID, obligationID); err != nil {
		return err
	}
	if err := s.ObligationRepo.SoftDelete(ctx, ownerID, obligationID, s.Now()); err != nil {
		return fmt.Errorf("failed to delete obligation %s: %w", obligationID, err)
	}
	return nil
}

// Get retrieves one active obligation
func (s *ObligationService) Get(ctx context.Context, ownerID, obligationID uuid.UUID) (*domain.Obligation, error) {
	return s.ObligationRepo.GetByID(ctx, ownerID, obligationID)
}

// List retrieves the owner's active obligations
func (s *ObligationService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Obligation, error) {
	obligations, err := s.ObligationRepo.ListActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	return obligations, nil
}

// ownedFacility fetches a facility and maps "belongs to someone else" onto ErrForbidden
func (s *ObligationService) ownedFacility(ctx context.Context, ownerID, facilityID uuid.UUID) (*domain.Facility, error) {
	facility, err := s.FacilityRepo.GetByID(ctx, ownerID, facilityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: facility %s is not available to this owner", domain.ErrForbidden, facilityID)
		}
		return nil, err
	}
	return facility, nil
}
