package facility

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// CreateFacilityInput represents the input for opening a credit facility
type CreateFacilityInput struct {
	OwnerID      uuid.UUID
	Name         string
	Limit        decimal.Decimal
	InterestRate decimal.Decimal
}

// FacilityService handles facility registration and lookup
type FacilityService struct {
	FacilityRepo domain.FacilityRepository

	Now func() time.Time
}

// NewFacilityService creates a new FacilityService instance
func NewFacilityService(facilityRepo domain.FacilityRepository) *FacilityService {
	return &FacilityService{
		FacilityRepo: facilityRepo,
		Now:          time.Now,
	}
}

// Create registers a new facility for the owner
func (s *FacilityService) Create(ctx context.Context, input CreateFacilityInput) (*domain.Facility, error) {
	if input.Limit.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: facility limit must be positive", domain.ErrInvalidAmount)
	}

	facility := &domain.Facility{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Limit:        input.Limit,
		InterestRate: input.InterestRate,
		CreatedAt:    s.Now(),
	}
	if err := facility.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := s.FacilityRepo.Create(ctx, facility); err != nil {
		return nil, fmt.Errorf("failed to create facility: %w", err)
	}
	return facility, nil
}

// List retrieves the owner's facilities in creation order
func (s *FacilityService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Facility, error) {
	facilities, err := s.FacilityRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return facilities, nil
}

// Get retrieves one facility of the owner
func (s *FacilityService) Get(ctx context.Context, ownerID, facilityID uuid.UUID) (*domain.Facility, error) {
	return s.FacilityRepo.GetByID(ctx, ownerID, facilityID)
}

// Delete removes a facility. Its obligations stay active, lose the link and
// keep their rate snapshot, so they drop out of every facility balance.
func (s *FacilityService) Delete(ctx context.Context, ownerID, facilityID uuid.UUID) error {
	if err := s.FacilityRepo.Delete(ctx, ownerID, facilityID); err != nil {
		return fmt.Errorf("failed to delete facility %s: %w", facilityID, err)
	}
	return nil
}
