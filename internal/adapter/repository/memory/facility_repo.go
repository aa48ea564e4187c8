package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

type facilityRepository struct {
	s *Store
}

func (r *facilityRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Facility, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	f, ok := r.s.facilities[id]
	if !ok || f.OwnerID != ownerID {
		return nil, fmt.Errorf("facility %s %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r *facilityRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Facility, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	facilities := make([]*domain.Facility, 0)
	for _, id := range r.s.facilityOrder {
		f := r.s.facilities[id]
		if f.OwnerID == ownerID {
			facilities = append(facilities, &f)
		}
	}
	return facilities, nil
}

func (r *facilityRepository) Create(ctx context.Context, facility *domain.Facility) error {
	defer r.s.lockWrite(ctx)()

	if _, exists := r.s.facilities[facility.ID]; exists {
		return fmt.Errorf("facility %s already exists", facility.ID)
	}
	r.s.facilities[facility.ID] = *facility
	r.s.facilityOrder = append(r.s.facilityOrder, facility.ID)
	return nil
}

// Delete removes the facility and unlinks its obligations, like ON DELETE SET NULL
func (r *facilityRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	defer r.s.lockWrite(ctx)()

	f, ok := r.s.facilities[id]
	if !ok || f.OwnerID != ownerID {
		return fmt.Errorf("facility %s %w", id, domain.ErrNotFound)
	}
	delete(r.s.facilities, id)

	order := make([]uuid.UUID, 0, len(r.s.facilityOrder))
	for _, fid := range r.s.facilityOrder {
		if fid != id {
			order = append(order, fid)
		}
	}
	r.s.facilityOrder = order

	for oid, o := range r.s.obligations {
		if o.LinkedTo(id) {
			unlinked := cloneObligation(o)
			unlinked.FacilityID = nil
			r.s.obligations[oid] = *unlinked
		}
	}
	return nil
}
