package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/allocator"
)

type obligationRepository struct {
	s *Store
}

func (r *obligationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Obligation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, err := r.active(ownerID, id)
	if err != nil {
		return nil, err
	}
	return cloneObligation(o), nil
}

func (r *obligationRepository) ListActive(ctx context.Context, ownerID uuid.UUID) ([]*domain.Obligation, error) {
	return r.list(ownerID, func(domain.Obligation) bool { return true }), nil
}

func (r *obligationRepository) ListActiveByFacility(ctx context.Context, ownerID, facilityID uuid.UUID) ([]*domain.Obligation, error) {
	return r.list(ownerID, func(o domain.Obligation) bool { return o.LinkedTo(facilityID) }), nil
}

// list returns the matching active obligations oldest first, ties in insertion order
func (r *obligationRepository) list(ownerID uuid.UUID, match func(domain.Obligation) bool) []*domain.Obligation {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := make([]domain.Obligation, 0)
	for _, id := range r.s.obligationSeq {
		o := r.s.obligations[id]
		if o.OwnerID == ownerID && o.IsActive() && match(o) {
			matched = append(matched, o)
		}
	}
	allocator.SortOldestFirst(matched)

	obligations := make([]*domain.Obligation, 0, len(matched))
	for _, o := range matched {
		obligations = append(obligations, cloneObligation(o))
	}
	return obligations
}

func (r *obligationRepository) Create(ctx context.Context, obligation *domain.Obligation) error {
	defer r.s.lockWrite(ctx)()

	if _, exists := r.s.obligations[obligation.ID]; exists {
		return fmt.Errorf("obligation %s already exists", obligation.ID)
	}
	r.s.obligations[obligation.ID] = *cloneObligation(*obligation)
	r.s.obligationSeq = append(r.s.obligationSeq, obligation.ID)
	return nil
}

func (r *obligationRepository) UpdatePrincipal(ctx context.Context, ownerID, id uuid.UUID, principal decimal.Decimal) error {
	if principal.IsNegative() {
		return fmt.Errorf("%w: principal cannot be negative", domain.ErrInvalidAmount)
	}
	return r.update(ctx, ownerID, id, func(o *domain.Obligation) {
		o.Principal = principal
	})
}

func (r *obligationRepository) LinkFacility(ctx context.Context, ownerID, id, facilityID uuid.UUID, rate decimal.Decimal) error {
	return r.update(ctx, ownerID, id, func(o *domain.Obligation) {
		fid := facilityID
		o.FacilityID = &fid
		o.InterestRate = decimal.NewNullDecimal(rate)
	})
}

func (r *obligationRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	return r.update(ctx, ownerID, id, func(o *domain.Obligation) {
		deleted := at
		o.DeletedAt = &deleted
	})
}

func (r *obligationRepository) update(ctx context.Context, ownerID, id uuid.UUID, apply func(o *domain.Obligation)) error {
	defer r.s.lockWrite(ctx)()

	o, err := r.active(ownerID, id)
	if err != nil {
		return err
	}
	updated := cloneObligation(o)
	apply(updated)
	r.s.obligations[id] = *updated
	return nil
}

// active must be called with the store lock held
func (r *obligationRepository) active(ownerID, id uuid.UUID) (domain.Obligation, error) {
	o, ok := r.s.obligations[id]
	if !ok || o.OwnerID != ownerID || !o.IsActive() {
		return domain.Obligation{}, fmt.Errorf("obligation %s %w", id, domain.ErrNotFound)
	}
	return o, nil
}

func cloneObligation(o domain.Obligation) *domain.Obligation {
	c := o
	c.FacilityID = cloneUUID(o.FacilityID)
	if o.EndDate != nil {
		end := *o.EndDate
		c.EndDate = &end
	}
	if o.Installments != nil {
		n := *o.Installments
		c.Installments = &n
	}
	if o.DeletedAt != nil {
		at := *o.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}
