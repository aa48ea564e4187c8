package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

type ledgerRepository struct {
	s *Store
}

func (r *ledgerRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.entries[id]
	if !ok || e.OwnerID != ownerID || e.DeletedAt != nil {
		return nil, fmt.Errorf("ledger entry %s %w", id, domain.ErrNotFound)
	}
	return r.resolve(e), nil
}

func (r *ledgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	defer r.s.lockWrite(ctx)()

	if _, exists := r.s.entries[entry.ID]; exists {
		return fmt.Errorf("ledger entry %s already exists", entry.ID)
	}
	stored := *entry
	stored.CategoryID = cloneUUID(entry.CategoryID)
	stored.CategoryName = ""
	stored.Date = domain.Day(entry.Date)
	r.s.entries[entry.ID] = stored
	r.s.entrySeq = append(r.s.entrySeq, entry.ID)
	return nil
}

// List returns the active entries newest first, ties broken by creation time
func (r *ledgerRepository) List(ctx context.Context, ownerID uuid.UUID, order domain.EntryOrder) ([]*domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entries := make([]*domain.LedgerEntry, 0)
	for _, id := range r.s.entrySeq {
		e := r.s.entries[id]
		if e.OwnerID == ownerID && e.DeletedAt == nil {
			entries = append(entries, r.resolve(e))
		}
	}

	key := func(e *domain.LedgerEntry) time.Time { return e.Date }
	if order == domain.EntryOrderCreatedAt {
		key = func(e *domain.LedgerEntry) time.Time { return e.CreatedAt }
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if ki, kj := key(entries[i]), key(entries[j]); !ki.Equal(kj) {
			return ki.After(kj)
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *ledgerRepository) ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*domain.LedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	from, to = domain.Day(from), domain.Day(to)
	entries := make([]*domain.LedgerEntry, 0)
	for _, id := range r.s.entrySeq {
		e := r.s.entries[id]
		if e.OwnerID != ownerID || e.DeletedAt != nil {
			continue
		}
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		entries = append(entries, r.resolve(e))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

func (r *ledgerRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	defer r.s.lockWrite(ctx)()

	e, ok := r.s.entries[id]
	if !ok || e.OwnerID != ownerID || e.DeletedAt != nil {
		return fmt.Errorf("ledger entry %s %w", id, domain.ErrNotFound)
	}
	deleted := at
	e.DeletedAt = &deleted
	r.s.entries[id] = e
	return nil
}

// resolve copies an entry and fills in its category name; the store lock must be held
func (r *ledgerRepository) resolve(e domain.LedgerEntry) *domain.LedgerEntry {
	c := e
	c.CategoryID = cloneUUID(e.CategoryID)
	if e.DeletedAt != nil {
		at := *e.DeletedAt
		c.DeletedAt = &at
	}
	if e.CategoryID != nil {
		if category, ok := r.s.categories[*e.CategoryID]; ok {
			c.CategoryName = category.Name
		}
	}
	return &c
}
