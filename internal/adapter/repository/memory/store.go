// Package memory keeps every repository in process memory. It backs the
// "memory" storage driver and the usecase and transport tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// Store holds the state shared by the in-memory repositories
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	facilities     map[uuid.UUID]domain.Facility
	facilityOrder  []uuid.UUID
	obligations    map[uuid.UUID]domain.Obligation
	obligationSeq  []uuid.UUID
	entries        map[uuid.UUID]domain.LedgerEntry
	entrySeq       []uuid.UUID
	categories     map[uuid.UUID]domain.Category
	categoryByName map[string]uuid.UUID
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		facilities:     make(map[uuid.UUID]domain.Facility),
		obligations:    make(map[uuid.UUID]domain.Obligation),
		entries:        make(map[uuid.UUID]domain.LedgerEntry),
		categories:     make(map[uuid.UUID]domain.Category),
		categoryByName: make(map[string]uuid.UUID),
	}
}

// Facilities returns the facility repository view of the store
func (s *Store) Facilities() domain.FacilityRepository {
	return &facilityRepository{s: s}
}

// Obligations returns the obligation repository view of the store
func (s *Store) Obligations() domain.ObligationRepository {
	return &obligationRepository{s: s}
}

// Ledger returns the ledger repository view of the store
func (s *Store) Ledger() domain.LedgerRepository {
	return &ledgerRepository{s: s}
}

// Categories returns the category repository view of the store
func (s *Store) Categories() domain.CategoryRepository {
	return &categoryRepository{s: s}
}

type txKey struct{}

// WithinTx implements domain.Transactor.
// Units of work run one at a time; when fn fails every change it made is
// rolled back. A nested call joins the unit of work already bound to ctx.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	saved := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

// lockWrite takes the store lock for a mutation. Outside a unit of work the
// mutation first waits for the running one to finish, so its rollback cannot
// discard the write.
func (s *Store) lockWrite(ctx context.Context) (unlock func()) {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		s.mu.Lock()
		return s.mu.Unlock
	}

	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

type snapshot struct {
	facilities     map[uuid.UUID]domain.Facility
	facilityOrder  []uuid.UUID
	obligations    map[uuid.UUID]domain.Obligation
	obligationSeq  []uuid.UUID
	entries        map[uuid.UUID]domain.LedgerEntry
	entrySeq       []uuid.UUID
	categories     map[uuid.UUID]domain.Category
	categoryByName map[string]uuid.UUID
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot{
		facilities:     copyMap(s.facilities),
		facilityOrder:  append([]uuid.UUID(nil), s.facilityOrder...),
		obligations:    copyMap(s.obligations),
		obligationSeq:  append([]uuid.UUID(nil), s.obligationSeq...),
		entries:        copyMap(s.entries),
		entrySeq:       append([]uuid.UUID(nil), s.entrySeq...),
		categories:     copyMap(s.categories),
		categoryByName: copyMap(s.categoryByName),
	}
}

func (s *Store) restore(saved snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.facilities = saved.facilities
	s.facilityOrder = saved.facilityOrder
	s.obligations = saved.obligations
	s.obligationSeq = saved.obligationSeq
	s.entries = saved.entries
	s.entrySeq = saved.entrySeq
	s.categories = saved.categories
	s.categoryByName = saved.categoryByName
}

// copyMap copies the map itself; stored values are never mutated in place
func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
