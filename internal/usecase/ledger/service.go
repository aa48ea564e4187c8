package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

const noDescription = "No description"

// RecordEntryInput represents the input for recording a ledger entry
type RecordEntryInput struct {
	OwnerID       uuid.UUID
	Description   string
	Amount        decimal.Decimal
	Kind          domain.EntryKind
	PaymentMethod string
	CategoryID    *uuid.UUID // Optional
	Date          time.Time
}

// RecordEntryResult holds the stored entry and, for card expenses, the derived obligation
type RecordEntryResult struct {
	Entry      *domain.LedgerEntry
	Obligation *domain.Obligation
}

// LedgerService handles ledger entry recording
type LedgerService struct {
	LedgerRepo     domain.LedgerRepository
	ObligationRepo domain.ObligationRepository
	Tx             domain.Transactor

	Now func() time.Time
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	ledgerRepo domain.LedgerRepository,
	obligationRepo domain.ObligationRepository,
	tx domain.Transactor,
) *LedgerService {
	return &LedgerService{
		LedgerRepo:     ledgerRepo,
		ObligationRepo: obligationRepo,
		Tx:             tx,
		Now:            time.Now,
	}
}

// RecordEntry stores a ledger entry
// Logic:
//  1. Validate the entry
//  2. Save it
//  3. If it is an expense paid with a credit facility, open an unlinked
//     single-installment obligation for the same amount (linked to a facility later)
//
// Steps 2 and 3 share one unit of work.
func (s *LedgerService) RecordEntry(ctx context.Context, input RecordEntryInput) (*RecordEntryResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: entry amount must be positive", domain.ErrInvalidAmount)
	}

	now := s.Now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		OwnerID:       input.OwnerID,
		Description:   input.Description,
		Amount:        input.Amount,
		Kind:          input.Kind,
		PaymentMethod: input.PaymentMethod,
		CategoryID:    input.CategoryID,
		Date:          domain.Day(date),
		CreatedAt:     now,
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	result := &RecordEntryResult{Entry: entry}
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.LedgerRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record entry: %w", err)
		}

		if !entry.IsCardSpending() {
			return nil
		}

		installments := 1
		obligation := &domain.Obligation{
			ID:           uuid.New(),
			OwnerID:      entry.OwnerID,
			Name:         cardExpenseName(entry.Description),
			Principal:    entry.Amount,
			StartDate:    entry.Date,
			Installments: &installments,
			CreatedAt:    now,
		}
		if err := obligation.Validate(); err != nil {
			return err
		}
		if err := s.ObligationRepo.Create(ctx, obligation); err != nil {
			return fmt.Errorf("failed to open card expense obligation: %w", err)
		}
		result.Obligation = obligation
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteEntry soft-deletes an entry. For a card expense the matching derived
// obligation (same name, principal and start date) is soft-deleted as well,
// if it is still active.
func (s *LedgerService) DeleteEntry(ctx context.Context, ownerID, entryID uuid.UUID) error {
	return s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.LedgerRepo.GetByID(ctx, ownerID, entryID)
		if err != nil {
			return err
		}

		now := s.Now()
		if err := s.LedgerRepo.SoftDelete(ctx, ownerID, entry.ID, now); err != nil {
			return fmt.Errorf("failed to delete entry %s: %w", entry.ID, err)
		}

		if !entry.IsCardSpending() {
			return nil
		}

		obligations, err := s.ObligationRepo.ListActive(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to list obligations: %w", err)
		}
		name := cardExpenseName(entry.Description)
		for _, o := range obligations {
			if o.Name == name && o.Principal.Equal(entry.Amount) && domain.Day(o.StartDate).Equal(domain.Day(entry.Date)) {
				if err := s.ObligationRepo.SoftDelete(ctx, ownerID, o.ID, now); err != nil {
					return fmt.Errorf("failed to delete card expense obligation %s: %w", o.ID, err)
				}
				break
			}
		}
		return nil
	})
}

// Get retrieves one active entry
func (s *LedgerService) Get(ctx context.Context, ownerID, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	return s.LedgerRepo.GetByID(ctx, ownerID, entryID)
}

// List retrieves the owner's active entries, newest first by entry date or by
// creation time. An empty order means by date.
func (s *LedgerService) List(ctx context.Context, ownerID uuid.UUID, order domain.EntryOrder) ([]*domain.LedgerEntry, error) {
	if order == "" {
		order = domain.EntryOrderDate
	}
	if !order.Valid() {
		return nil, fmt.Errorf("%w: unknown entry order %q", domain.ErrInvalidInput, order)
	}

	entries, err := s.LedgerRepo.List(ctx, ownerID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

func cardExpenseName(description string) string {
	if description == "" {
		description = noDescription
	}
	return "Card expense: " + description
}
