package repayment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/allocator"
)

// RepayFacilityInput represents the input for repaying a facility
type RepayFacilityInput struct {
	OwnerID     uuid.UUID
	FacilityID  uuid.UUID
	Amount      decimal.Decimal
	Date        time.Time // Optional: defaults to today
	Description string    // Optional note appended to "Credit card payment: <facility name>"
}

// RepayObligationInput represents the input for repaying a single obligation
type RepayObligationInput struct {
	OwnerID      uuid.UUID
	ObligationID uuid.UUID
	Amount       decimal.Decimal
	Date         time.Time // Optional: defaults to today
	Description  string    // Optional: defaults to "Loan payment: <obligation name>"
}

// RepaymentResult describes what a repayment changed
type RepaymentResult struct {
	Balance    decimal.Decimal // Outstanding balance after the repayment
	Applied    decimal.Decimal // Amount taken off the obligations
	Discarded  decimal.Decimal // Requested amount above what was owed
	Reductions []allocator.WaterfallStep
	Entry      *domain.LedgerEntry // Audit record, nil when nothing was applied
}

// RepaymentService handles repayment operations
type RepaymentService struct {
	FacilityRepo   domain.FacilityRepository
	ObligationRepo domain.ObligationRepository
	LedgerRepo     domain.LedgerRepository
	CategoryRepo   domain.CategoryRepository
	Tx             domain.Transactor

	// Now is the clock used for default dates and audit timestamps
	Now func() time.Time
}

// NewRepaymentService creates a new RepaymentService instance
func NewRepaymentService(
	facilityRepo domain.FacilityRepository,
	obligationRepo domain.ObligationRepository,
	ledgerRepo domain.LedgerRepository,
	categoryRepo domain.CategoryRepository,
	tx domain.Transactor,
) *RepaymentService {
	return &RepaymentService{
		FacilityRepo:   facilityRepo,
		ObligationRepo: obligationRepo,
		LedgerRepo:     ledgerRepo,
		CategoryRepo:   categoryRepo,
		Tx:             tx,
		Now:            time.Now,
	}
}

// RepayFacility applies a repayment across the obligations of a facility
// Logic:
//  1. Fetch the facility (must belong to the owner)
//  2. Fetch its active obligations, oldest first, locked for the unit of work
//  3. Call allocator.CalculateWaterfall (clamps the amount to the balance)
//  4. Persist every reduced principal
//  5. Record one expense audit entry for the applied amount (skipped when zero)
//
// Everything commits together or not at all.
func (s *RepaymentService) RepayFacility(ctx context.Context, input RepayFacilityInput) (*RepaymentResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: repayment amount must be positive", domain.ErrInvalidAmount)
	}

	var result *RepaymentResult
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.repayFacility(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *RepaymentService) repayFacility(ctx context.Context, input RepayFacilityInput) (*RepaymentResult, error) {
	// 1. Fetch Facility
	facility, err := s.FacilityRepo.GetByID(ctx, input.OwnerID, input.FacilityID)
	if err != nil {
		return nil, err
	}

	// 2. Fetch active obligations
	obligations, err := s.ObligationRepo.ListActiveByFacility(ctx, input.OwnerID, facility.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list obligations for facility %s: %w", facility.ID, err)
	}

	values := make([]domain.Obligation, 0, len(obligations))
	before := decimal.Zero
	for _, o := range obligations {
		values = append(values, *o)
		before = before.Add(domain.NonNegative(o.Principal))
	}

	// 3. Calculate the waterfall
	plan, err := allocator.CalculateWaterfall(input.Amount, values)
	if err != nil {
		return nil, err
	}

	// 4. Persist reductions
	for _, step := range plan.Steps {
		if err := s.ObligationRepo.UpdatePrincipal(ctx, input.OwnerID, step.ObligationID, step.After); err != nil {
			return nil, fmt.Errorf("failed to reduce obligation %s: %w", step.ObligationID, err)
		}
	}

	result := &RepaymentResult{
		Balance:    before.Sub(plan.Applied),
		Applied:    plan.Applied,
		Discarded:  plan.Discarded,
		Reductions: plan.Steps,
	}

	// 5. Audit entry
	if plan.Applied.IsPositive() {
		entry, err := s.recordAudit(ctx, input.OwnerID, plan.Applied, facilityRepaymentDescription(facility.Name, input.Description), input.Date)
		if err != nil {
			return nil, err
		}
		result.Entry = entry
	}

	return result, nil
}

// RepayObligation applies a repayment to one obligation, clamped to its principal
func (s *RepaymentService) RepayObligation(ctx context.Context, input RepayObligationInput) (*RepaymentResult, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: repayment amount must be positive", domain.ErrInvalidAmount)
	}

	var result *RepaymentResult
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		obligation, err := s.ObligationRepo.GetByID(ctx, input.OwnerID, input.ObligationID)
		if err != nil {
			return err
		}

		principal := domain.NonNegative(obligation.Principal)
		applied := decimal.Min(input.Amount, principal)
		result = &RepaymentResult{
			Balance:    principal.Sub(applied),
			Applied:    applied,
			Discarded:  input.Amount.Sub(applied),
			Reductions: make([]allocator.WaterfallStep, 0, 1),
		}
		if !applied.IsPositive() {
			return nil
		}

		if err := s.ObligationRepo.UpdatePrincipal(ctx, input.OwnerID, obligation.ID, result.Balance); err != nil {
			return fmt.Errorf("failed to reduce obligation %s: %w", obligation.ID, err)
		}
		result.Reductions = append(result.Reductions, allocator.WaterfallStep{
			ObligationID: obligation.ID,
			Before:       principal,
			Reduction:    applied,
			After:        result.Balance,
		})

		description := input.Description
		if description == "" {
			description = "Loan payment: " + obligation.Name
		}
		result.Entry, err = s.recordAudit(ctx, input.OwnerID, applied, description, input.Date)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// facilityRepaymentDescription always starts with FacilityRepaymentPrefix so
// analytics recognises the entry; caller text is appended as a note.
func facilityRepaymentDescription(facilityName, note string) string {
	description := fmt.Sprintf("%s: %s", domain.FacilityRepaymentPrefix, facilityName)
	if note != "" {
		description += " - " + note
	}
	return description
}

// recordAudit stores the expense entry that documents an applied repayment
func (s *RepaymentService) recordAudit(ctx context.Context, ownerID uuid.UUID, applied decimal.Decimal, description string, date time.Time) (*domain.LedgerEntry, error) {
	categoryID, err := s.debtPaymentCategoryID(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if date.IsZero() {
		date = now
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Description:   description,
		Amount:        applied,
		Kind:          domain.EntryKindExpense,
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CategoryID:    categoryID,
		Date:          domain.Day(date),
		CreatedAt:     now,
	}
	if categoryID != nil {
		entry.CategoryName = domain.DebtPaymentCategoryName
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}
	if err := s.LedgerRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record repayment entry: %w", err)
	}

	return entry, nil
}

// debtPaymentCategoryID looks up the well-known debt payment category.
// A missing category is not an error: the audit entry is simply left uncategorised.
func (s *RepaymentService) debtPaymentCategoryID(ctx context.Context) (*uuid.UUID, error) {
	category, err := s.CategoryRepo.GetByName(ctx, domain.DebtPaymentCategoryName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up debt payment category: %w", err)
	}
	return &category.ID, nil
}
