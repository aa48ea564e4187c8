package correction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
	"github.com/simaogato/debtflow-backend/internal/usecase/repayment"
)

const defaultReason = "Manual adjustment"

// CorrectFacilityInput represents the input for reconciling a facility balance
type CorrectFacilityInput struct {
	OwnerID    uuid.UUID
	FacilityID uuid.UUID
	Target     decimal.Decimal // Externally observed balance, must be positive
	Date       time.Time       // Effective date; defaults to today
	Reason     string
}

// CorrectObligationInput represents the input for overriding one obligation's principal
type CorrectObligationInput struct {
	OwnerID      uuid.UUID
	ObligationID uuid.UUID
	Target       decimal.Decimal // May be zero, never negative
}

// CorrectionResult describes what a correction did
type CorrectionResult struct {
	Previous  decimal.Decimal
	Balance   decimal.Decimal
	Diff      decimal.Decimal            // Target - Previous
	Created   *domain.Obligation         // Set when the balance went up
	Repayment *repayment.RepaymentResult // Set when the balance went down
}

// CorrectionService reconciles tracked balances with observed ones
type CorrectionService struct {
	FacilityRepo     domain.FacilityRepository
	ObligationRepo   domain.ObligationRepository
	Balances         *balance.Calculator
	RepaymentService *repayment.RepaymentService
	Tx               domain.Transactor

	// Now is the clock used for default dates and creation timestamps
	Now func() time.Time
}

// NewCorrectionService creates a new CorrectionService instance
func NewCorrectionService(
	facilityRepo domain.FacilityRepository,
	obligationRepo domain.ObligationRepository,
	balances *balance.Calculator,
	repaymentService *repayment.RepaymentService,
	tx domain.Transactor,
) *CorrectionService {
	return &CorrectionService{
		FacilityRepo:     facilityRepo,
		ObligationRepo:   obligationRepo,
		Balances:         balances,
		RepaymentService: repaymentService,
		Tx:               tx,
		Now:              time.Now,
	}
}

// CorrectFacility moves a facility's tracked balance to the target value
// Logic:
//   - diff = target - current balance
//   - diff > 0: synthesize a zero-rate, single-installment obligation of diff
//   - diff < 0: repay abs(diff) through the waterfall (oldest obligations first)
//   - diff == 0: nothing changes
//
// Each correction is computed against the balance left by the previous one.
func (s *CorrectionService) CorrectFacility(ctx context.Context, input CorrectFacilityInput) (*CorrectionResult, error) {
	if input.Target.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: target balance must be positive", domain.ErrInvalidAmount)
	}

	reason := input.Reason
	if reason == "" {
		reason = defaultReason
	}
	date := input.Date
	if date.IsZero() {
		date = s.Now()
	}
	date = domain.Day(date)

	var result *CorrectionResult
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		facility, err := s.FacilityRepo.GetByID(ctx, input.OwnerID, input.FacilityID)
		if err != nil {
			return err
		}

		current, err := s.Balances.FacilityBalance(ctx, input.OwnerID, facility.ID)
		if err != nil {
			return err
		}

		diff := input.Target.Sub(current)
		result = &CorrectionResult{
			Previous: current,
			Balance:  current,
			Diff:     diff,
		}

		switch {
		case diff.IsPositive():
			created, err := s.synthesizeIncrease(ctx, input.OwnerID, facility.ID, diff, date, reason)
			if err != nil {
				return err
			}
			result.Created = created
			result.Balance = current.Add(diff)

		case diff.IsNegative():
			repaid, err := s.RepaymentService.RepayFacility(ctx, repayment.RepayFacilityInput{
				OwnerID:     input.OwnerID,
				FacilityID:  facility.ID,
				Amount:      diff.Abs(),
				Date:        date,
				Description: "Balance adjustment (-): " + reason,
			})
			if err != nil {
				return err
			}
			result.Repayment = repaid
			result.Balance = repaid.Balance
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// synthesizeIncrease records an unexplained balance increase as a new obligation
func (s *CorrectionService) synthesizeIncrease(
	ctx context.Context,
	ownerID, facilityID uuid.UUID,
	amount decimal.Decimal,
	date time.Time,
	reason string,
) (*domain.Obligation, error) {
	installments := 1
	endDate := date
	fid := facilityID

	obligation := &domain.Obligation{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         "Balance adjustment (+): " + reason,
		Principal:    amount,
		FacilityID:   &fid,
		InterestRate: decimal.NewNullDecimal(decimal.Zero),
		StartDate:    date,
		EndDate:      &endDate,
		Installments: &installments,
		CreatedAt:    s.Now(),
	}

	if err := obligation.Validate(); err != nil {
		return nil, err
	}
	if err := s.ObligationRepo.Create(ctx, obligation); err != nil {
		return nil, fmt.Errorf("failed to create adjustment obligation: %w", err)
	}

	return obligation, nil
}

// CorrectObligation overrides the principal of a single obligation.
// No audit entry is produced: this is a bookkeeping fix, not a payment.
func (s *CorrectionService) CorrectObligation(ctx context.Context, input CorrectObligationInput) (*CorrectionResult, error) {
	if input.Target.IsNegative() {
		return nil, fmt.Errorf("%w: target balance cannot be negative", domain.ErrInvalidAmount)
	}

	var result *CorrectionResult
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		obligation, err := s.ObligationRepo.GetByID(ctx, input.OwnerID, input.ObligationID)
		if err != nil {
			return err
		}

		result = &CorrectionResult{
			Previous: obligation.Principal,
			Balance:  input.Target,
			Diff:     input.Target.Sub(obligation.Principal),
		}
		if result.Diff.IsZero() {
			return nil
		}

		if err := s.ObligationRepo.UpdatePrincipal(ctx, input.OwnerID, obligation.ID, input.Target); err != nil {
			return fmt.Errorf("failed to correct obligation %s: %w", obligation.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
