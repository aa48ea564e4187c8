package correction

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/adapter/repository/memory"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
	"github.com/simaogato/debtflow-backend/internal/usecase/repayment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*CorrectionService, *memory.Store, uuid.UUID, *domain.Facility) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	balances := balance.NewCalculator(store.Facilities(), store.Obligations())
	repayments := repayment.NewRepaymentService(store.Facilities(), store.Obligations(), store.Ledger(), store.Categories(), store)
	repayments.Now = func() time.Time { return fixedNow }
	service := NewCorrectionService(store.Facilities(), store.Obligations(), balances, repayments, store)
	service.Now = func() time.Time { return fixedNow }

	ownerID := uuid.New()
	facility := &domain.Facility{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      "Gold",
		Limit:     decimal.NewFromInt(2000),
		CreatedAt: fixedNow,
	}
	require.NoError(t, store.Facilities().Create(ctx, facility))

	return service, store, ownerID, facility
}

func addObligation(t *testing.T, store *memory.Store, ownerID, facilityID uuid.UUID, principal int64, start time.Time) *domain.Obligation {
	t.Helper()
	fid := facilityID
	o := &domain.Obligation{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       "purchase",
		Principal:  decimal.NewFromInt(principal),
		FacilityID: &fid,
		StartDate:  start,
		CreatedAt:  fixedNow,
	}
	require.NoError(t, store.Obligations().Create(context.Background(), o))
	return o
}

func TestCorrectFacility_UpThenDown(t *testing.T) {
	ctx := context.Background()
	service, store, ownerID, facility := setup(t)
	jan := addObligation(t, store, ownerID, facility.ID, 150, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	feb := addObligation(t, store, ownerID, facility.ID, 50, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))

	// 200 -> 500 synthesizes a 300 obligation
	up, err := service.CorrectFacility(ctx, CorrectFacilityInput{
		OwnerID:    ownerID,
		FacilityID: facility.ID,
		Target:     decimal.NewFromInt(500),
		Reason:     "statement",
	})
	require.NoError(t, err)

	assert.True(t, up.Previous.Equal(decimal.NewFromInt(200)))
	assert.True(t, up.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, up.Diff.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, up.Created)
	assert.Nil(t, up.Repayment)
	assert.Equal(t, "Balance adjustment (+): statement", up.Created.Name)
	assert.True(t, up.Created.Principal.Equal(decimal.NewFromInt(300)))
	assert.True(t, up.Created.InterestRate.Valid)
	assert.True(t, up.Created.InterestRate.Decimal.IsZero())
	require.NotNil(t, up.Created.Installments)
	assert.Equal(t, 1, *up.Created.Installments)
	assert.Equal(t, domain.Day(fixedNow), up.Created.StartDate)
	assert.True(t, up.Created.LinkedTo(facility.ID))

	// 500 -> 200 repays 300 through the waterfall, oldest first
	down, err := service.CorrectFacility(ctx, CorrectFacilityInput{
		OwnerID:    ownerID,
		FacilityID: facility.ID,
		Target:     decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	assert.True(t, down.Diff.Equal(decimal.NewFromInt(-300)))
	assert.True(t, down.Balance.Equal(decimal.NewFromInt(200)))
	assert.Nil(t, down.Created)
	require.NotNil(t, down.Repayment)
	require.NotNil(t, down.Repayment.Entry)
	assert.Equal(t, "Credit card payment: Gold - Balance adjustment (-): Manual adjustment", down.Repayment.Entry.Description)
	assert.True(t, down.Repayment.Entry.Amount.Equal(decimal.NewFromInt(300)))

	obligations := store.Obligations()
	got, err := obligations.GetByID(ctx, ownerID, jan.ID)
	require.NoError(t, err)
	assert.True(t, got.Principal.IsZero())
	got, err = obligations.GetByID(ctx, ownerID, feb.ID)
	require.NoError(t, err)
	assert.True(t, got.Principal.IsZero())
	got, err = obligations.GetByID(ctx, ownerID, up.Created.ID)
	require.NoError(t, err)
	assert.True(t, got.Principal.Equal(decimal.NewFromInt(200)))
}

func TestCorrectFacility_SameTargetIsNoOp(t *testing.T) {
	ctx := context.Background()
	service, store, ownerID, facility := setup(t)
	addObligation(t, store, ownerID, facility.ID, 120, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	input := CorrectFacilityInput{
		OwnerID:    ownerID,
		FacilityID: facility.ID,
		Target:     decimal.NewFromInt(300),
	}
	_, err := service.CorrectFacility(ctx, input)
	require.NoError(t, err)

	again, err := service.CorrectFacility(ctx, input)
	require.NoError(t, err)
	assert.True(t, again.Diff.IsZero())
	assert.Nil(t, again.Created)
	assert.Nil(t, again.Repayment)

	active, err := store.Obligations().ListActiveByFacility(ctx, ownerID, facility.ID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestCorrectFacility_Errors(t *testing.T) {
	ctx := context.Background()
	service, _, ownerID, facility := setup(t)

	_, err := service.CorrectFacility(ctx, CorrectFacilityInput{
		OwnerID:    ownerID,
		FacilityID: facility.ID,
		Target:     decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = service.CorrectFacility(ctx, CorrectFacilityInput{
		OwnerID:    ownerID,
		FacilityID: uuid.New(),
		Target:     decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorrectObligation(t *testing.T) {
	ctx := context.Background()
	service, store, ownerID, facility := setup(t)
	o := addObligation(t, store, ownerID, facility.ID, 120, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))

	result, err := service.CorrectObligation(ctx, CorrectObligationInput{
		OwnerID:      ownerID,
		ObligationID: o.ID,
		Target:       decimal.NewFromInt(90),
	})
	require.NoError(t, err)
	assert.True(t, result.Diff.Equal(decimal.NewFromInt(-30)))

	got, err := store.Obligations().GetByID(ctx, ownerID, o.ID)
	require.NoError(t, err)
	assert.True(t, got.Principal.Equal(decimal.NewFromInt(90)))

	_, err = service.CorrectObligation(ctx, CorrectObligationInput{
		OwnerID:      ownerID,
		ObligationID: o.ID,
		Target:       decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = service.CorrectObligation(ctx, CorrectObligationInput{
		OwnerID:      ownerID,
		ObligationID: uuid.New(),
		Target:       decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
