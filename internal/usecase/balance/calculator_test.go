package balance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockFacilityRepository is a mock implementation of FacilityRepository for testing
type MockFacilityRepository struct {
	mock.Mock
}

func (m *MockFacilityRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Facility, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Facility), args.Error(1)
}

func (m *MockFacilityRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Facility, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Facility), args.Error(1)
}

func (m *MockFacilityRepository) Create(ctx context.Context, facility *domain.Facility) error {
	args := m.Called(ctx, facility)
	return args.Error(0)
}

func (m *MockFacilityRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockObligationRepository is a mock implementation of ObligationRepository for testing
type MockObligationRepository struct {
	mock.Mock
}

func (m *MockObligationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Obligation, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ListActive(ctx context.Context, ownerID uuid.UUID) ([]*domain.Obligation, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Obligation), args.Error(1)
}

func (m *MockObligationRepository) ListActiveByFacility(ctx context.Context, ownerID, facilityID uuid.UUID) ([]*domain.Obligation, error) {
	args := m.Called(ctx, ownerID, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Obligation), args.Error(1)
}

func (m *MockObligationRepository) Create(ctx context.Context, obligation *domain.Obligation) error {
	args := m.Called(ctx, obligation)
	return args.Error(0)
}

func (m *MockObligationRepository) UpdatePrincipal(ctx context.Context, ownerID, id uuid.UUID, principal decimal.Decimal) error {
	args := m.Called(ctx, ownerID, id, principal)
	return args.Error(0)
}

func (m *MockObligationRepository) LinkFacility(ctx context.Context, ownerID, id, facilityID uuid.UUID, rate decimal.Decimal) error {
	args := m.Called(ctx, ownerID, id, facilityID, rate)
	return args.Error(0)
}

func (m *MockObligationRepository) SoftDelete(ctx context.Context, ownerID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, ownerID, id, at)
	return args.Error(0)
}

func linked(facilityID uuid.UUID, principal int64) *domain.Obligation {
	fid := facilityID
	return &domain.Obligation{
		ID:         uuid.New(),
		Name:       "obligation",
		Principal:  decimal.NewFromInt(principal),
		FacilityID: &fid,
		StartDate:  time.Now(),
	}
}

func TestFacilityBalance(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	facilityID := uuid.New()

	t.Run("Sums active obligations", func(t *testing.T) {
		mockObligationRepo := new(MockObligationRepository)
		calculator := NewCalculator(new(MockFacilityRepository), mockObligationRepo)

		mockObligationRepo.On("ListActiveByFacility", ctx, ownerID, facilityID).
			Return([]*domain.Obligation{linked(facilityID, 100), linked(facilityID, 50)}, nil)

		got, err := calculator.FacilityBalance(ctx, ownerID, facilityID)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(150)))
		mockObligationRepo.AssertExpectations(t)
	})

	t.Run("No obligations is zero", func(t *testing.T) {
		mockObligationRepo := new(MockObligationRepository)
		calculator := NewCalculator(new(MockFacilityRepository), mockObligationRepo)

		mockObligationRepo.On("ListActiveByFacility", ctx, ownerID, facilityID).
			Return([]*domain.Obligation{}, nil)

		got, err := calculator.FacilityBalance(ctx, ownerID, facilityID)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("Persistence error propagates", func(t *testing.T) {
		mockObligationRepo := new(MockObligationRepository)
		calculator := NewCalculator(new(MockFacilityRepository), mockObligationRepo)
		dbErr := errors.New("connection reset")

		mockObligationRepo.On("ListActiveByFacility", ctx, ownerID, facilityID).Return(nil, dbErr)

		_, err := calculator.FacilityBalance(ctx, ownerID, facilityID)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestObligationBalance(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Returns the principal", func(t *testing.T) {
		mockObligationRepo := new(MockObligationRepository)
		calculator := NewCalculator(new(MockFacilityRepository), mockObligationRepo)
		o := linked(uuid.New(), 75)

		mockObligationRepo.On("GetByID", ctx, ownerID, o.ID).Return(o, nil)

		got, err := calculator.ObligationBalance(ctx, ownerID, o.ID)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.NewFromInt(75)))
	})

	t.Run("Unknown obligation is zero", func(t *testing.T) {
		mockObligationRepo := new(MockObligationRepository)
		calculator := NewCalculator(new(MockFacilityRepository), mockObligationRepo)
		id := uuid.New()

		mockObligationRepo.On("GetByID", ctx, ownerID, id).
			Return(nil, fmt.Errorf("obligation %s %w", id, domain.ErrNotFound))

		got, err := calculator.ObligationBalance(ctx, ownerID, id)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})
}

func TestFacilityBalances(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	mockFacilityRepo := new(MockFacilityRepository)
	mockObligationRepo := new(MockObligationRepository)
	calculator := NewCalculator(mockFacilityRepo, mockObligationRepo)

	gold := &domain.Facility{ID: uuid.New(), Name: "Gold"}
	silver := &domain.Facility{ID: uuid.New(), Name: "Silver"}
	unlinked := &domain.Obligation{ID: uuid.New(), Principal: decimal.NewFromInt(999)}
	orphan := linked(uuid.New(), 40)

	mockFacilityRepo.On("List", ctx, ownerID).Return([]*domain.Facility{gold, silver}, nil)
	mockObligationRepo.On("ListActive", ctx, ownerID).Return([]*domain.Obligation{
		linked(gold.ID, 100),
		linked(gold.ID, 25),
		unlinked,
		orphan,
	}, nil)

	got, err := calculator.FacilityBalances(ctx, ownerID)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.True(t, got[gold.ID].Equal(decimal.NewFromInt(125)))
	assert.True(t, got[silver.ID].IsZero())
	mockFacilityRepo.AssertExpectations(t)
	mockObligationRepo.AssertExpectations(t)
}

func TestSumPrincipal(t *testing.T) {
	deleted := time.Now()
	obligations := []*domain.Obligation{
		{Principal: decimal.NewFromInt(10)},
		{Principal: decimal.NewFromInt(20), DeletedAt: &deleted},
		{Principal: decimal.RequireFromString("0.05")},
	}

	assert.True(t, SumPrincipal(obligations).Equal(decimal.RequireFromString("10.05")))
	assert.True(t, SumPrincipal(nil).IsZero())
}
