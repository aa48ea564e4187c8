package recommendation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/adapter/repository/memory"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type card struct {
	name  string
	limit int64
	rate  string
	debt  int64
}

// setup registers the cards in order, each with one obligation carrying its debt
func setup(t *testing.T, cards []card) (*RecommendationService, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	ownerID := uuid.New()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, c := range cards {
		f := &domain.Facility{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			Name:         c.name,
			Limit:        decimal.NewFromInt(c.limit),
			InterestRate: decimal.RequireFromString(c.rate),
			CreatedAt:    created.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Facilities().Create(ctx, f))

		if c.debt == 0 {
			continue
		}
		fid := f.ID
		require.NoError(t, store.Obligations().Create(ctx, &domain.Obligation{
			ID:         uuid.New(),
			OwnerID:    ownerID,
			Name:       c.name + " debt",
			Principal:  decimal.NewFromInt(c.debt),
			FacilityID: &fid,
			StartDate:  created,
			CreatedAt:  created,
		}))
	}

	balances := balance.NewCalculator(store.Facilities(), store.Obligations())
	return NewRecommendationService(store.Facilities(), balances), ownerID
}

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}
	return out
}

func TestRepaymentRanking_Avalanche(t *testing.T) {
	service, ownerID := setup(t, []card{
		{name: "A", limit: 1000, rate: "5", debt: 300},
		{name: "B", limit: 1000, rate: "20", debt: 100},
		{name: "C", limit: 1000, rate: "12", debt: 0},
		{name: "D", limit: 1000, rate: "5.00", debt: 200},
	})

	plan, err := service.RepaymentRanking(context.Background(), ownerID, decimal.NewFromInt(350))
	require.NoError(t, err)

	// C has no debt; A and D tie on rate and keep creation order
	assert.Equal(t, []string{"B", "A", "D"}, names(plan.Recommendations, func(r RepaymentRecommendation) string { return r.Name }))
	assert.True(t, plan.Recommendations[0].RecommendedPayment.Equal(decimal.NewFromInt(100)))
	assert.True(t, plan.Recommendations[1].RecommendedPayment.Equal(decimal.NewFromInt(250)))
	assert.True(t, plan.Recommendations[2].RecommendedPayment.IsZero())
	assert.True(t, plan.TotalDebt.Equal(decimal.NewFromInt(600)))
	assert.True(t, plan.Unallocated.IsZero())
}

func TestRepaymentRanking_BudgetAboveTotalDebt(t *testing.T) {
	service, ownerID := setup(t, []card{
		{name: "A", limit: 1000, rate: "5", debt: 300},
	})

	plan, err := service.RepaymentRanking(context.Background(), ownerID, decimal.NewFromInt(500))
	require.NoError(t, err)

	require.Len(t, plan.Recommendations, 1)
	assert.True(t, plan.Recommendations[0].RecommendedPayment.Equal(decimal.NewFromInt(300)))
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(200)))
}

func TestRepaymentRanking_NoDebt(t *testing.T) {
	service, ownerID := setup(t, []card{
		{name: "A", limit: 1000, rate: "5"},
	})

	plan, err := service.RepaymentRanking(context.Background(), ownerID, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Empty(t, plan.Recommendations)
	assert.True(t, plan.Unallocated.Equal(decimal.NewFromInt(100)))
}

func TestPurchaseRanking_CheapestFirst(t *testing.T) {
	service, ownerID := setup(t, []card{
		{name: "Expensive", limit: 1000, rate: "20", debt: 0},
		{name: "Cheap", limit: 500, rate: "3", debt: 400},
		{name: "Mid", limit: 800, rate: "9", debt: 0},
		{name: "Maxed", limit: 300, rate: "1", debt: 350},
	})

	plan, err := service.PurchaseRanking(context.Background(), ownerID, decimal.NewFromInt(600))
	require.NoError(t, err)

	assert.True(t, plan.Feasible)
	assert.Equal(t, []string{"Maxed", "Cheap", "Mid", "Expensive"}, names(plan.Recommendations, func(r PurchaseRecommendation) string { return r.Name }))

	// Over-limit facilities have zero headroom, never negative
	assert.True(t, plan.Recommendations[0].Headroom.IsZero())
	assert.True(t, plan.Recommendations[0].RecommendedUsage.IsZero())
	assert.True(t, plan.Recommendations[1].RecommendedUsage.Equal(decimal.NewFromInt(100)))
	assert.True(t, plan.Recommendations[2].RecommendedUsage.Equal(decimal.NewFromInt(500)))
	assert.True(t, plan.Recommendations[3].RecommendedUsage.IsZero())
	assert.True(t, plan.TotalHeadroom.Equal(decimal.NewFromInt(1900)))
}

func TestPurchaseRanking_Infeasible(t *testing.T) {
	service, ownerID := setup(t, []card{
		{name: "Full", limit: 1000, rate: "10", debt: 1000},
	})

	plan, err := service.PurchaseRanking(context.Background(), ownerID, decimal.NewFromInt(50))
	require.NoError(t, err)

	assert.False(t, plan.Feasible)
	require.Len(t, plan.Recommendations, 1)
	assert.True(t, plan.Recommendations[0].RecommendedUsage.IsZero())
	assert.True(t, plan.TotalHeadroom.IsZero())
}

func TestRanking_InvalidAmounts(t *testing.T) {
	service, ownerID := setup(t, nil)
	ctx := context.Background()

	_, err := service.RepaymentRanking(ctx, ownerID, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = service.PurchaseRanking(ctx, ownerID, decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
