package allocator

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func obligationAt(principal string, start time.Time, created time.Time) domain.Obligation {
	return domain.Obligation{
		ID:        uuid.New(),
		Name:      "obligation " + principal,
		Principal: dec(principal),
		StartDate: start,
		CreatedAt: created,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFillInOrder(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		capacities []string
		want       []string
		leftover   string
	}{
		{
			name:       "Amount spread in order",
			amount:     "120",
			capacities: []string{"100", "50"},
			want:       []string{"100", "20"},
			leftover:   "0",
		},
		{
			name:       "Amount larger than capacity leaves leftover",
			amount:     "200",
			capacities: []string{"100", "50"},
			want:       []string{"100", "50"},
			leftover:   "50",
		},
		{
			name:       "Negative capacity counts as zero",
			amount:     "30",
			capacities: []string{"-10", "40"},
			want:       []string{"0", "30"},
			leftover:   "0",
		},
		{
			name:       "No capacities",
			amount:     "30",
			capacities: nil,
			want:       []string{},
			leftover:   "30",
		},
		{
			name:       "Cents are preserved",
			amount:     "0.30",
			capacities: []string{"0.10", "0.10", "0.10"},
			want:       []string{"0.10", "0.10", "0.10"},
			leftover:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capacities := make([]decimal.Decimal, len(tt.capacities))
			for i, c := range tt.capacities {
				capacities[i] = dec(c)
			}

			got, leftover := FillInOrder(dec(tt.amount), capacities)

			require.Len(t, got, len(tt.want))
			sum := decimal.Zero
			for i, w := range tt.want {
				assert.True(t, got[i].Equal(dec(w)), "slot %d: got %s, want %s", i, got[i], w)
				sum = sum.Add(got[i])
			}
			assert.True(t, leftover.Equal(dec(tt.leftover)), "leftover: got %s, want %s", leftover, tt.leftover)
			assert.True(t, sum.Add(leftover).Equal(dec(tt.amount)), "allocations plus leftover must equal the amount")
		})
	}
}

func TestCalculateWaterfall_OldestFirst(t *testing.T) {
	created := time.Now()
	first := obligationAt("100", date(2024, 1, 1), created)
	second := obligationAt("50", date(2024, 2, 1), created)

	// Passed newest first on purpose
	plan, err := CalculateWaterfall(dec("120"), []domain.Obligation{second, first})
	require.NoError(t, err)

	require.Len(t, plan.Steps, 2)
	assert.Equal(t, first.ID, plan.Steps[0].ObligationID)
	assert.True(t, plan.Steps[0].After.IsZero())
	assert.Equal(t, second.ID, plan.Steps[1].ObligationID)
	assert.True(t, plan.Steps[1].After.Equal(dec("30")))
	assert.True(t, plan.Applied.Equal(dec("120")))
	assert.True(t, plan.Leftover.IsZero())
	assert.True(t, plan.Discarded.IsZero())
}

func TestCalculateWaterfall_Overpayment(t *testing.T) {
	created := time.Now()
	obligations := []domain.Obligation{
		obligationAt("100", date(2024, 1, 1), created),
		obligationAt("50", date(2024, 2, 1), created),
	}

	plan, err := CalculateWaterfall(dec("500"), obligations)
	require.NoError(t, err)

	assert.True(t, plan.Applied.Equal(dec("150")))
	assert.True(t, plan.Discarded.Equal(dec("350")))
	for _, step := range plan.Steps {
		assert.True(t, step.After.IsZero())
	}
}

func TestCalculateWaterfall_TieBreakByCreation(t *testing.T) {
	start := date(2024, 3, 1)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	later := obligationAt("40", start, created.Add(time.Hour))
	earlier := obligationAt("40", start, created)

	plan, err := CalculateWaterfall(dec("40"), []domain.Obligation{later, earlier})
	require.NoError(t, err)

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, earlier.ID, plan.Steps[0].ObligationID)
}

func TestCalculateWaterfall_SkipsSettledObligations(t *testing.T) {
	created := time.Now()
	settled := obligationAt("0", date(2023, 1, 1), created)
	open := obligationAt("80", date(2024, 1, 1), created)

	plan, err := CalculateWaterfall(dec("30"), []domain.Obligation{settled, open})
	require.NoError(t, err)

	require.Len(t, plan.Steps, 1)
	assert.Equal(t, open.ID, plan.Steps[0].ObligationID)
	assert.True(t, plan.Steps[0].After.Equal(dec("50")))
}

func TestCalculateWaterfall_NoObligations(t *testing.T) {
	plan, err := CalculateWaterfall(dec("30"), nil)
	require.NoError(t, err)

	assert.Empty(t, plan.Steps)
	assert.True(t, plan.Applied.IsZero())
	assert.True(t, plan.Discarded.Equal(dec("30")))
}

func TestCalculateWaterfall_InvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-10"} {
		plan, err := CalculateWaterfall(dec(amount), []domain.Obligation{obligationAt("10", date(2024, 1, 1), time.Now())})
		assert.Error(t, err, amount)
		assert.Nil(t, plan)
	}
}

func TestCalculateWaterfall_DoesNotMutateInput(t *testing.T) {
	created := time.Now()
	obligations := []domain.Obligation{
		obligationAt("50", date(2024, 2, 1), created),
		obligationAt("100", date(2024, 1, 1), created),
	}
	firstID := obligations[0].ID

	_, err := CalculateWaterfall(dec("120"), obligations)
	require.NoError(t, err)

	assert.Equal(t, firstID, obligations[0].ID)
	assert.True(t, obligations[0].Principal.Equal(dec("50")))
	assert.True(t, obligations[1].Principal.Equal(dec("100")))
}

func TestCalculateWaterfall_Conservation(t *testing.T) {
	created := time.Now()
	obligations := []domain.Obligation{
		obligationAt("10.10", date(2024, 1, 1), created),
		obligationAt("0.01", date(2024, 1, 2), created),
		obligationAt("999.99", date(2024, 1, 3), created),
		obligationAt("33.33", date(2024, 1, 4), created),
	}
	total := dec("1043.43")

	for _, amount := range []string{"0.01", "10.10", "10.11", "500", "1043.43", "1043.44", "5000"} {
		plan, err := CalculateWaterfall(dec(amount), obligations)
		require.NoError(t, err, amount)

		reduced := decimal.Zero
		for _, step := range plan.Steps {
			assert.False(t, step.After.IsNegative(), "principal must never go negative")
			assert.True(t, step.Before.Sub(step.Reduction).Equal(step.After))
			reduced = reduced.Add(step.Reduction)
		}
		assert.True(t, reduced.Equal(decimal.Min(dec(amount), total)), "amount %s: reduced %s", amount, reduced)
		assert.True(t, plan.Applied.Add(plan.Discarded).Equal(dec(amount)))
	}
}

func TestRankByRate(t *testing.T) {
	rates := []decimal.Decimal{dec("5"), dec("9.5"), dec("5.00"), dec("0")}

	assert.Equal(t, []int{1, 0, 2, 3}, RankByRate(rates, true))
	assert.Equal(t, []int{3, 0, 2, 1}, RankByRate(rates, false))
	assert.Empty(t, RankByRate(nil, true))
}
