package analytics

import (
	"bytes"
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
	"github.com/xuri/excelize/v2"
)

var fixedNow = time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type analyticsFixture struct {
	store   *memory.Store
	service *AnalyticsService
	ownerID uuid.UUID
	debt    *domain.Category
}

func newAnalyticsFixture(t *testing.T) *analyticsFixture {
	t.Helper()
	store := memory.NewStore()
	balances := balance.NewCalculator(store.Facilities(), store.Obligations())
	service := NewAnalyticsService(store.Facilities(), store.Ledger(), balances)
	service.Now = func() time.Time { return fixedNow }

	debt := &domain.Category{ID: uuid.New(), Name: domain.DebtPaymentCategoryName, Kind: domain.EntryKindExpense}
	require.NoError(t, store.Categories().Create(context.Background(), debt))

	return &analyticsFixture{store: store, service: service, ownerID: uuid.New(), debt: debt}
}

func (f *analyticsFixture) facility(t *testing.T, name, limit, rate, debt string) *domain.Facility {
	t.Helper()
	ctx := context.Background()
	facility := &domain.Facility{
		ID:           uuid.New(),
		OwnerID:      f.ownerID,
		Name:         name,
		Limit:        dec(limit),
		InterestRate: dec(rate),
		CreatedAt:    fixedNow,
	}
	require.NoError(t, f.store.Facilities().Create(ctx, facility))

	if !dec(debt).IsZero() {
		fid := facility.ID
		require.NoError(t, f.store.Obligations().Create(ctx, &domain.Obligation{
			ID:         uuid.New(),
			OwnerID:    f.ownerID,
			Name:       name + " debt",
			Principal:  dec(debt),
			FacilityID: &fid,
			StartDate:  day(2024, 1, 1),
			CreatedAt:  fixedNow,
		}))
	}
	return facility
}

func (f *analyticsFixture) entry(t *testing.T, e domain.LedgerEntry) {
	t.Helper()
	e.ID = uuid.New()
	e.OwnerID = f.ownerID
	e.CreatedAt = fixedNow
	require.NoError(t, f.store.Ledger().Create(context.Background(), &e))
}

func (f *analyticsFixture) cardSpending(t *testing.T, amount string, date time.Time) {
	f.entry(t, domain.LedgerEntry{
		Description:   "purchase",
		Amount:        dec(amount),
		Kind:          domain.EntryKindExpense,
		PaymentMethod: "credit_card",
		Date:          date,
	})
}

func (f *analyticsFixture) cardRepayment(t *testing.T, amount string, date time.Time) {
	f.entry(t, domain.LedgerEntry{
		Description:   "Credit card payment: Gold",
		Amount:        dec(amount),
		Kind:          domain.EntryKindExpense,
		PaymentMethod: domain.PaymentMethodBankTransfer,
		CategoryID:    &f.debt.ID,
		Date:          date,
	})
}

func TestEvolution_NoEntries(t *testing.T) {
	f := newAnalyticsFixture(t)

	buckets, err := f.service.Evolution(context.Background(), f.ownerID)
	require.NoError(t, err)

	require.Len(t, buckets, 24)
	for _, b := range buckets {
		assert.True(t, b.Spending.IsZero(), b.Label)
		assert.True(t, b.Repayment.IsZero(), b.Label)
	}
}

func TestEvolutionBuckets_Layout(t *testing.T) {
	buckets := EvolutionBuckets(day(2024, 6, 15))
	require.Len(t, buckets, 24)

	assert.Equal(t, "7/23 (1st half)", buckets[0].Label)
	assert.Equal(t, day(2023, 7, 1), buckets[0].Start)
	assert.Equal(t, day(2023, 7, 15), buckets[0].End)
	assert.Equal(t, "7/23 (2nd half)", buckets[1].Label)
	assert.Equal(t, day(2023, 7, 16), buckets[1].Start)
	assert.Equal(t, day(2023, 7, 31), buckets[1].End)

	// Leap February
	assert.Equal(t, "2/24 (2nd half)", buckets[15].Label)
	assert.Equal(t, day(2024, 2, 29), buckets[15].End)

	assert.Equal(t, "6/24 (2nd half)", buckets[23].Label)
	assert.Equal(t, day(2024, 6, 30), buckets[23].End)

	// Contiguous, no gaps or overlaps
	for i := 1; i < len(buckets); i++ {
		assert.Equal(t, buckets[i-1].End.AddDate(0, 0, 1), buckets[i].Start, buckets[i].Label)
	}
}

func TestEvolution_AssignsEntriesToHalves(t *testing.T) {
	f := newAnalyticsFixture(t)
	f.cardSpending(t, "40", day(2024, 6, 15))
	f.cardSpending(t, "10.50", day(2024, 6, 1))
	f.cardRepayment(t, "25", day(2024, 6, 16))
	f.cardSpending(t, "999", day(2023, 6, 30)) // before the window

	// Neither card spending nor a card repayment
	f.entry(t, domain.LedgerEntry{
		Description:   "Rent",
		Amount:        dec("800"),
		Kind:          domain.EntryKindExpense,
		PaymentMethod: domain.PaymentMethodBankTransfer,
		Date:          day(2024, 6, 2),
	})

	buckets, err := f.service.Evolution(context.Background(), f.ownerID)
	require.NoError(t, err)

	assert.True(t, buckets[22].Spending.Equal(dec("50.50")))
	assert.True(t, buckets[22].Repayment.IsZero())
	assert.True(t, buckets[23].Spending.IsZero())
	assert.True(t, buckets[23].Repayment.Equal(dec("25")))

	total := decimal.Zero
	for _, b := range buckets {
		total = total.Add(b.Spending).Add(b.Repayment)
	}
	assert.True(t, total.Equal(dec("75.50")))
}

func TestCreditReport(t *testing.T) {
	f := newAnalyticsFixture(t)
	f.facility(t, "A", "1000", "5", "400")
	f.facility(t, "B", "500", "12.5", "600") // over limit
	f.facility(t, "C", "1500", "5.00", "0")

	report, err := f.service.CreditReport(context.Background(), f.ownerID)
	require.NoError(t, err)

	assert.True(t, report.Utilization.TotalLimit.Equal(dec("3000")))
	assert.True(t, report.Utilization.Used.Equal(dec("1000")))
	assert.True(t, report.Utilization.Available.Equal(dec("2000")))
	assert.True(t, report.TotalDebt.Equal(dec("1000")))
	assert.Len(t, report.Evolution, 24)

	require.Len(t, report.RateGroups, 2)
	five := report.RateGroups[0]
	assert.True(t, five.InterestRate.Equal(dec("5")))
	assert.True(t, five.Limit.Equal(dec("2500")))
	assert.True(t, five.Used.Equal(dec("400")))
	assert.True(t, five.Percentage.Equal(dec("16")))

	high := report.RateGroups[1]
	assert.True(t, high.InterestRate.Equal(dec("12.5")))
	assert.True(t, high.Percentage.Equal(dec("120")))
}

func TestCalculateUtilization_OverLimitIsNegative(t *testing.T) {
	f := &domain.Facility{ID: uuid.New(), Limit: dec("100")}
	u := CalculateUtilization([]*domain.Facility{f}, map[uuid.UUID]decimal.Decimal{f.ID: dec("130")})

	assert.True(t, u.Available.Equal(dec("-30")))
}

func TestGroupByRate_ZeroLimitGroup(t *testing.T) {
	f := &domain.Facility{ID: uuid.New(), Limit: decimal.Zero, InterestRate: dec("3")}
	groups := GroupByRate([]*domain.Facility{f}, map[uuid.UUID]decimal.Decimal{f.ID: dec("10")})

	require.Len(t, groups, 1)
	assert.True(t, groups[0].Percentage.IsZero())
}

func TestExportXLSX(t *testing.T) {
	f := newAnalyticsFixture(t)
	f.facility(t, "A", "1000", "5", "400")
	f.cardSpending(t, "40", day(2024, 6, 3))

	report, err := f.service.CreditReport(context.Background(), f.ownerID)
	require.NoError(t, err)

	data, err := ExportXLSX(report)
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{sheetUtilization, sheetRates, sheetEvolution}, book.GetSheetList())

	rows, err := book.GetRows(sheetEvolution)
	require.NoError(t, err)
	assert.Len(t, rows, 25)
	assert.Equal(t, "Period", rows[0][0])

	width, err := book.GetColWidth(sheetEvolution, "A")
	require.NoError(t, err)
	assert.Equal(t, 18.0, width)

	rates, err := book.GetRows(sheetRates)
	require.NoError(t, err)
	assert.Len(t, rates, 2)
}
