package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
)

// EvolutionMonths is the length of the trailing timeline window
const EvolutionMonths = 12

var hundred = decimal.NewFromInt(100)

// Utilization summarises credit usage across all facilities
type Utilization struct {
	TotalLimit decimal.Decimal
	Used       decimal.Decimal
	Available  decimal.Decimal // Limit - Used, negative when over limit
}

// RateGroup aggregates facilities sharing one interest rate
type RateGroup struct {
	InterestRate decimal.Decimal
	Limit        decimal.Decimal
	Used         decimal.Decimal
	Percentage   decimal.Decimal // Used / Limit * 100, zero when Limit is zero
}

// EvolutionBucket is one half-month of the spending/repayment timeline
type EvolutionBucket struct {
	Label     string
	Start     time.Time // First day of the bucket
	End       time.Time // Last day of the bucket (inclusive)
	Spending  decimal.Decimal
	Repayment decimal.Decimal
}

// Report is the credit analytics payload
type Report struct {
	Utilization Utilization
	RateGroups  []RateGroup
	Evolution   []EvolutionBucket
	TotalDebt   decimal.Decimal
}

// AnalyticsService produces read-only reports over facilities and the ledger
type AnalyticsService struct {
	FacilityRepo domain.FacilityRepository
	LedgerRepo   domain.LedgerRepository
	Balances     *balance.Calculator

	// Now is the clock that anchors the evolution window
	Now func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService instance
func NewAnalyticsService(
	facilityRepo domain.FacilityRepository,
	ledgerRepo domain.LedgerRepository,
	balances *balance.Calculator,
) *AnalyticsService {
	return &AnalyticsService{
		FacilityRepo: facilityRepo,
		LedgerRepo:   ledgerRepo,
		Balances:     balances,
		Now:          time.Now,
	}
}

// CreditReport builds utilization, rate grouping and the evolution timeline
func (s *AnalyticsService) CreditReport(ctx context.Context, ownerID uuid.UUID) (*Report, error) {
	facilities, err := s.FacilityRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}

	balances, err := s.Balances.BalancesFor(ctx, ownerID, facilities)
	if err != nil {
		return nil, err
	}

	evolution, err := s.Evolution(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	utilization := CalculateUtilization(facilities, balances)

	return &Report{
		Utilization: utilization,
		RateGroups:  GroupByRate(facilities, balances),
		Evolution:   evolution,
		TotalDebt:   utilization.Used,
	}, nil
}

// CalculateUtilization sums limits and debts. Available is deliberately not clamped.
func CalculateUtilization(facilities []*domain.Facility, balances map[uuid.UUID]decimal.Decimal) Utilization {
	var u Utilization
	for _, f := range facilities {
		u.TotalLimit = u.TotalLimit.Add(f.Limit)
		u.Used = u.Used.Add(balances[f.ID])
	}
	u.Available = u.TotalLimit.Sub(u.Used)
	return u
}

// GroupByRate groups facilities by identical interest rate, sorted by rate ascending
func GroupByRate(facilities []*domain.Facility, balances map[uuid.UUID]decimal.Decimal) []RateGroup {
	groups := make([]RateGroup, 0)
	index := make(map[string]int)

	for _, f := range facilities {
		// Equal decimals with different exponents must share a group
		key := f.InterestRate.String()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, RateGroup{InterestRate: f.InterestRate})
		}
		groups[i].Limit = groups[i].Limit.Add(f.Limit)
		groups[i].Used = groups[i].Used.Add(balances[f.ID])
	}

	for i := range groups {
		groups[i].Percentage = decimal.Zero
		if groups[i].Limit.IsPositive() {
			groups[i].Percentage = groups[i].Used.Div(groups[i].Limit).Mul(hundred).RoundBank(domain.MoneyScale)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].InterestRate.LessThan(groups[j].InterestRate)
	})

	return groups
}

// Evolution returns the half-month card spending and repayment timeline:
// exactly 2*EvolutionMonths buckets, oldest first, the last month being the current one.
func (s *AnalyticsService) Evolution(ctx context.Context, ownerID uuid.UUID) ([]EvolutionBucket, error) {
	today := domain.Day(s.Now())
	buckets := EvolutionBuckets(today)

	entries, err := s.LedgerRepo.ListBetween(ctx, ownerID, buckets[0].Start, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	FillEvolution(buckets, entries)
	return buckets, nil
}

// EvolutionBuckets lays out the empty timeline ending with the month of today.
// Each month splits into days 1-15 and 16-end of month.
func EvolutionBuckets(today time.Time) []EvolutionBucket {
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(EvolutionMonths - 1), 0)

	buckets := make([]EvolutionBucket, 0, EvolutionMonths*2)
	for m := 0; m < EvolutionMonths; m++ {
		monthStart := first.AddDate(0, m, 0)
		monthEnd := monthStart.AddDate(0, 1, -1)
		mid := monthStart.AddDate(0, 0, 14)
		label := fmt.Sprintf("%d/%02d", int(monthStart.Month()), monthStart.Year()%100)

		buckets = append(buckets,
			EvolutionBucket{
				Label:     label + " (1st half)",
				Start:     monthStart,
				End:       mid,
				Spending:  decimal.Zero,
				Repayment: decimal.Zero,
			},
			EvolutionBucket{
				Label:     label + " (2nd half)",
				Start:     mid.AddDate(0, 0, 1),
				End:       monthEnd,
				Spending:  decimal.Zero,
				Repayment: decimal.Zero,
			},
		)
	}

	return buckets
}

// FillEvolution adds every matching entry to the bucket covering its date.
// Entries outside the timeline are ignored.
func FillEvolution(buckets []EvolutionBucket, entries []*domain.LedgerEntry) {
	for _, e := range entries {
		if !e.IsCardSpending() && !e.IsCardRepayment() {
			continue
		}
		day := domain.Day(e.Date)
		for i := range buckets {
			if day.Before(buckets[i].Start) || day.After(buckets[i].End) {
				continue
			}
			if e.IsCardSpending() {
				buckets[i].Spending = buckets[i].Spending.Add(e.Amount)
			}
			if e.IsCardRepayment() {
				buckets[i].Repayment = buckets[i].Repayment.Add(e.Amount)
			}
			break
		}
	}
}
