package recommendation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
	"github.com/simaogato/debtflow-backend/internal/usecase/allocator"
	"github.com/simaogato/debtflow-backend/internal/usecase/balance"
)

// RepaymentRecommendation is one facility in the avalanche ranking
type RepaymentRecommendation struct {
	FacilityID         uuid.UUID
	Name               string
	InterestRate       decimal.Decimal
	CurrentDebt        decimal.Decimal
	RecommendedPayment decimal.Decimal
}

// RepaymentPlan is the avalanche ranking for a budget
type RepaymentPlan struct {
	Recommendations []RepaymentRecommendation
	TotalDebt       decimal.Decimal
	Unallocated     decimal.Decimal // Budget left once every debt is covered
}

// PurchaseRecommendation is one facility in the cheapest-credit ranking
type PurchaseRecommendation struct {
	FacilityID       uuid.UUID
	Name             string
	InterestRate     decimal.Decimal
	Headroom         decimal.Decimal
	RecommendedUsage decimal.Decimal
}

// PurchasePlan is the cheapest-credit ranking for a purchase amount
type PurchasePlan struct {
	Recommendations []PurchaseRecommendation
	Feasible        bool // False when the combined headroom cannot cover the amount
	TotalHeadroom   decimal.Decimal
}

// RecommendationService ranks facilities for repayments and purchases.
// It never mutates state.
type RecommendationService struct {
	FacilityRepo domain.FacilityRepository
	Balances     *balance.Calculator
}

// NewRecommendationService creates a new RecommendationService instance
func NewRecommendationService(facilityRepo domain.FacilityRepository, balances *balance.Calculator) *RecommendationService {
	return &RecommendationService{
		FacilityRepo: facilityRepo,
		Balances:     balances,
	}
}

// RepaymentRanking ranks indebted facilities by the avalanche method
// Logic:
//  1. Keep only facilities with debt > 0
//  2. Sort by interest rate, highest first (ties keep discovery order)
//  3. Greedily place the budget: each facility receives min(remaining, debt)
//  4. Facilities reached after the budget runs out are listed with a zero payment
func (s *RecommendationService) RepaymentRanking(ctx context.Context, ownerID uuid.UUID, budget decimal.Decimal) (*RepaymentPlan, error) {
	if budget.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: repayment budget must be positive", domain.ErrInvalidAmount)
	}

	facilities, debts, err := s.facilitiesWithDebt(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	indebted := make([]RepaymentRecommendation, 0, len(facilities))
	totalDebt := decimal.Zero
	for i, f := range facilities {
		if !debts[i].IsPositive() {
			continue
		}
		indebted = append(indebted, RepaymentRecommendation{
			FacilityID:         f.ID,
			Name:               f.Name,
			InterestRate:       f.InterestRate,
			CurrentDebt:        debts[i],
			RecommendedPayment: decimal.Zero,
		})
		totalDebt = totalDebt.Add(debts[i])
	}

	rates := make([]decimal.Decimal, len(indebted))
	for i, r := range indebted {
		rates[i] = r.InterestRate
	}
	order := allocator.RankByRate(rates, true)

	ranked := make([]RepaymentRecommendation, len(order))
	capacities := make([]decimal.Decimal, len(order))
	for pos, idx := range order {
		ranked[pos] = indebted[idx]
		capacities[pos] = indebted[idx].CurrentDebt
	}

	payments, leftover := allocator.FillInOrder(budget, capacities)
	for i := range ranked {
		ranked[i].RecommendedPayment = payments[i]
	}

	return &RepaymentPlan{
		Recommendations: ranked,
		TotalDebt:       totalDebt,
		Unallocated:     leftover,
	}, nil
}

// PurchaseRanking ranks every facility by the cheapest-credit method
// Logic:
//  1. Headroom = max(0, limit - debt) for every facility, zero-debt ones included
//  2. Sort by interest rate, lowest first (ties keep discovery order)
//  3. If total headroom >= amount: greedily place the amount, min(remaining, headroom) each
//  4. Otherwise the request is infeasible and every planned usage stays zero
func (s *RecommendationService) PurchaseRanking(ctx context.Context, ownerID uuid.UUID, amount decimal.Decimal) (*PurchasePlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: purchase amount must be positive", domain.ErrInvalidAmount)
	}

	facilities, debts, err := s.facilitiesWithDebt(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	rates := make([]decimal.Decimal, len(facilities))
	for i, f := range facilities {
		rates[i] = f.InterestRate
	}
	order := allocator.RankByRate(rates, false)

	ranked := make([]PurchaseRecommendation, len(order))
	capacities := make([]decimal.Decimal, len(order))
	totalHeadroom := decimal.Zero
	for pos, idx := range order {
		f := facilities[idx]
		headroom := domain.NonNegative(f.Limit.Sub(debts[idx]))
		ranked[pos] = PurchaseRecommendation{
			FacilityID:       f.ID,
			Name:             f.Name,
			InterestRate:     f.InterestRate,
			Headroom:         headroom,
			RecommendedUsage: decimal.Zero,
		}
		capacities[pos] = headroom
		totalHeadroom = totalHeadroom.Add(headroom)
	}

	plan := &PurchasePlan{
		Recommendations: ranked,
		Feasible:        totalHeadroom.GreaterThanOrEqual(amount),
		TotalHeadroom:   totalHeadroom,
	}
	if !plan.Feasible {
		return plan, nil
	}

	usages, _ := allocator.FillInOrder(amount, capacities)
	for i := range plan.Recommendations {
		plan.Recommendations[i].RecommendedUsage = usages[i]
	}

	return plan, nil
}

// facilitiesWithDebt lists the owner's facilities in discovery order alongside
// their current balances (same index).
func (s *RecommendationService) facilitiesWithDebt(ctx context.Context, ownerID uuid.UUID) ([]*domain.Facility, []decimal.Decimal, error) {
	facilities, err := s.FacilityRepo.List(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list facilities: %w", err)
	}

	balances, err := s.Balances.BalancesFor(ctx, ownerID, facilities)
	if err != nil {
		return nil, nil, err
	}

	debts := make([]decimal.Decimal, len(facilities))
	for i, f := range facilities {
		debts[i] = balances[f.ID]
	}

	return facilities, debts, nil
}
