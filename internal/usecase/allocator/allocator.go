package allocator

import (
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// FillInOrder distributes amount across capacities in the given order.
// Logic:
//  1. Each slot takes min(remaining, capacity)
//  2. Negative capacities count as zero
//  3. Whatever no slot can absorb is returned as leftover
//
// Safety: sum(allocations) + leftover == amount
func FillInOrder(amount decimal.Decimal, capacities []decimal.Decimal) ([]decimal.Decimal, decimal.Decimal) {
	allocations := make([]decimal.Decimal, len(capacities))
	remaining := domain.NonNegative(amount)

	for i, capacity := range capacities {
		allocations[i] = decimal.Zero
		if !remaining.IsPositive() {
			continue
		}
		take := decimal.Min(remaining, domain.NonNegative(capacity))
		allocations[i] = take
		remaining = remaining.Sub(take)
	}

	return allocations, remaining
}

// WaterfallStep records how much one obligation was reduced by
type WaterfallStep struct {
	ObligationID uuid.UUID
	Before       decimal.Decimal
	Reduction    decimal.Decimal
	After        decimal.Decimal
}

// WaterfallPlan is the outcome of applying a repayment across obligations
type WaterfallPlan struct {
	Steps     []WaterfallStep // Only obligations that were actually reduced
	Applied   decimal.Decimal // Clamped amount actually taken off the obligations
	Discarded decimal.Decimal // Requested amount above the total outstanding
	Leftover  decimal.Decimal // Clamped amount the walk could not place (always zero)
}

// CalculateWaterfall calculates how a repayment reduces the given obligations
// Logic:
//  1. Sort obligations by StartDate, then CreatedAt (oldest first, stable for ties)
//  2. Clamp the amount to the total outstanding principal (excess is discarded)
//  3. Walk the list reducing each principal by min(remaining, principal)
//
// The input slice is not mutated.
func CalculateWaterfall(amount decimal.Decimal, obligations []domain.Obligation) (*WaterfallPlan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("repayment amount must be positive")
	}

	sorted := make([]domain.Obligation, len(obligations))
	copy(sorted, obligations)
	SortOldestFirst(sorted)

	total := decimal.Zero
	capacities := make([]decimal.Decimal, len(sorted))
	for i, o := range sorted {
		capacities[i] = domain.NonNegative(o.Principal)
		total = total.Add(capacities[i])
	}

	clamped := decimal.Min(amount, total)
	allocations, leftover := FillInOrder(clamped, capacities)

	plan := &WaterfallPlan{
		Steps:     make([]WaterfallStep, 0),
		Applied:   clamped.Sub(leftover),
		Discarded: amount.Sub(clamped),
		Leftover:  leftover,
	}
	for i, reduction := range allocations {
		if !reduction.IsPositive() {
			continue
		}
		plan.Steps = append(plan.Steps, WaterfallStep{
			ObligationID: sorted[i].ID,
			Before:       capacities[i],
			Reduction:    reduction,
			After:        capacities[i].Sub(reduction),
		})
	}

	// Safety check: reductions plus leftover must equal the clamped amount
	reduced := decimal.Zero
	for _, step := range plan.Steps {
		reduced = reduced.Add(step.Reduction)
	}
	if !reduced.Add(leftover).Equal(clamped) {
		return nil, errors.New("waterfall reductions do not add up to the applied amount")
	}

	return plan, nil
}

// SortOldestFirst orders obligations earliest-incurred first: by start date,
// then creation time, keeping the incoming order for full ties.
func SortOldestFirst(obligations []domain.Obligation) {
	sort.SliceStable(obligations, func(i, j int) bool {
		a, b := obligations[i], obligations[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

type rankedRate struct {
	Index int
	Rate  decimal.Decimal
}

// RankByRate returns the indices of rates sorted by rate, ascending or
// descending. Equal rates keep their discovery order.
func RankByRate(rates []decimal.Decimal, descending bool) []int {
	ranked := make([]rankedRate, len(rates))
	for i, r := range rates {
		ranked[i] = rankedRate{Index: i, Rate: r}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if descending {
			return ranked[i].Rate.GreaterThan(ranked[j].Rate)
		}
		return ranked[i].Rate.LessThan(ranked[j].Rate)
	})

	order := make([]int, len(ranked))
	for i, r := range ranked {
		order[i] = r.Index
	}
	return order
}
