package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// SummaryQuery filters the ledger summaries
type SummaryQuery struct {
	OwnerID              uuid.UUID
	From                 time.Time
	To                   time.Time
	CategoryID           *uuid.UUID // Optional: only entries of this category
	ExcludeCreditCard    bool       // Drop entries paid with a credit facility
	ExcludeCardRepayment bool       // Drop facility repayment audit entries
}

// MonthSummary holds the income and expense totals of one calendar month
type MonthSummary struct {
	Year    int
	Month   time.Month
	Income  decimal.Decimal
	Expense decimal.Decimal
	Balance decimal.Decimal
}

// CategorySpending holds the expense total of one category
type CategorySpending struct {
	Name       string
	Total      decimal.Decimal
	Percentage decimal.Decimal
}

// CategoryBreakdown is the spending-by-category payload
type CategoryBreakdown struct {
	Categories []CategorySpending
	TotalSpent decimal.Decimal
}

// MonthlySummary totals income and expense per month within the query range.
// Months without entries are omitted.
func (s *AnalyticsService) MonthlySummary(ctx context.Context, q SummaryQuery) ([]MonthSummary, error) {
	entries, err := s.filteredEntries(ctx, q)
	if err != nil {
		return nil, err
	}

	type monthKey struct {
		year  int
		month time.Month
	}
	byMonth := make(map[monthKey]*MonthSummary)

	for _, e := range entries {
		key := monthKey{year: e.Date.Year(), month: e.Date.Month()}
		summary, ok := byMonth[key]
		if !ok {
			summary = &MonthSummary{Year: key.year, Month: key.month}
			byMonth[key] = summary
		}
		switch e.Kind {
		case domain.EntryKindIncome:
			summary.Income = summary.Income.Add(e.Amount)
		case domain.EntryKindExpense:
			summary.Expense = summary.Expense.Add(e.Amount)
		}
	}

	result := make([]MonthSummary, 0, len(byMonth))
	for _, summary := range byMonth {
		summary.Balance = summary.Income.Sub(summary.Expense)
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year < result[j].Year
		}
		return result[i].Month < result[j].Month
	})

	return result, nil
}

// SpendingByCategory totals categorised expenses per category name, largest first
func (s *AnalyticsService) SpendingByCategory(ctx context.Context, q SummaryQuery) (*CategoryBreakdown, error) {
	entries, err := s.filteredEntries(ctx, q)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal)
	order := make([]string, 0)
	spent := decimal.Zero
	for _, e := range entries {
		if e.Kind != domain.EntryKindExpense || e.CategoryName == "" {
			continue
		}
		if _, seen := totals[e.CategoryName]; !seen {
			order = append(order, e.CategoryName)
		}
		totals[e.CategoryName] = totals[e.CategoryName].Add(e.Amount)
		spent = spent.Add(e.Amount)
	}

	categories := make([]CategorySpending, 0, len(order))
	for _, name := range order {
		percentage := decimal.Zero
		if spent.IsPositive() {
			percentage = totals[name].Div(spent).Mul(hundred).RoundBank(domain.MoneyScale)
		}
		categories = append(categories, CategorySpending{
			Name:       name,
			Total:      totals[name],
			Percentage: percentage,
		})
	}
	sort.SliceStable(categories, func(i, j int) bool {
		return categories[i].Total.GreaterThan(categories[j].Total)
	})

	return &CategoryBreakdown{
		Categories: categories,
		TotalSpent: spent,
	}, nil
}

// filteredEntries loads the entries in range and applies the query filters
func (s *AnalyticsService) filteredEntries(ctx context.Context, q SummaryQuery) ([]*domain.LedgerEntry, error) {
	if q.To.Before(q.From) {
		return nil, fmt.Errorf("%w: summary range ends before it starts", domain.ErrInvalidInput)
	}

	entries, err := s.LedgerRepo.ListBetween(ctx, q.OwnerID, q.From, q.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	filtered := make([]*domain.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if q.CategoryID != nil && (e.CategoryID == nil || *e.CategoryID != *q.CategoryID) {
			continue
		}
		if q.ExcludeCreditCard && domain.IsCreditPaymentMethod(e.PaymentMethod) {
			continue
		}
		if q.ExcludeCardRepayment && e.IsCardRepayment() {
			continue
		}
		filtered = append(filtered, e)
	}

	return filtered, nil
}
