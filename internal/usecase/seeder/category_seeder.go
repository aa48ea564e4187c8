package seeder

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/simaogato/debtflow-backend/internal/domain"
)

// Fixed UUIDs for the well-known categories
var (
	CAT_DEBT_PAYMENT = uuid.MustParse("00000000-0000-0000-0000-000000000101")
	CAT_SALARY       = uuid.MustParse("00000000-0000-0000-0000-000000000102")
	CAT_GROCERIES    = uuid.MustParse("00000000-0000-0000-0000-000000000103")
	CAT_HOUSING      = uuid.MustParse("00000000-0000-0000-0000-000000000104")
	CAT_OTHER        = uuid.MustParse("00000000-0000-0000-0000-000000000105")
)

// DefaultCategories lists the categories every installation starts with.
// The debt payment category is the one repayment audit entries link to.
func DefaultCategories() []domain.Category {
	return []domain.Category{
		{ID: CAT_DEBT_PAYMENT, Name: domain.DebtPaymentCategoryName, Kind: domain.EntryKindExpense},
		{ID: CAT_SALARY, Name: "Salary", Kind: domain.EntryKindIncome},
		{ID: CAT_GROCERIES, Name: "Groceries", Kind: domain.EntryKindExpense},
		{ID: CAT_HOUSING, Name: "Housing", Kind: domain.EntryKindExpense},
		{ID: CAT_OTHER, Name: "Other", Kind: domain.EntryKindExpense},
	}
}

// CategorySeeder handles seeding of the well-known categories
type CategorySeeder struct {
	repo domain.CategoryRepository
}

// NewCategorySeeder creates a new CategorySeeder instance
func NewCategorySeeder(repo domain.CategoryRepository) *CategorySeeder {
	return &CategorySeeder{
		repo: repo,
	}
}

// Seed ensures all default categories exist, matched by name.
// Existing categories are left untouched.
func (s *CategorySeeder) Seed(ctx context.Context) error {
	for _, category := range DefaultCategories() {
		_, err := s.repo.GetByName(ctx, category.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("failed to look up category %q: %w", category.Name, err)
		}

		c := category
		if err := s.repo.Create(ctx, &c); err != nil {
			return fmt.Errorf("failed to create category %q: %w", category.Name, err)
		}
	}

	return nil
}
