package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/simaogato/debtflow-backend/internal/domain"
)

// categoryRepository implements domain.CategoryRepository
type categoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) domain.CategoryRepository {
	return &categoryRepository{db: db}
}

// GetByName retrieves a category by its exact name
func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	query := `
		SELECT id, name, kind
		FROM categories
		WHERE name = $1
	`

	var category domain.Category
	var kind string
	err := r.db.conn(ctx).QueryRowContext(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&kind,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %q %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}
	category.Kind = domain.EntryKind(kind)

	return &category, nil
}

// Create creates a new category
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		category.ID,
		category.Name,
		string(category.Kind),
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}
