package memory

import (
	"context"
	"fmt"

	"github.com/simaogato/debtflow-backend/internal/domain"
)

type categoryRepository struct {
	s *Store
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.categoryByName[name]
	if !ok {
		return nil, fmt.Errorf("category %q %w", name, domain.ErrNotFound)
	}
	category := r.s.categories[id]
	return &category, nil
}

// Create ignores a category whose name is already taken
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	defer r.s.lockWrite(ctx)()

	if _, taken := r.s.categoryByName[category.Name]; taken {
		return nil
	}
	r.s.categories[category.ID] = *category
	r.s.categoryByName[category.Name] = category.ID
	return nil
}
