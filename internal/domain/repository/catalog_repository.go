package repository

import (
	"context"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

// IngredientRepository reads and seeds the ingredient catalog.
type IngredientRepository interface {
	// List returns ingredients whose name starts with prefix, case-insensitively, ordered by name.
	List(ctx context.Context, prefix string) ([]entity.Ingredient, error)
	GetByID(ctx context.Context, id string) (*entity.Ingredient, error)
	Create(ctx context.Context, in *entity.Ingredient) error
	// ExistingIDs returns the subset of ids that exist.
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}

// TagRepository manages tags.
type TagRepository interface {
	List(ctx context.Context) ([]entity.Tag, error)
	GetByID(ctx context.Context, id string) (*entity.Tag, error)
	Create(ctx context.Context, t *entity.Tag) error
	Delete(ctx context.Context, id string) error
	ExistingIDs(ctx context.Context, ids []string) ([]string, error)
}
