package repository

import (
	"context"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

// RecipeFilter narrows a recipe listing. Empty fields do not filter.
type RecipeFilter struct {
	AuthorID string
	// TagSlugs matches recipes having any of the slugs.
	TagSlugs    []string
	FavoritedBy string
	InCartOf    string
	Limit       int
	Offset      int
}

// RecipeRepository persists recipes together with their tag and ingredient rows.
// Create and Update write all rows in one transaction; Update replaces both sets wholesale.
type RecipeRepository interface {
	Create(ctx context.Context, r *entity.Recipe) error
	Update(ctx context.Context, r *entity.Recipe) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.Recipe, error)
	List(ctx context.Context, f RecipeFilter) ([]entity.Recipe, int, error)
	// NameTaken reports whether authorID already has a recipe called name, ignoring excludeID.
	NameTaken(ctx context.Context, authorID, name, excludeID string) (bool, error)
	// LatestByAuthors returns up to perAuthor most recent recipes per author, without tags or ingredients.
	// A negative perAuthor means no cap.
	LatestByAuthors(ctx context.Context, authorIDs []string, perAuthor int) (map[string][]entity.Recipe, error)
	CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error)
}
