package repository

import (
	"context"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

// RelationKind selects one of the (user, recipe) membership tables.
type RelationKind string

const (
	Favorites RelationKind = "favorites"
	Cart      RelationKind = "cart_items"
)

// RelationRepository manages favorite and cart rows, unique per (user, recipe).
type RelationRepository interface {
	// Add returns false when the row already existed.
	Add(ctx context.Context, kind RelationKind, userID, recipeID string) (bool, error)
	// Remove returns false when there was no row to delete.
	Remove(ctx context.Context, kind RelationKind, userID, recipeID string) (bool, error)
	// Among returns which of recipeIDs userID has a row for.
	Among(ctx context.Context, kind RelationKind, userID string, recipeIDs []string) (map[string]bool, error)
	// CartLines returns every ingredient row of every recipe in the user's cart.
	CartLines(ctx context.Context, userID string) ([]entity.CartLine, error)
}

// FollowRepository manages the follower -> author graph.
type FollowRepository interface {
	// Add returns false when the follow already existed.
	Add(ctx context.Context, followerID, authorID string) (bool, error)
	Remove(ctx context.Context, followerID, authorID string) (bool, error)
	FollowedAmong(ctx context.Context, followerID string, authorIDs []string) (map[string]bool, error)
	ListFollowed(ctx context.Context, followerID string, limit, offset int) ([]entity.User, int, error)
	Followers(ctx context.Context, authorID string) ([]entity.User, error)
}
