package application

import (
	"context"
	"errors"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	repo "github.com/oksasatya/foodgram/internal/domain/repository"
)

type FollowService struct {
	Follows repo.FollowRepository
	Users   repo.UserRepository
	Recipes repo.RecipeRepository
}

// Subscribe makes followerID follow authorID and returns the author's card with up to recipesLimit recipes.
func (s *FollowService) Subscribe(ctx context.Context, followerID, authorID string, recipesLimit int) (*entity.Subscription, error) {
	if followerID == "" {
		return nil, ErrUnauthenticated
	}
	author, err := s.Users.GetByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if author.ID == followerID {
		return nil, ErrSelfFollow
	}
	added, err := s.Follows.Add(ctx, followerID, author.ID)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, ErrAlreadyFollowing
	}

	subs, err := s.cards(ctx, []entity.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

func (s *FollowService) Unsubscribe(ctx context.Context, followerID, authorID string) error {
	if followerID == "" {
		return ErrUnauthenticated
	}
	removed, err := s.Follows.Remove(ctx, followerID, authorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFollowing
		}
		return err
	}
	if !removed {
		if _, err := s.Users.GetByID(ctx, authorID); errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return ErrNotFollowing
	}
	return nil
}

// Subscriptions lists the authors followerID follows, each with a capped recipe preview.
func (s *FollowService) Subscriptions(ctx context.Context, followerID string, limit, offset, recipesLimit int) ([]entity.Subscription, int, error) {
	if followerID == "" {
		return nil, 0, ErrUnauthenticated
	}
	authors, count, err := s.Follows.ListFollowed(ctx, followerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	subs, err := s.cards(ctx, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return subs, count, nil
}

func (s *FollowService) cards(ctx context.Context, authors []entity.User, recipesLimit int) ([]entity.Subscription, error) {
	out := make([]entity.Subscription, 0, len(authors))
	if len(authors) == 0 {
		return out, nil
	}
	ids := make([]string, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.Recipes.CountByAuthors(ctx, ids)
	if err != nil {
		return nil, err
	}
	latest, err := s.Recipes.LatestByAuthors(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}
	for _, a := range authors {
		recipes := latest[a.ID]
		if recipes == nil {
			recipes = []entity.Recipe{}
		}
		out = append(out, entity.Subscription{Author: a, RecipesCount: counts[a.ID], Recipes: recipes})
	}
	return out, nil
}
