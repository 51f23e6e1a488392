package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	repo "github.com/oksasatya/foodgram/internal/domain/repository"
	"github.com/oksasatya/foodgram/pkg/helpers"
)

const (
	keyTags        = "catalog:tags"
	keyIngredients = "catalog:ingredients"
)

// CatalogService serves tags and ingredients, caching the full lists in Redis when available.
type CatalogService struct {
	Tags        repo.TagRepository
	Ingredients repo.IngredientRepository
	Users       repo.UserRepository
	Redis       *redis.Client
	TTL         time.Duration
	Logger      *logrus.Logger
}

func NewCatalogService(tags repo.TagRepository, ingredients repo.IngredientRepository, users repo.UserRepository, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CatalogService {
	return &CatalogService{Tags: tags, Ingredients: ingredients, Users: users, Redis: rdb, TTL: ttl, Logger: logger}
}

func cached[T any](ctx context.Context, s *CatalogService, key string, load func() ([]T, error)) ([]T, error) {
	if s.Redis != nil {
		var out []T
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, key, &out); err == nil && ok {
			return out, nil
		} else if err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("catalog cache read failed")
		}
	}
	out, err := load()
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, key, out, s.TTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Warn("catalog cache write failed")
		}
	}
	return out, nil
}

func (s *CatalogService) invalidate(ctx context.Context, key string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, key); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("key", key).Warn("catalog cache invalidate failed")
	}
}

func (s *CatalogService) requireAdmin(ctx context.Context, actorID string) error {
	u, err := actor(ctx, s.Users, actorID)
	if err != nil {
		return err
	}
	if !u.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func (s *CatalogService) ListTags(ctx context.Context) ([]entity.Tag, error) {
	return cached(ctx, s, keyTags, func() ([]entity.Tag, error) { return s.Tags.List(ctx) })
}

func (s *CatalogService) GetTag(ctx context.Context, id string) (*entity.Tag, error) {
	t, err := s.Tags.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *CatalogService) CreateTag(ctx context.Context, actorID string, t *entity.Tag) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	t.Color = strings.ToUpper(t.Color)
	if err := s.Tags.Create(ctx, t); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return invalid("slug", "a tag with this slug already exists")
		}
		return err
	}
	s.invalidate(ctx, keyTags)
	return nil
}

func (s *CatalogService) DeleteTag(ctx context.Context, actorID, id string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.Tags.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.invalidate(ctx, keyTags)
	return nil
}

// ListIngredients filters by case-insensitive name prefix. Only the unfiltered list is cached.
func (s *CatalogService) ListIngredients(ctx context.Context, prefix string) ([]entity.Ingredient, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix != "" {
		return s.Ingredients.List(ctx, prefix)
	}
	return cached(ctx, s, keyIngredients, func() ([]entity.Ingredient, error) { return s.Ingredients.List(ctx, "") })
}

func (s *CatalogService) GetIngredient(ctx context.Context, id string) (*entity.Ingredient, error) {
	in, err := s.Ingredients.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return in, err
}

func (s *CatalogService) CreateIngredient(ctx context.Context, actorID string, in *entity.Ingredient) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := s.Ingredients.Create(ctx, in); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return invalid("name", "this ingredient already exists with this measurement unit")
		}
		return err
	}
	s.invalidate(ctx, keyIngredients)
	return nil
}
