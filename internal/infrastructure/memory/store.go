// Package memory keeps every repository in process memory. It backs the service and handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/domain/repository"
)

type pair struct{ a, b string }

// Store holds all tables. The zero value is not usable; call New.
type Store struct {
	mu          sync.RWMutex
	users       map[string]entity.User
	ingredients map[string]entity.Ingredient
	tags        map[string]entity.Tag
	recipes     map[string]entity.Recipe
	relations   map[repository.RelationKind]map[pair]time.Time
	follows     map[pair]time.Time
	clock       time.Time
}

func New() *Store {
	return &Store{
		users:       map[string]entity.User{},
		ingredients: map[string]entity.Ingredient{},
		tags:        map[string]entity.Tag{},
		recipes:     map[string]entity.Recipe{},
		relations: map[repository.RelationKind]map[pair]time.Time{
			repository.Favorites: {},
			repository.Cart:      {},
		},
		follows: map[pair]time.Time{},
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so ordering by time is deterministic.
func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s} }
func (s *Store) Ingredients() *IngredientRepository { return &IngredientRepository{s} }
func (s *Store) Tags() *TagRepository               { return &TagRepository{s} }
func (s *Store) Recipes() *RecipeRepository         { return &RecipeRepository{s} }
func (s *Store) Relations() *RelationRepository     { return &RelationRepository{s} }
func (s *Store) Follows() *FollowRepository         { return &FollowRepository{s} }

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if strings.EqualFold(other.Email, u.Email) {
			return &repository.ConstraintError{Constraint: "users_email_key"}
		}
		if other.Username == u.Username {
			return &repository.ConstraintError{Constraint: "users_username_key"}
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = entity.RoleUser
	}
	u.CreatedAt = r.s.tick()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) ListByIDs(_ context.Context, ids []string) ([]entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.s.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Email, u.Email) {
			return &repository.ConstraintError{Constraint: "users_email_key"}
		}
		if other.Username == u.Username {
			return &repository.ConstraintError{Constraint: "users_username_key"}
		}
	}
	u.UpdatedAt = r.s.tick()
	r.s.users[u.ID] = *u
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	r.s.users[id] = u
	return nil
}

func (r *UserRepository) List(_ context.Context, limit, offset int) ([]entity.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return page(all, limit, offset), len(all), nil
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if limit < 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

type IngredientRepository struct{ s *Store }

func (r *IngredientRepository) List(_ context.Context, prefix string) ([]entity.Ingredient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	prefix = strings.ToLower(prefix)
	out := make([]entity.Ingredient, 0)
	for _, in := range r.s.ingredients {
		if strings.HasPrefix(strings.ToLower(in.Name), prefix) {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].MeasurementUnit < out[j].MeasurementUnit
	})
	return out, nil
}

func (r *IngredientRepository) GetByID(_ context.Context, id string) (*entity.Ingredient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	in, ok := r.s.ingredients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &in, nil
}

func (r *IngredientRepository) Create(_ context.Context, in *entity.Ingredient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.ingredients {
		if other.Name == in.Name && other.MeasurementUnit == in.MeasurementUnit {
			return &repository.ConstraintError{Constraint: "unique_ingredient"}
		}
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	r.s.ingredients[in.ID] = *in
	return nil
}

func (r *IngredientRepository) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.s.ingredients[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

type TagRepository struct{ s *Store }

func (r *TagRepository) List(_ context.Context) ([]entity.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.Tag, 0, len(r.s.tags))
	for _, t := range r.s.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *TagRepository) GetByID(_ context.Context, id string) (*entity.Tag, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tags[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (r *TagRepository) Create(_ context.Context, t *entity.Tag) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.tags {
		if other.Slug == t.Slug {
			return &repository.ConstraintError{Constraint: "unique_tag_slug"}
		}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.s.tags[t.ID] = *t
	return nil
}

func (r *TagRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tags[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tags, id)
	for rid, rec := range r.s.recipes {
		kept := rec.Tags[:0:0]
		for _, t := range rec.Tags {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		rec.Tags = kept
		r.s.recipes[rid] = rec
	}
	return nil
}

func (r *TagRepository) ExistingIDs(_ context.Context, ids []string) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.s.tags[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}
