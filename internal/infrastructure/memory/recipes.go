package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/domain/repository"
)

type RecipeRepository struct{ s *Store }

func (r *RecipeRepository) Create(_ context.Context, rec *entity.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[rec.AuthorID]; !ok {
		return repository.ErrNotFound
	}
	if r.s.nameTaken(rec.AuthorID, rec.Name, "") {
		return &repository.ConstraintError{Constraint: "unique_recipe_author_name"}
	}
	stored, err := r.s.resolve(*rec)
	if err != nil {
		return err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.PubDate = r.s.tick()
	stored.ID, stored.PubDate = rec.ID, rec.PubDate
	r.s.recipes[rec.ID] = stored
	return nil
}

func (r *RecipeRepository) Update(_ context.Context, rec *entity.Recipe) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.recipes[rec.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.s.nameTaken(rec.AuthorID, rec.Name, rec.ID) {
		return &repository.ConstraintError{Constraint: "unique_recipe_author_name"}
	}
	stored, err := r.s.resolve(*rec)
	if err != nil {
		return err
	}
	stored.PubDate = cur.PubDate
	r.s.recipes[rec.ID] = stored
	return nil
}

func (r *RecipeRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.recipes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.recipes, id)
	for _, rows := range r.s.relations {
		for p := range rows {
			if p.b == id {
				delete(rows, p)
			}
		}
	}
	return nil
}

func (r *RecipeRepository) GetByID(_ context.Context, id string) (*entity.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.recipes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clone(rec)
	return &out, nil
}

func (r *RecipeRepository) List(_ context.Context, f repository.RecipeFilter) ([]entity.Recipe, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	slugs := make(map[string]bool, len(f.TagSlugs))
	for _, s := range f.TagSlugs {
		slugs[s] = true
	}
	all := make([]entity.Recipe, 0)
	for _, rec := range r.s.recipes {
		if f.AuthorID != "" && rec.AuthorID != f.AuthorID {
			continue
		}
		if len(slugs) > 0 && !hasAnyTag(rec, slugs) {
			continue
		}
		if f.FavoritedBy != "" {
			if _, ok := r.s.relations[repository.Favorites][pair{f.FavoritedBy, rec.ID}]; !ok {
				continue
			}
		}
		if f.InCartOf != "" {
			if _, ok := r.s.relations[repository.Cart][pair{f.InCartOf, rec.ID}]; !ok {
				continue
			}
		}
		all = append(all, clone(rec))
	}
	sortNewest(all)
	return page(all, f.Limit, f.Offset), len(all), nil
}

func (r *RecipeRepository) NameTaken(_ context.Context, authorID, name, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.nameTaken(authorID, name, excludeID), nil
}

func (r *RecipeRepository) LatestByAuthors(_ context.Context, authorIDs []string, perAuthor int) (map[string][]entity.Recipe, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string][]entity.Recipe, len(authorIDs))
	for _, id := range authorIDs {
		var mine []entity.Recipe
		for _, rec := range r.s.recipes {
			if rec.AuthorID == id {
				rec.Tags, rec.Ingredients = nil, nil
				mine = append(mine, rec)
			}
		}
		sortNewest(mine)
		if perAuthor >= 0 && len(mine) > perAuthor {
			mine = mine[:perAuthor]
		}
		if len(mine) > 0 {
			out[id] = mine
		}
	}
	return out, nil
}

func (r *RecipeRepository) CountByAuthors(_ context.Context, authorIDs []string) (map[string]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	want := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		want[id] = true
	}
	out := make(map[string]int, len(authorIDs))
	for _, rec := range r.s.recipes {
		if want[rec.AuthorID] {
			out[rec.AuthorID]++
		}
	}
	return out, nil
}

func (s *Store) nameTaken(authorID, name, excludeID string) bool {
	for id, rec := range s.recipes {
		if id != excludeID && rec.AuthorID == authorID && rec.Name == name {
			return true
		}
	}
	return false
}

// resolve fills tag and ingredient details the way the join queries would, enforcing the foreign keys.
func (s *Store) resolve(rec entity.Recipe) (entity.Recipe, error) {
	tags := make([]entity.Tag, 0, len(rec.Tags))
	seenTags := map[string]bool{}
	for _, t := range rec.Tags {
		full, ok := s.tags[t.ID]
		if !ok {
			return rec, repository.ErrNotFound
		}
		if seenTags[t.ID] {
			return rec, &repository.ConstraintError{Constraint: "recipe_tags_pkey"}
		}
		seenTags[t.ID] = true
		tags = append(tags, full)
	}
	ingredients := make([]entity.RecipeIngredient, 0, len(rec.Ingredients))
	seen := map[string]bool{}
	for _, ri := range rec.Ingredients {
		in, ok := s.ingredients[ri.IngredientID]
		if !ok {
			return rec, repository.ErrNotFound
		}
		if seen[ri.IngredientID] {
			return rec, &repository.ConstraintError{Constraint: "unique_recipe_ingredient"}
		}
		seen[ri.IngredientID] = true
		ingredients = append(ingredients, entity.RecipeIngredient{
			IngredientID:    in.ID,
			Name:            in.Name,
			MeasurementUnit: in.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	rec.Tags, rec.Ingredients = tags, ingredients
	return rec, nil
}

func hasAnyTag(rec entity.Recipe, slugs map[string]bool) bool {
	for _, t := range rec.Tags {
		if slugs[t.Slug] {
			return true
		}
	}
	return false
}

func sortNewest(recs []entity.Recipe) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].PubDate.Equal(recs[j].PubDate) {
			return recs[i].PubDate.After(recs[j].PubDate)
		}
		return recs[i].ID < recs[j].ID
	})
}

func clone(rec entity.Recipe) entity.Recipe {
	rec.Tags = append([]entity.Tag(nil), rec.Tags...)
	rec.Ingredients = append([]entity.RecipeIngredient(nil), rec.Ingredients...)
	return rec
}

type RelationRepository struct{ s *Store }

func (r *RelationRepository) Add(_ context.Context, kind repository.RelationKind, userID, recipeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows, ok := r.s.relations[kind]
	if !ok {
		return false, repository.ErrNotFound
	}
	if _, ok := r.s.users[userID]; !ok {
		return false, repository.ErrNotFound
	}
	if _, ok := r.s.recipes[recipeID]; !ok {
		return false, repository.ErrNotFound
	}
	p := pair{userID, recipeID}
	if _, ok := rows[p]; ok {
		return false, nil
	}
	rows[p] = r.s.tick()
	return true, nil
}

func (r *RelationRepository) Remove(_ context.Context, kind repository.RelationKind, userID, recipeID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := r.s.relations[kind]
	p := pair{userID, recipeID}
	if _, ok := rows[p]; !ok {
		return false, nil
	}
	delete(rows, p)
	return true, nil
}

func (r *RelationRepository) Among(_ context.Context, kind repository.RelationKind, userID string, recipeIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]bool, len(recipeIDs))
	for _, id := range recipeIDs {
		if _, ok := r.s.relations[kind][pair{userID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *RelationRepository) CartLines(_ context.Context, userID string) ([]entity.CartLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.CartLine, 0)
	for p := range r.s.relations[repository.Cart] {
		if p.a != userID {
			continue
		}
		for _, ri := range r.s.recipes[p.b].Ingredients {
			out = append(out, entity.CartLine{Name: ri.Name, MeasurementUnit: ri.MeasurementUnit, Amount: ri.Amount})
		}
	}
	return out, nil
}

type FollowRepository struct{ s *Store }

func (r *FollowRepository) Add(_ context.Context, followerID, authorID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[followerID]; !ok {
		return false, repository.ErrNotFound
	}
	if _, ok := r.s.users[authorID]; !ok {
		return false, repository.ErrNotFound
	}
	p := pair{followerID, authorID}
	if _, ok := r.s.follows[p]; ok {
		return false, nil
	}
	r.s.follows[p] = r.s.tick()
	return true, nil
}

func (r *FollowRepository) Remove(_ context.Context, followerID, authorID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := pair{followerID, authorID}
	if _, ok := r.s.follows[p]; !ok {
		return false, nil
	}
	delete(r.s.follows, p)
	return true, nil
}

func (r *FollowRepository) FollowedAmong(_ context.Context, followerID string, authorIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[string]bool, len(authorIDs))
	for _, id := range authorIDs {
		if _, ok := r.s.follows[pair{followerID, id}]; ok {
			out[id] = true
		}
	}
	return out, nil
}

func (r *FollowRepository) ListFollowed(_ context.Context, followerID string, limit, offset int) ([]entity.User, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]entity.User, 0)
	for p := range r.s.follows {
		if p.a == followerID {
			all = append(all, r.s.users[p.b])
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return page(all, limit, offset), len(all), nil
}

func (r *FollowRepository) Followers(_ context.Context, authorID string) ([]entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]entity.User, 0)
	for p := range r.s.follows {
		if p.b == authorID {
			out = append(out, r.s.users[p.a])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

var (
	_ repository.UserRepository       = (*UserRepository)(nil)
	_ repository.IngredientRepository = (*IngredientRepository)(nil)
	_ repository.TagRepository        = (*TagRepository)(nil)
	_ repository.RecipeRepository     = (*RecipeRepository)(nil)
	_ repository.RelationRepository   = (*RelationRepository)(nil)
	_ repository.FollowRepository     = (*FollowRepository)(nil)
)
