package application

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	repo "github.com/oksasatya/foodgram/internal/domain/repository"
	"github.com/oksasatya/foodgram/internal/infrastructure/storage"
)

// ImageStore persists an object and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type RecipeService struct {
	Recipes      repo.RecipeRepository
	Users        repo.UserRepository
	Tags         repo.TagRepository
	Ingredients  repo.IngredientRepository
	Relations    repo.RelationRepository
	Follows      repo.FollowRepository
	Images         ImageStore
	ImageMaxSide   int
	ImageMaxPixels int
	Notifier       *Notifier
	Logger         *logrus.Logger
}

// Upper bounds of the numeric recipe fields; the schema enforces the same limits.
const (
	MaxAmount      = 32767
	MaxCookingTime = 2147483647
)

// IngredientAmount references an ingredient by id.
type IngredientAmount struct {
	ID     string
	Amount int
}

// RecipeInput is a create or update request. Nil scalars are left unchanged on partial updates.
// Tags and Ingredients are always required and replace the current sets.
type RecipeInput struct {
	Name        *string
	Text        *string
	CookingTime *int
	Image       *string
	Tags        []string
	Ingredients []IngredientAmount
}

// RecipeQuery selects a page of recipes. Favorited and InCart only apply to an authenticated viewer.
type RecipeQuery struct {
	AuthorID  string
	TagSlugs  []string
	Favorited bool
	InCart    bool
	Limit     int
	Offset    int
}

func (s *RecipeService) Get(ctx context.Context, viewerID, id string) (*entity.RecipeView, error) {
	rec, err := s.Recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	views, err := s.views(ctx, viewerID, []entity.Recipe{*rec})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *RecipeService) List(ctx context.Context, viewerID string, q RecipeQuery) ([]entity.RecipeView, int, error) {
	f := repo.RecipeFilter{TagSlugs: q.TagSlugs, Limit: q.Limit, Offset: q.Offset}
	if q.AuthorID != "" {
		if _, err := uuid.Parse(q.AuthorID); err != nil {
			return []entity.RecipeView{}, 0, nil
		}
		f.AuthorID = q.AuthorID
	}
	if viewerID != "" {
		if q.Favorited {
			f.FavoritedBy = viewerID
		}
		if q.InCart {
			f.InCartOf = viewerID
		}
	}

	recipes, count, err := s.Recipes.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.views(ctx, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, count, nil
}

func (s *RecipeService) Create(ctx context.Context, actorID string, in RecipeInput) (*entity.RecipeView, error) {
	author, err := actor(ctx, s.Users, actorID)
	if err != nil {
		return nil, err
	}

	errs := fieldErrors{}
	if in.Name == nil {
		errs.add("name", "is required")
	}
	if in.Text == nil {
		errs.add("text", "is required")
	}
	if in.CookingTime == nil {
		errs.add("cooking_time", "is required")
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	rec := &entity.Recipe{
		AuthorID:    author.ID,
		Name:        strings.TrimSpace(*in.Name),
		Text:        *in.Text,
		CookingTime: *in.CookingTime,
	}
	if err := s.validate(ctx, rec, "", in); err != nil {
		return nil, err
	}
	if in.Image != nil {
		if rec.Image, err = s.resolveImage(ctx, author.ID, *in.Image); err != nil {
			return nil, err
		}
	}
	applySets(rec, in)

	if err := s.Recipes.Create(ctx, rec); err != nil {
		return nil, writeError(err)
	}

	s.notifyFollowers(ctx, author, rec)
	return s.Get(ctx, actorID, rec.ID)
}

// Update applies in to recipe id. With partial unset, name, text and cooking_time are required.
func (s *RecipeService) Update(ctx context.Context, actorID, id string, in RecipeInput, partial bool) (*entity.RecipeView, error) {
	u, err := actor(ctx, s.Users, actorID)
	if err != nil {
		return nil, err
	}
	rec, err := s.Recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !u.CanModify(rec.AuthorID) {
		return nil, ErrForbidden
	}

	if !partial {
		errs := fieldErrors{}
		if in.Name == nil {
			errs.add("name", "is required")
		}
		if in.Text == nil {
			errs.add("text", "is required")
		}
		if in.CookingTime == nil {
			errs.add("cooking_time", "is required")
		}
		if err := errs.err(); err != nil {
			return nil, err
		}
	}
	if in.Name != nil {
		rec.Name = strings.TrimSpace(*in.Name)
	}
	if in.Text != nil {
		rec.Text = *in.Text
	}
	if in.CookingTime != nil {
		rec.CookingTime = *in.CookingTime
	}
	if err := s.validate(ctx, rec, rec.ID, in); err != nil {
		return nil, err
	}
	if in.Image != nil {
		if rec.Image, err = s.resolveImage(ctx, rec.AuthorID, *in.Image); err != nil {
			return nil, err
		}
	}
	applySets(rec, in)

	if err := s.Recipes.Update(ctx, rec); err != nil {
		return nil, writeError(err)
	}
	return s.Get(ctx, actorID, rec.ID)
}

func (s *RecipeService) Delete(ctx context.Context, actorID, id string) error {
	u, err := actor(ctx, s.Users, actorID)
	if err != nil {
		return err
	}
	rec, err := s.Recipes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !u.CanModify(rec.AuthorID) {
		return ErrForbidden
	}
	if err := s.Recipes.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// validate checks rec and the tag and ingredient sets of in before anything is written.
func (s *RecipeService) validate(ctx context.Context, rec *entity.Recipe, excludeID string, in RecipeInput) error {
	errs := fieldErrors{}

	if rec.Name == "" {
		errs.add("name", "is required")
	}
	if strings.TrimSpace(rec.Text) == "" {
		errs.add("text", "must not be blank")
	}
	if rec.CookingTime < 1 {
		errs.add("cooking_time", "must be at least 1")
	} else if rec.CookingTime > MaxCookingTime {
		errs.add("cooking_time", fmt.Sprintf("must be at most %d", MaxCookingTime))
	}

	if in.Ingredients == nil {
		errs.add("ingredients", "is required")
	} else if len(in.Ingredients) == 0 {
		errs.add("ingredients", "at least one ingredient is required")
	}
	ingredientIDs := make([]string, 0, len(in.Ingredients))
	seen := make(map[string]bool, len(in.Ingredients))
	for i, ia := range in.Ingredients {
		if ia.Amount < 1 {
			errs.add(fmt.Sprintf("ingredients[%d].amount", i), "must be at least 1")
		} else if ia.Amount > MaxAmount {
			errs.add(fmt.Sprintf("ingredients[%d].amount", i), fmt.Sprintf("must be at most %d", MaxAmount))
		}
		if seen[ia.ID] {
			errs.add("ingredients", "ingredients must not repeat")
			continue
		}
		seen[ia.ID] = true
		ingredientIDs = append(ingredientIDs, ia.ID)
	}

	if in.Tags == nil {
		errs.add("tags", "is required")
	}
	tagIDs := make([]string, 0, len(in.Tags))
	seenTags := make(map[string]bool, len(in.Tags))
	for _, id := range in.Tags {
		if seenTags[id] {
			errs.add("tags", "tags must not repeat")
			continue
		}
		seenTags[id] = true
		tagIDs = append(tagIDs, id)
	}

	if missing, err := missingIDs(ctx, s.Ingredients.ExistingIDs, ingredientIDs); err != nil {
		return err
	} else if missing != "" {
		errs.add("ingredients", "ingredient "+missing+" does not exist")
	}
	if missing, err := missingIDs(ctx, s.Tags.ExistingIDs, tagIDs); err != nil {
		return err
	} else if missing != "" {
		errs.add("tags", "tag "+missing+" does not exist")
	}

	if rec.Name != "" {
		taken, err := s.Recipes.NameTaken(ctx, rec.AuthorID, rec.Name, excludeID)
		if err != nil {
			return err
		}
		if taken {
			errs.add("name", "you already have a recipe with this name")
		}
	}

	return errs.err()
}

// missingIDs returns the first of ids that existing does not report, or "".
func missingIDs(ctx context.Context, existing func(context.Context, []string) ([]string, error), ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	found, err := existing(ctx, ids)
	if err != nil {
		return "", err
	}
	ok := make(map[string]bool, len(found))
	for _, id := range found {
		ok[strings.ToLower(id)] = true
	}
	for _, id := range ids {
		if !ok[strings.ToLower(id)] {
			return id, nil
		}
	}
	return "", nil
}

func applySets(rec *entity.Recipe, in RecipeInput) {
	rec.Tags = make([]entity.Tag, 0, len(in.Tags))
	for _, id := range in.Tags {
		rec.Tags = append(rec.Tags, entity.Tag{ID: id})
	}
	rec.Ingredients = make([]entity.RecipeIngredient, 0, len(in.Ingredients))
	for _, ia := range in.Ingredients {
		rec.Ingredients = append(rec.Ingredients, entity.RecipeIngredient{IngredientID: ia.ID, Amount: ia.Amount})
	}
}

// writeError maps constraint failures that slipped past validation onto field errors.
func writeError(err error) error {
	var ce *repo.ConstraintError
	if errors.As(err, &ce) {
		switch ce.Constraint {
		case "unique_recipe_author_name":
			return invalid("name", "you already have a recipe with this name")
		case "unique_recipe_ingredient":
			return invalid("ingredients", "ingredients must not repeat")
		default:
			return invalid("tags", "tags must not repeat")
		}
	}
	if errors.Is(err, repo.ErrNotFound) {
		return invalid("ingredients", "references an ingredient or tag that no longer exists")
	}
	return err
}

// resolveImage stores inline data URIs and returns the URL to persist. Plain values are kept as given.
func (s *RecipeService) resolveImage(ctx context.Context, authorID, value string) (string, error) {
	if !storage.IsDataURI(value) {
		return strings.TrimSpace(value), nil
	}
	if s.Images == nil {
		return "", ErrImageStorageUnavailable
	}
	img, err := storage.DecodeDataURI(value)
	if err != nil {
		return "", invalid("image", "must be a base64 encoded jpeg, png, gif or webp image")
	}
	img, err = storage.Fit(img, s.ImageMaxSide, s.ImageMaxPixels)
	if errors.Is(err, storage.ErrImageTooLarge) {
		return "", invalid("image", fmt.Sprintf("must not exceed %d pixels", s.ImageMaxPixels))
	}
	if err != nil {
		return "", invalid("image", "cannot be decoded")
	}

	key := path.Join("recipes", authorID, uuid.NewString()+img.Ext)
	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	url, err := s.Images.Put(c, key, img.ContentType, img.Data)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("key", key).Error("image upload failed")
		}
		return "", fmt.Errorf("%w: %v", ErrImageStorageUnavailable, err)
	}
	return url, nil
}

func (s *RecipeService) notifyFollowers(ctx context.Context, author *entity.User, rec *entity.Recipe) {
	if !s.Notifier.enabled() || s.Follows == nil {
		return
	}
	followers, err := s.Follows.Followers(ctx, author.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("author_id", author.ID).Warn("load followers failed")
		}
		return
	}
	s.Notifier.NewRecipe(ctx, author, rec, followers)
}

// views resolves authors and the viewer-relative flags for recipes.
func (s *RecipeService) views(ctx context.Context, viewerID string, recipes []entity.Recipe) ([]entity.RecipeView, error) {
	out := make([]entity.RecipeView, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	recipeIDs := make([]string, 0, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	seenAuthor := map[string]bool{}
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		if !seenAuthor[r.AuthorID] {
			seenAuthor[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authors, err := s.Users.ListByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]entity.User, len(authors))
	for _, a := range authors {
		byID[a.ID] = a
	}

	followed, favorited, inCart := map[string]bool{}, map[string]bool{}, map[string]bool{}
	if viewerID != "" {
		if followed, err = s.Follows.FollowedAmong(ctx, viewerID, authorIDs); err != nil {
			return nil, err
		}
		if favorited, err = s.Relations.Among(ctx, repo.Favorites, viewerID, recipeIDs); err != nil {
			return nil, err
		}
		if inCart, err = s.Relations.Among(ctx, repo.Cart, viewerID, recipeIDs); err != nil {
			return nil, err
		}
	}

	for _, r := range recipes {
		out = append(out, entity.RecipeView{
			Recipe:           r,
			Author:           entity.UserView{User: byID[r.AuthorID], IsSubscribed: followed[r.AuthorID]},
			IsFavorited:      favorited[r.ID],
			IsInShoppingCart: inCart[r.ID],
		})
	}
	return out, nil
}
