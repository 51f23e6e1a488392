package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	recipes  *RecipeService
	relation *RelationService
	follows  *FollowService
	catalog  *CatalogService
	users    *UserService
}

func newFixture() *fixture {
	st := memory.New()
	return &fixture{
		store: st,
		recipes: &RecipeService{
			Recipes:     st.Recipes(),
			Users:       st.Users(),
			Tags:        st.Tags(),
			Ingredients: st.Ingredients(),
			Relations:   st.Relations(),
			Follows:     st.Follows(),
		},
		relation: &RelationService{Recipes: st.Recipes(), Relations: st.Relations(), ListTitle: "Shopping list"},
		follows:  &FollowService{Follows: st.Follows(), Users: st.Users(), Recipes: st.Recipes()},
		catalog:  &CatalogService{Tags: st.Tags(), Ingredients: st.Ingredients(), Users: st.Users()},
		users:    &UserService{Repo: st.Users(), Follows: st.Follows()},
	}
}

func (f *fixture) user(t *testing.T, username string) *entity.User {
	t.Helper()
	u := &entity.User{Email: username + "@example.com", Username: username, Password: "x"}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) admin(t *testing.T) *entity.User {
	t.Helper()
	u := &entity.User{Email: "admin@example.com", Username: "admin", Password: "x", Role: entity.RoleAdmin}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func (f *fixture) tag(t *testing.T, name, slug string) *entity.Tag {
	t.Helper()
	tg := &entity.Tag{Name: name, Color: "#E26C2D", Slug: slug}
	require.NoError(t, f.store.Tags().Create(context.Background(), tg))
	return tg
}

func (f *fixture) ingredient(t *testing.T, name, unit string) *entity.Ingredient {
	t.Helper()
	in := &entity.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.store.Ingredients().Create(context.Background(), in))
	return in
}

func ptr[T any](v T) *T { return &v }

func recipeInput(name string, tags []string, ingredients ...IngredientAmount) RecipeInput {
	return RecipeInput{
		Name:        ptr(name),
		Text:        ptr("Mix and cook."),
		CookingTime: ptr(10),
		Tags:        tags,
		Ingredients: ingredients,
	}
}

// recipe creates a recipe through the service with one ingredient.
func (f *fixture) recipe(t *testing.T, author *entity.User, name string, in *entity.Ingredient, amount int, tags ...string) *entity.RecipeView {
	t.Helper()
	if tags == nil {
		tags = []string{}
	}
	rec, err := f.recipes.Create(context.Background(), author.ID, recipeInput(name, tags, IngredientAmount{ID: in.ID, Amount: amount}))
	require.NoError(t, err)
	return rec
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Details
}
