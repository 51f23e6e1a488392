package application

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "github.com/oksasatya/foodgram/internal/domain/repository"
)

func TestCreateRecipe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	breakfast := f.tag(t, "Breakfast", "breakfast")
	flour := f.ingredient(t, "Flour", "g")

	rec, err := f.recipes.Create(ctx, author.ID, recipeInput("  Pancakes ", []string{breakfast.ID}, IngredientAmount{ID: flour.ID, Amount: 200}))
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", rec.Name)
	assert.Equal(t, author.ID, rec.Author.ID)
	require.Len(t, rec.Tags, 1)
	assert.Equal(t, "breakfast", rec.Tags[0].Slug)
	require.Len(t, rec.Ingredients, 1)
	assert.Equal(t, "Flour", rec.Ingredients[0].Name)
	assert.Equal(t, 200, rec.Ingredients[0].Amount)
	assert.False(t, rec.IsFavorited)
	assert.False(t, rec.IsInShoppingCart)
}

func TestCreateRecipeRequiresAuthentication(t *testing.T) {
	f := newFixture()
	_, err := f.recipes.Create(context.Background(), "", RecipeInput{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	flour := f.ingredient(t, "Flour", "g")
	f.recipe(t, author, "Bread", flour, 500)

	cases := []struct {
		name  string
		in    RecipeInput
		field string
	}{
		{"missing scalars", RecipeInput{Tags: []string{}, Ingredients: []IngredientAmount{{ID: flour.ID, Amount: 1}}}, "name"},
		{"zero cooking time", func() RecipeInput {
			in := recipeInput("Soup", []string{}, IngredientAmount{ID: flour.ID, Amount: 1})
			in.CookingTime = ptr(0)
			return in
		}(), "cooking_time"},
		{"cooking time above bound", func() RecipeInput {
			in := recipeInput("Soup", []string{}, IngredientAmount{ID: flour.ID, Amount: 1})
			in.CookingTime = ptr(MaxCookingTime + 1)
			return in
		}(), "cooking_time"},
		{"blank text", func() RecipeInput {
			in := recipeInput("Soup", []string{}, IngredientAmount{ID: flour.ID, Amount: 1})
			in.Text = ptr("  ")
			return in
		}(), "text"},
		{"no ingredients", recipeInput("Soup", []string{}), "ingredients"},
		{"zero amount", recipeInput("Soup", []string{}, IngredientAmount{ID: flour.ID, Amount: 0}), "ingredients[0].amount"},
		{"amount above bound", recipeInput("Soup", []string{}, IngredientAmount{ID: flour.ID, Amount: MaxAmount + 1}), "ingredients[0].amount"},
		{"amount wrapping int32", recipeInput("Soup", []string{}, IngredientAmount{ID: flour.ID, Amount: 4294967297}), "ingredients[0].amount"},
		{"repeated ingredient", recipeInput("Soup", []string{},
			IngredientAmount{ID: flour.ID, Amount: 1}, IngredientAmount{ID: flour.ID, Amount: 2}), "ingredients"},
		{"unknown ingredient", recipeInput("Soup", []string{}, IngredientAmount{ID: "00000000-0000-0000-0000-000000000001", Amount: 1}), "ingredients"},
		{"unknown tag", recipeInput("Soup", []string{"00000000-0000-0000-0000-000000000002"}, IngredientAmount{ID: flour.ID, Amount: 1}), "tags"},
		{"missing tags", recipeInput("Soup", nil, IngredientAmount{ID: flour.ID, Amount: 1}), "tags"},
		{"name taken", recipeInput("Bread", []string{}, IngredientAmount{ID: flour.ID, Amount: 1}), "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.recipes.Create(ctx, author.ID, tc.in)
			assert.Contains(t, details(t, err), tc.field)
		})
	}

	all, count, err := f.recipes.List(ctx, "", RecipeQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, all, 1)
}

func TestSameNameDifferentAuthors(t *testing.T) {
	f := newFixture()
	flour := f.ingredient(t, "Flour", "g")
	f.recipe(t, f.user(t, "alice"), "Bread", flour, 500)
	f.recipe(t, f.user(t, "bob"), "Bread", flour, 400)
}

func TestUpdateRecipe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	other := f.user(t, "other")
	flour := f.ingredient(t, "Flour", "g")
	salt := f.ingredient(t, "Salt", "g")
	lunch := f.tag(t, "Lunch", "lunch")
	rec := f.recipe(t, author, "Bread", flour, 500)

	t.Run("non author is forbidden", func(t *testing.T) {
		_, err := f.recipes.Update(ctx, other.ID, rec.ID, recipeInput("Mine", []string{}, IngredientAmount{ID: flour.ID, Amount: 1}), false)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("full update requires scalars", func(t *testing.T) {
		_, err := f.recipes.Update(ctx, author.ID, rec.ID, RecipeInput{Tags: []string{}, Ingredients: []IngredientAmount{{ID: flour.ID, Amount: 1}}}, false)
		d := details(t, err)
		assert.Contains(t, d, "name")
		assert.Contains(t, d, "text")
		assert.Contains(t, d, "cooking_time")
	})

	t.Run("partial update replaces sets", func(t *testing.T) {
		got, err := f.recipes.Update(ctx, author.ID, rec.ID, RecipeInput{
			CookingTime: ptr(45),
			Tags:        []string{lunch.ID},
			Ingredients: []IngredientAmount{{ID: salt.ID, Amount: 5}},
		}, true)
		require.NoError(t, err)
		assert.Equal(t, "Bread", got.Name)
		assert.Equal(t, 45, got.CookingTime)
		require.Len(t, got.Ingredients, 1)
		assert.Equal(t, "Salt", got.Ingredients[0].Name)
		require.Len(t, got.Tags, 1)
		assert.Equal(t, lunch.ID, got.Tags[0].ID)
	})

	t.Run("keeping own name is allowed", func(t *testing.T) {
		_, err := f.recipes.Update(ctx, author.ID, rec.ID, recipeInput("Bread", []string{}, IngredientAmount{ID: flour.ID, Amount: 1}), false)
		assert.NoError(t, err)
	})

	t.Run("missing recipe", func(t *testing.T) {
		_, err := f.recipes.Update(ctx, author.ID, "00000000-0000-0000-0000-000000000009", RecipeInput{}, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAdminMayModifyAnyRecipe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	admin := f.admin(t)
	rec := f.recipe(t, author, "Bread", f.ingredient(t, "Flour", "g"), 500)

	require.NoError(t, f.recipes.Delete(ctx, admin.ID, rec.ID))
	_, err := f.recipes.Get(ctx, "", rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	other := f.user(t, "other")
	rec := f.recipe(t, author, "Bread", f.ingredient(t, "Flour", "g"), 500)

	assert.ErrorIs(t, f.recipes.Delete(ctx, other.ID, rec.ID), ErrForbidden)
	assert.ErrorIs(t, f.recipes.Delete(ctx, "", rec.ID), ErrUnauthenticated)
	require.NoError(t, f.recipes.Delete(ctx, author.ID, rec.ID))
	assert.ErrorIs(t, f.recipes.Delete(ctx, author.ID, rec.ID), ErrNotFound)
}

func TestListRecipes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	flour := f.ingredient(t, "Flour", "g")
	breakfast := f.tag(t, "Breakfast", "breakfast")
	dinner := f.tag(t, "Dinner", "dinner")

	first := f.recipe(t, alice, "Porridge", flour, 100, breakfast.ID)
	second := f.recipe(t, bob, "Stew", flour, 50, dinner.ID)
	third := f.recipe(t, alice, "Pie", flour, 300)

	t.Run("newest first", func(t *testing.T) {
		got, count, err := f.recipes.List(ctx, "", RecipeQuery{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		require.Len(t, got, 3)
		assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("paging keeps total count", func(t *testing.T) {
		got, count, err := f.recipes.List(ctx, "", RecipeQuery{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)
	})

	t.Run("author filter", func(t *testing.T) {
		_, count, err := f.recipes.List(ctx, "", RecipeQuery{AuthorID: alice.ID, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("malformed author gives empty page", func(t *testing.T) {
		got, count, err := f.recipes.List(ctx, "", RecipeQuery{AuthorID: "nope", Limit: 10})
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, got)
	})

	t.Run("tags match any slug", func(t *testing.T) {
		_, count, err := f.recipes.List(ctx, "", RecipeQuery{TagSlugs: []string{"breakfast", "dinner"}, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("favorited filter applies to the viewer", func(t *testing.T) {
		_, err := f.relation.Add(ctx, repo.Favorites, bob.ID, first.ID)
		require.NoError(t, err)

		got, count, err := f.recipes.List(ctx, bob.ID, RecipeQuery{Favorited: true, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.True(t, got[0].IsFavorited)

		_, count, err = f.recipes.List(ctx, "", RecipeQuery{Favorited: true, Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestGetRecipeFlags(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	rec := f.recipe(t, alice, "Pie", f.ingredient(t, "Flour", "g"), 300)

	_, err := f.follows.Subscribe(ctx, bob.ID, alice.ID, 3)
	require.NoError(t, err)
	_, err = f.relation.Add(ctx, repo.Cart, bob.ID, rec.ID)
	require.NoError(t, err)

	got, err := f.recipes.Get(ctx, bob.ID, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.Author.IsSubscribed)
	assert.True(t, got.IsInShoppingCart)
	assert.False(t, got.IsFavorited)

	anon, err := f.recipes.Get(ctx, "", rec.ID)
	require.NoError(t, err)
	assert.False(t, anon.Author.IsSubscribed)
	assert.False(t, anon.IsInShoppingCart)
}

const pixel = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg=="

// hugePNG is a data URI holding only the signature and IHDR of a w x h PNG.
func hugePNG(w, h uint32) string {
	ihdr := []byte("IHDR\x00\x00\x00\x00\x00\x00\x00\x00\x08\x06\x00\x00\x00")
	binary.BigEndian.PutUint32(ihdr[4:], w)
	binary.BigEndian.PutUint32(ihdr[8:], h)

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)-4))
	buf.Write(ihdr)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(ihdr))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

type memImages struct {
	keys []string
	err  error
}

func (m *memImages) Put(_ context.Context, key, _ string, _ []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

func TestRecipeImage(t *testing.T) {
	ctx := context.Background()

	t.Run("stored when a store is configured", func(t *testing.T) {
		f := newFixture()
		images := &memImages{}
		f.recipes.Images = images
		author := f.user(t, "cook")
		in := recipeInput("Pie", []string{}, IngredientAmount{ID: f.ingredient(t, "Flour", "g").ID, Amount: 1})
		in.Image = ptr(pixel)

		rec, err := f.recipes.Create(ctx, author.ID, in)
		require.NoError(t, err)
		require.Len(t, images.keys, 1)
		assert.Equal(t, "https://cdn.example.com/"+images.keys[0], rec.Image)
		assert.Contains(t, images.keys[0], "recipes/"+author.ID+"/")
	})

	t.Run("rejected without a store", func(t *testing.T) {
		f := newFixture()
		author := f.user(t, "cook")
		in := recipeInput("Pie", []string{}, IngredientAmount{ID: f.ingredient(t, "Flour", "g").ID, Amount: 1})
		in.Image = ptr(pixel)

		_, err := f.recipes.Create(ctx, author.ID, in)
		assert.ErrorIs(t, err, ErrImageStorageUnavailable)
	})

	t.Run("upload failure", func(t *testing.T) {
		f := newFixture()
		f.recipes.Images = &memImages{err: errors.New("bucket gone")}
		author := f.user(t, "cook")
		in := recipeInput("Pie", []string{}, IngredientAmount{ID: f.ingredient(t, "Flour", "g").ID, Amount: 1})
		in.Image = ptr(pixel)

		_, err := f.recipes.Create(ctx, author.ID, in)
		assert.ErrorIs(t, err, ErrImageStorageUnavailable)
	})

	t.Run("plain urls are kept", func(t *testing.T) {
		f := newFixture()
		author := f.user(t, "cook")
		in := recipeInput("Pie", []string{}, IngredientAmount{ID: f.ingredient(t, "Flour", "g").ID, Amount: 1})
		in.Image = ptr("https://img.example.com/pie.png")

		rec, err := f.recipes.Create(ctx, author.ID, in)
		require.NoError(t, err)
		assert.Equal(t, "https://img.example.com/pie.png", rec.Image)
	})

	t.Run("pixel budget", func(t *testing.T) {
		f := newFixture()
		images := &memImages{}
		f.recipes.Images = images
		f.recipes.ImageMaxPixels = 40_000_000
		author := f.user(t, "cook")
		in := recipeInput("Pie", []string{}, IngredientAmount{ID: f.ingredient(t, "Flour", "g").ID, Amount: 1})
		in.Image = ptr(hugePNG(60000, 60000))

		_, err := f.recipes.Create(ctx, author.ID, in)
		assert.Contains(t, details(t, err), "image")
		assert.Empty(t, images.keys)
	})

	t.Run("garbage data uri", func(t *testing.T) {
		f := newFixture()
		f.recipes.Images = &memImages{}
		author := f.user(t, "cook")
		in := recipeInput("Pie", []string{}, IngredientAmount{ID: f.ingredient(t, "Flour", "g").ID, Amount: 1})
		in.Image = ptr("data:image/png;base64,@@@")

		_, err := f.recipes.Create(ctx, author.ID, in)
		assert.Contains(t, details(t, err), "image")
	})
}

type recordingPublisher struct{ bodies []any }

func (p *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	p.bodies = append(p.bodies, body)
	return nil
}

func TestCreateRecipeNotifiesFollowers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	pub := &recordingPublisher{}
	f.recipes.Notifier = &Notifier{Pub: pub, Cfg: testConfig()}
	author := f.user(t, "cook")
	reader := f.user(t, "reader")
	_, err := f.follows.Subscribe(ctx, reader.ID, author.ID, 3)
	require.NoError(t, err)

	f.recipe(t, author, "Pie", f.ingredient(t, "Flour", "g"), 1)
	f.recipes.Notifier.Wait()

	assert.Len(t, pub.bodies, 1)
}
