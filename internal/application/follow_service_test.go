package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	reader := f.user(t, "reader")
	flour := f.ingredient(t, "Flour", "g")
	for _, name := range []string{"One", "Two", "Three", "Four"} {
		f.recipe(t, author, name, flour, 1)
	}

	sub, err := f.follows.Subscribe(ctx, reader.ID, author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, sub.Author.ID)
	assert.Equal(t, 4, sub.RecipesCount)
	require.Len(t, sub.Recipes, 2)
	assert.Equal(t, "Four", sub.Recipes[0].Name)
	assert.Equal(t, "Three", sub.Recipes[1].Name)

	_, err = f.follows.Subscribe(ctx, reader.ID, author.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyFollowing)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSubscribeEdgeCases(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.user(t, "cook")

	_, err := f.follows.Subscribe(ctx, u.ID, u.ID, 3)
	assert.ErrorIs(t, err, ErrSelfFollow)

	_, err = f.follows.Subscribe(ctx, u.ID, "00000000-0000-0000-0000-000000000004", 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.follows.Subscribe(ctx, "", u.ID, 3)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUnsubscribe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	author := f.user(t, "cook")
	reader := f.user(t, "reader")

	assert.ErrorIs(t, f.follows.Unsubscribe(ctx, reader.ID, author.ID), ErrNotFollowing)
	assert.ErrorIs(t, f.follows.Unsubscribe(ctx, reader.ID, "00000000-0000-0000-0000-000000000005"), ErrNotFound)

	_, err := f.follows.Subscribe(ctx, reader.ID, author.ID, 3)
	require.NoError(t, err)
	require.NoError(t, f.follows.Unsubscribe(ctx, reader.ID, author.ID))
}

func TestSubscriptions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	reader := f.user(t, "reader")
	zed := f.user(t, "zed")
	amy := f.user(t, "amy")
	f.recipe(t, amy, "Soup", f.ingredient(t, "Water", "ml"), 300)

	for _, a := range []string{zed.ID, amy.ID} {
		_, err := f.follows.Subscribe(ctx, reader.ID, a, 3)
		require.NoError(t, err)
	}

	subs, count, err := f.follows.Subscriptions(ctx, reader.ID, 10, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, subs, 2)
	assert.Equal(t, "amy", subs[0].Author.Username)
	assert.Len(t, subs[0].Recipes, 1)
	assert.Equal(t, "zed", subs[1].Author.Username)
	assert.NotNil(t, subs[1].Recipes)
	assert.Empty(t, subs[1].Recipes)

	subs, _, err = f.follows.Subscriptions(ctx, reader.ID, 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, subs[0].Recipes)
	assert.Equal(t, 1, subs[0].RecipesCount)
}
