package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/foodgram/internal/domain/entity"
)

func TestCatalogWritesRequireAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	u := f.user(t, "cook")

	err := f.catalog.CreateTag(ctx, u.ID, &entity.Tag{Name: "Lunch", Color: "#fff000", Slug: "lunch"})
	assert.ErrorIs(t, err, ErrForbidden)
	err = f.catalog.CreateIngredient(ctx, "", &entity.Ingredient{Name: "Salt", MeasurementUnit: "g"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCatalogTags(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.admin(t)

	tag := &entity.Tag{Name: "Lunch", Color: "#fff000", Slug: "lunch"}
	require.NoError(t, f.catalog.CreateTag(ctx, admin.ID, tag))
	assert.Equal(t, "#FFF000", tag.Color)

	err := f.catalog.CreateTag(ctx, admin.ID, &entity.Tag{Name: "Other", Color: "#000000", Slug: "lunch"})
	assert.Contains(t, details(t, err), "slug")

	got, err := f.catalog.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "lunch", got.Slug)

	require.NoError(t, f.catalog.DeleteTag(ctx, admin.ID, tag.ID))
	assert.ErrorIs(t, f.catalog.DeleteTag(ctx, admin.ID, tag.ID), ErrNotFound)
	_, err = f.catalog.GetTag(ctx, tag.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	tags, err := f.catalog.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestCatalogIngredients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.admin(t)
	for _, in := range []entity.Ingredient{{Name: "Sugar", MeasurementUnit: "g"}, {Name: "salt", MeasurementUnit: "g"}, {Name: "Flour", MeasurementUnit: "g"}} {
		require.NoError(t, f.catalog.CreateIngredient(ctx, admin.ID, &in))
	}

	err := f.catalog.CreateIngredient(ctx, admin.ID, &entity.Ingredient{Name: "Flour", MeasurementUnit: "g"})
	assert.Contains(t, details(t, err), "name")
	require.NoError(t, f.catalog.CreateIngredient(ctx, admin.ID, &entity.Ingredient{Name: "Flour", MeasurementUnit: "kg"}))

	all, err := f.catalog.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	got, err := f.catalog.ListIngredients(ctx, " S ")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, in := range got {
		names = append(names, in.Name)
	}
	assert.ElementsMatch(t, []string{"Sugar", "salt"}, names)

	_, err = f.catalog.GetIngredient(ctx, "00000000-0000-0000-0000-000000000006")
	assert.ErrorIs(t, err, ErrNotFound)
}
