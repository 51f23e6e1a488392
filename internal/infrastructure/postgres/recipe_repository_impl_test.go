package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/foodgram/internal/domain/repository"
)

func TestRecipeWhereEmpty(t *testing.T) {
	where, args := recipeWhere(repository.RecipeFilter{Limit: 6})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestRecipeWhereTagsUseSingleAnyArg(t *testing.T) {
	where, args := recipeWhere(repository.RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}})

	require.Len(t, args, 1)
	assert.Equal(t, []string{"breakfast", "dinner"}, args[0])
	assert.Contains(t, where, "t.slug = ANY($1)")
}

func TestRecipeWhereCombinesFilters(t *testing.T) {
	where, args := recipeWhere(repository.RecipeFilter{
		AuthorID:    "a",
		TagSlugs:    []string{"lunch"},
		FavoritedBy: "u",
		InCartOf:    "u",
	})

	assert.Equal(t, []any{"a", []string{"lunch"}, "u", "u"}, args)
	assert.Contains(t, where, "r.author_id = $1")
	assert.Contains(t, where, "f.user_id = $3")
	assert.Contains(t, where, "c.user_id = $4")
	assert.Equal(t, 3, strings.Count(where, " AND "))
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "22P02"}), repository.ErrNotFound)

	err := translate(&pgconn.PgError{Code: "23505", ConstraintName: "unique_favorite"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	var ce *repository.ConstraintError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "unique_favorite", ce.Constraint)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}

func TestUUIDsDropsMalformed(t *testing.T) {
	got := uuids([]string{"not-a-uuid", "6f1c2e8e-3c1b-4a53-9b8e-4f7f4c8f0a11"})
	require.Len(t, got, 1)
	assert.Equal(t, "6f1c2e8e-3c1b-4a53-9b8e-4f7f4c8f0a11", got[0].String())
}

func TestRelationTable(t *testing.T) {
	table, err := relationTable(repository.Cart)
	require.NoError(t, err)
	assert.Equal(t, "cart_items", table)

	_, err = relationTable("users; drop table users")
	assert.Error(t, err)
}

func TestLikeEscaper(t *testing.T) {
	assert.Equal(t, `50\% \_x\\`, likeEscaper.Replace(`50% _x\`))
}
