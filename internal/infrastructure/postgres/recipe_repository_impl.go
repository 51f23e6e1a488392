package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/domain/repository"
)

const recipeColumns = `r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.pub_date`

type RecipeRepository struct {
	pool *pgxpool.Pool
}

func NewRecipeRepository(pool *pgxpool.Pool) *RecipeRepository {
	return &RecipeRepository{pool: pool}
}

func scanRecipe(row pgx.Row) (*entity.Recipe, error) {
	rec := &entity.Recipe{}
	if err := row.Scan(&rec.ID, &rec.AuthorID, &rec.Name, &rec.Text, &rec.Image, &rec.CookingTime, &rec.PubDate); err != nil {
		return nil, translate(err)
	}
	return rec, nil
}

func (r *RecipeRepository) Create(ctx context.Context, rec *entity.Recipe) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO recipes (author_id, name, text, image, cooking_time)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, pub_date
		`, rec.AuthorID, rec.Name, rec.Text, rec.Image, rec.CookingTime).Scan(&rec.ID, &rec.PubDate)
		if err != nil {
			return translate(err)
		}
		return writeAssociations(ctx, tx, rec)
	})
}

func (r *RecipeRepository) Update(ctx context.Context, rec *entity.Recipe) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		res, err := tx.Exec(ctx, `
			UPDATE recipes SET name = $1, text = $2, image = $3, cooking_time = $4
			WHERE id = $5
		`, rec.Name, rec.Text, rec.Image, rec.CookingTime, rec.ID)
		if err != nil {
			return translate(err)
		}
		if res.RowsAffected() == 0 {
			return repository.ErrNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id = $1`, rec.ID); err != nil {
			return translate(err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, rec.ID); err != nil {
			return translate(err)
		}
		return writeAssociations(ctx, tx, rec)
	})
}

// writeAssociations bulk-inserts the tag and ingredient rows of rec.
func writeAssociations(ctx context.Context, tx pgx.Tx, rec *entity.Recipe) error {
	recipeID, err := uuid.Parse(rec.ID)
	if err != nil {
		return repository.ErrNotFound
	}

	tagRows := make([][]any, 0, len(rec.Tags))
	for _, t := range rec.Tags {
		id, err := uuid.Parse(t.ID)
		if err != nil {
			return repository.ErrNotFound
		}
		tagRows = append(tagRows, []any{recipeID, id})
	}
	if len(tagRows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"recipe_tags"}, []string{"recipe_id", "tag_id"}, pgx.CopyFromRows(tagRows)); err != nil {
			return translate(err)
		}
	}

	ingRows := make([][]any, 0, len(rec.Ingredients))
	for _, ri := range rec.Ingredients {
		id, err := uuid.Parse(ri.IngredientID)
		if err != nil {
			return repository.ErrNotFound
		}
		ingRows = append(ingRows, []any{recipeID, id, ri.Amount})
	}
	if len(ingRows) > 0 {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"recipe_ingredients"}, []string{"recipe_id", "ingredient_id", "amount"}, pgx.CopyFromRows(ingRows)); err != nil {
			return translate(err)
		}
	}
	return nil
}

func (r *RecipeRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*entity.Recipe, error) {
	rec, err := scanRecipe(r.pool.QueryRow(ctx, `SELECT `+recipeColumns+` FROM recipes r WHERE r.id = $1`, id))
	if err != nil {
		return nil, err
	}
	recipes := []entity.Recipe{*rec}
	if err := r.loadAssociations(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// recipeWhere renders the filter as a WHERE clause over alias r, with positional args.
func recipeWhere(f repository.RecipeFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.AuthorID != "" {
		conds = append(conds, "r.author_id = "+next(f.AuthorID))
	}
	if len(f.TagSlugs) > 0 {
		conds = append(conds, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY(`+next(f.TagSlugs)+`))`)
	}
	if f.FavoritedBy != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = "+next(f.FavoritedBy)+")")
	}
	if f.InCartOf != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM cart_items c WHERE c.recipe_id = r.id AND c.user_id = "+next(f.InCartOf)+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *RecipeRepository) List(ctx context.Context, f repository.RecipeFilter) ([]entity.Recipe, int, error) {
	where, args := recipeWhere(f)

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM recipes r`+where, args...).Scan(&count); err != nil {
		return nil, 0, translate(err)
	}

	limitArg := "$" + strconv.Itoa(len(args)+1)
	offsetArg := "$" + strconv.Itoa(len(args)+2)
	query := `SELECT ` + recipeColumns + ` FROM recipes r` + where +
		` ORDER BY r.pub_date DESC, r.id LIMIT ` + limitArg + ` OFFSET ` + offsetArg
	rows, err := r.pool.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	recipes := make([]entity.Recipe, 0)
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		recipes = append(recipes, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translate(err)
	}

	if err := r.loadAssociations(ctx, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, count, nil
}

// loadAssociations fills Tags and Ingredients of recipes in place.
func (r *RecipeRepository) loadAssociations(ctx context.Context, recipes []entity.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	index := make(map[string]int, len(recipes))
	ids := make([]string, 0, len(recipes))
	for i := range recipes {
		index[recipes[i].ID] = i
		ids = append(ids, recipes[i].ID)
		recipes[i].Tags = []entity.Tag{}
		recipes[i].Ingredients = []entity.RecipeIngredient{}
	}
	parsed := uuids(ids)

	rows, err := r.pool.Query(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.name
	`, parsed)
	if err != nil {
		return translate(err)
	}
	for rows.Next() {
		var (
			recipeID string
			t        entity.Tag
		)
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			rows.Close()
			return translate(err)
		}
		i := index[recipeID]
		recipes[i].Tags = append(recipes[i].Tags, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return translate(err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT ri.recipe_id, i.id, i.name, i.measurement_unit, ri.amount
		FROM recipe_ingredients ri JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY i.name
	`, parsed)
	if err != nil {
		return translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			recipeID string
			ri       entity.RecipeIngredient
		)
		if err := rows.Scan(&recipeID, &ri.IngredientID, &ri.Name, &ri.MeasurementUnit, &ri.Amount); err != nil {
			return translate(err)
		}
		i := index[recipeID]
		recipes[i].Ingredients = append(recipes[i].Ingredients, ri)
	}
	return translate(rows.Err())
}

func (r *RecipeRepository) NameTaken(ctx context.Context, authorID, name, excludeID string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM recipes
			WHERE author_id = $1 AND name = $2 AND ($3::text = '' OR id::text <> $3::text)
		)
	`, authorID, name, excludeID).Scan(&taken)
	return taken, translate(err)
}

func (r *RecipeRepository) LatestByAuthors(ctx context.Context, authorIDs []string, perAuthor int) (map[string][]entity.Recipe, error) {
	out := make(map[string][]entity.Recipe, len(authorIDs))
	parsed := uuids(authorIDs)
	if len(parsed) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.author_id, r.name, r.text, r.image, r.cooking_time, r.pub_date
		FROM (
			SELECT rr.*, row_number() OVER (PARTITION BY rr.author_id ORDER BY rr.pub_date DESC, rr.id) AS rn
			FROM recipes rr
			WHERE rr.author_id = ANY($1)
		) r
		WHERE $2::int < 0 OR r.rn <= $2::int
		ORDER BY r.author_id, r.pub_date DESC, r.id
	`, parsed, perAuthor)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		out[rec.AuthorID] = append(out[rec.AuthorID], *rec)
	}
	return out, translate(rows.Err())
}

func (r *RecipeRepository) CountByAuthors(ctx context.Context, authorIDs []string) (map[string]int, error) {
	out := make(map[string]int, len(authorIDs))
	parsed := uuids(authorIDs)
	if len(parsed) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT author_id, count(*) FROM recipes WHERE author_id = ANY($1) GROUP BY author_id
	`, parsed)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, translate(err)
		}
		out[id] = n
	}
	return out, translate(rows.Err())
}

var _ repository.RecipeRepository = (*RecipeRepository)(nil)
