package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/domain/repository"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type IngredientRepository struct {
	pool *pgxpool.Pool
}

func NewIngredientRepository(pool *pgxpool.Pool) *IngredientRepository {
	return &IngredientRepository{pool: pool}
}

func (r *IngredientRepository) List(ctx context.Context, prefix string) ([]entity.Ingredient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, measurement_unit
		FROM ingredients
		WHERE lower(name) LIKE lower($1) || '%' ESCAPE '\'
		ORDER BY name, measurement_unit
	`, likeEscaper.Replace(prefix))
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make([]entity.Ingredient, 0)
	for rows.Next() {
		var in entity.Ingredient
		if err := rows.Scan(&in.ID, &in.Name, &in.MeasurementUnit); err != nil {
			return nil, translate(err)
		}
		out = append(out, in)
	}
	return out, translate(rows.Err())
}

func (r *IngredientRepository) GetByID(ctx context.Context, id string) (*entity.Ingredient, error) {
	in := &entity.Ingredient{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, measurement_unit FROM ingredients WHERE id = $1`, id).
		Scan(&in.ID, &in.Name, &in.MeasurementUnit)
	if err != nil {
		return nil, translate(err)
	}
	return in, nil
}

func (r *IngredientRepository) Create(ctx context.Context, in *entity.Ingredient) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ingredients (name, measurement_unit) VALUES ($1, $2) RETURNING id
	`, in.Name, in.MeasurementUnit).Scan(&in.ID)
	return translate(err)
}

func (r *IngredientRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	return existingIDs(ctx, r.pool, `SELECT id FROM ingredients WHERE id = ANY($1)`, ids)
}

type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

func (r *TagRepository) List(ctx context.Context) ([]entity.Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color, slug FROM tags ORDER BY name`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make([]entity.Tag, 0)
	for rows.Next() {
		var t entity.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, translate(err)
		}
		out = append(out, t)
	}
	return out, translate(rows.Err())
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*entity.Tag, error) {
	t := &entity.Tag{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, color, slug FROM tags WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		return nil, translate(err)
	}
	return t, nil
}

func (r *TagRepository) Create(ctx context.Context, t *entity.Tag) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tags (name, color, slug) VALUES ($1, $2, $3) RETURNING id
	`, t.Name, t.Color, t.Slug).Scan(&t.ID)
	return translate(err)
}

func (r *TagRepository) Delete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return translate(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TagRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	return existingIDs(ctx, r.pool, `SELECT id FROM tags WHERE id = ANY($1)`, ids)
}

func existingIDs(ctx context.Context, pool *pgxpool.Pool, query string, ids []string) ([]string, error) {
	parsed := uuids(ids)
	if len(parsed) == 0 {
		return []string{}, nil
	}
	rows, err := pool.Query(ctx, query, parsed)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	out := make([]string, 0, len(parsed))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err)
		}
		out = append(out, id)
	}
	return out, translate(rows.Err())
}

var (
	_ repository.IngredientRepository = (*IngredientRepository)(nil)
	_ repository.TagRepository        = (*TagRepository)(nil)
)
