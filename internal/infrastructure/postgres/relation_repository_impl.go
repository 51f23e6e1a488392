package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/foodgram/internal/domain/entity"
	"github.com/oksasatya/foodgram/internal/domain/repository"
)

type RelationRepository struct {
	pool *pgxpool.Pool
}

func NewRelationRepository(pool *pgxpool.Pool) *RelationRepository {
	return &RelationRepository{pool: pool}
}

func relationTable(kind repository.RelationKind) (string, error) {
	switch kind {
	case repository.Favorites, repository.Cart:
		return string(kind), nil
	}
	return "", fmt.Errorf("unknown relation kind %q", kind)
}

func (r *RelationRepository) Add(ctx context.Context, kind repository.RelationKind, userID, recipeID string) (bool, error) {
	table, err := relationTable(kind)
	if err != nil {
		return false, err
	}
	res, err := r.pool.Exec(ctx, `INSERT INTO `+table+` (user_id, recipe_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, recipeID)
	if err != nil {
		return false, translate(err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *RelationRepository) Remove(ctx context.Context, kind repository.RelationKind, userID, recipeID string) (bool, error) {
	table, err := relationTable(kind)
	if err != nil {
		return false, err
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1 AND recipe_id = $2`, userID, recipeID)
	if err != nil {
		return false, translate(err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *RelationRepository) Among(ctx context.Context, kind repository.RelationKind, userID string, recipeIDs []string) (map[string]bool, error) {
	table, err := relationTable(kind)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool)
	parsed := uuids(recipeIDs)
	if userID == "" || len(parsed) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT recipe_id FROM `+table+` WHERE user_id = $1 AND recipe_id = ANY($2)`, userID, parsed)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err)
		}
		out[id] = true
	}
	return out, translate(rows.Err())
}

func (r *RelationRepository) CartLines(ctx context.Context, userID string) ([]entity.CartLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT i.name, i.measurement_unit, ri.amount
		FROM cart_items c
		JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE c.user_id = $1
	`, userID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	lines := make([]entity.CartLine, 0)
	for rows.Next() {
		var l entity.CartLine
		if err := rows.Scan(&l.Name, &l.MeasurementUnit, &l.Amount); err != nil {
			return nil, translate(err)
		}
		lines = append(lines, l)
	}
	return lines, translate(rows.Err())
}

type FollowRepository struct {
	pool *pgxpool.Pool
}

func NewFollowRepository(pool *pgxpool.Pool) *FollowRepository {
	return &FollowRepository{pool: pool}
}

func (r *FollowRepository) Add(ctx context.Context, followerID, authorID string) (bool, error) {
	res, err := r.pool.Exec(ctx, `INSERT INTO follows (follower_id, author_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, followerID, authorID)
	if err != nil {
		return false, translate(err)
	}
	return res.RowsAffected() == 1, nil
}

func (r *FollowRepository) Remove(ctx context.Context, followerID, authorID string) (bool, error) {
	res, err := r.pool.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND author_id = $2`, followerID, authorID)
	if err != nil {
		return false, translate(err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *FollowRepository) FollowedAmong(ctx context.Context, followerID string, authorIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	parsed := uuids(authorIDs)
	if followerID == "" || len(parsed) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT author_id FROM follows WHERE follower_id = $1 AND author_id = ANY($2)`, followerID, parsed)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, translate(err)
		}
		out[id] = true
	}
	return out, translate(rows.Err())
}

func (r *FollowRepository) ListFollowed(ctx context.Context, followerID string, limit, offset int) ([]entity.User, int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM follows WHERE follower_id = $1`, followerID).Scan(&count); err != nil {
		return nil, 0, translate(err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.role,
		       u.is_superuser, u.is_staff, u.created_at, u.updated_at
		FROM follows f JOIN users u ON u.id = f.author_id
		WHERE f.follower_id = $1
		ORDER BY u.username
		LIMIT $2 OFFSET $3
	`, followerID, limit, offset)
	if err != nil {
		return nil, 0, translate(err)
	}
	defer rows.Close()

	users, err := collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, count, nil
}

func (r *FollowRepository) Followers(ctx context.Context, authorID string) ([]entity.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.role,
		       u.is_superuser, u.is_staff, u.created_at, u.updated_at
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.author_id = $1
	`, authorID)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

var (
	_ repository.RelationRepository = (*RelationRepository)(nil)
	_ repository.FollowRepository   = (*FollowRepository)(nil)
)
