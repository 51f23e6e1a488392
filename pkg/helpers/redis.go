package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the hash holding the active session of a user.
func SessionKey(userID string) string {
	return "user:session:" + userID
}

// SaveSession writes fields into the session hash of userID and resets its expiry.
// Fields not named are left as they are, so a refresh can rotate only the sid.
func SaveSession(ctx context.Context, rdb *redis.Client, userID string, fields map[string]any, ttl time.Duration) error {
	key := SessionKey(userID)
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// SessionMatches reports whether the live session of userID carries sid.
func SessionMatches(ctx context.Context, rdb *redis.Client, userID, sid string) bool {
	if sid == "" {
		return false
	}
	cur, err := rdb.HGet(ctx, SessionKey(userID), "sid").Result()
	return err == nil && cur == sid
}

func RedisSetJSON(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// RedisGetJSON decodes key into dest. A missing key is (false, nil).
func RedisGetJSON[T any](ctx context.Context, rdb *redis.Client, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

func RedisDel(ctx context.Context, rdb *redis.Client, keys ...string) error {
	return rdb.Del(ctx, keys...).Err()
}
