package lib

import (
	"brs/src/config"
	"brs/src/types"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// CacheSession stores the flat session record under its fixed key. The record
// survives reloads until logout clears it; it is a cache, not a credential.
func CacheSession(ctx context.Context, session *types.SessionData) error {
	rdb := GetRedisClient()
	if rdb == nil {
		return redis.ErrClosed
	}
	key := fmt.Sprintf(config.SESSION_KEY_FORMAT, session.AccountID)
	body, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, string(body), 24*time.Hour).Err()
}

func GetCachedSession(ctx context.Context, accountId string) (*types.SessionData, error) {
	rdb := GetRedisClient()
	if rdb == nil {
		return nil, redis.ErrClosed
	}
	key := fmt.Sprintf(config.SESSION_KEY_FORMAT, accountId)
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var session types.SessionData
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func ClearSession(ctx context.Context, accountId string) {
	rdb := GetRedisClient()
	if rdb == nil {
		return
	}
	key := fmt.Sprintf(config.SESSION_KEY_FORMAT, accountId)
	if err := rdb.Del(ctx, key).Err(); err != nil {
		log.Printf("[redis] Error clearing session for [%s]: %s\n", accountId, err.Error())
	}
}

// ConsumePendingSignIn atomically takes the pending external sign-in marker.
// A second resumption signal for the same flow finds nothing and becomes a
// no-op, which keeps the callback idempotent.
func ConsumePendingSignIn(ctx context.Context, flowId string) bool {
	rdb := GetRedisClient()
	if rdb == nil {
		return false
	}
	key := fmt.Sprintf(config.OAUTH_PENDING_KEY_FORMAT, flowId)
	val, err := rdb.GetDel(ctx, key).Result()
	if err != nil || val == "" {
		return false
	}
	return true
}

func MarkPendingSignIn(ctx context.Context, flowId string) error {
	rdb := GetRedisClient()
	if rdb == nil {
		return redis.ErrClosed
	}
	key := fmt.Sprintf(config.OAUTH_PENDING_KEY_FORMAT, flowId)
	return rdb.Set(ctx, key, "pending", 10*time.Minute).Err()
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}
