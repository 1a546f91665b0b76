package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisRevocations keeps a deny list of token ids until the tokens expire.
type RedisRevocations struct {
	client    *redis.Client
	namespace string
	now       func() time.Time
}

func NewRedisRevocations(client *redis.Client, namespace string) *RedisRevocations {
	if namespace == "" {
		namespace = "foodapi"
	}
	return &RedisRevocations{client: client, namespace: namespace, now: time.Now}
}

func (r *RedisRevocations) key(tokenID string) string {
	return fmt.Sprintf("%s:revoked:%s", r.namespace, tokenID)
}

// Revoke denies tokenID until it would have expired anyway.
func (r *RedisRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return nil
	}
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("session: revocation lookup: %w", err)
	}
	return n > 0, nil
}

// NoRevocations is used when no Redis is configured: logout only clears the cookie.
type NoRevocations struct{}

func (NoRevocations) Revoke(context.Context, string, time.Time) error { return nil }

func (NoRevocations) IsRevoked(context.Context, string) (bool, error) { return false, nil }
