package redis

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter is a fixed-window counter used on the public storefront lookup,
// which is unauthenticated and piggybacks a billing check per hit.
type RateLimiter struct {
	client *Client
}

func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}
	if count > int64(limit) {
		return false, nil
	}
	return true, nil
}

func RateKey(scope, id string) string {
	return fmt.Sprintf("rate:%s:%s", scope, id)
}
