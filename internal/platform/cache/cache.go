// Package cache provides the key/value and set cache used for dashboard
// results and the subscriber digest bookkeeping. Redis backs it in
// production; Memory serves single-instance and test deployments.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrMiss is returned by GetJSON when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is the subset of Redis semantics the services rely on.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// AddToSet adds members to the set at key and resets its expiry to ttl.
	AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error
	Members(ctx context.Context, key string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON decodes the value at key into dst.
func GetJSON(ctx context.Context, c Cache, key string, dst interface{}) error {
	raw, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// SetJSON encodes value and stores it at key.
func SetJSON(ctx context.Context, c Cache, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

// Remember returns the cached value at key, or calls load, caches its result
// and returns it. Cache failures other than a miss are ignored so a broken
// cache never fails the caller.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if err := GetJSON(ctx, c, key, &cached); err == nil {
		return cached, nil
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	_ = SetJSON(ctx, c, key, v, ttl)
	return v, nil
}
