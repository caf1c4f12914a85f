// Package db defines the key-value store contract used for caching.
package db

import (
	"context"
	"time"
)

// KV is a byte-oriented key-value store with optional expiry.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close()
}
