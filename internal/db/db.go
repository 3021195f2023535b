package db

import (
	"context"
	"time"
)

// Store is the database facade. Consumers depend on the narrow sub-interfaces.
type Store interface {
	Pinger
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ListStore provides capped, newest-first lists.
type ListStore interface {
	// PushCapped prepends value and trims the list to at most maxLen entries.
	PushCapped(ctx context.Context, key string, value []byte, maxLen int64) error
	// Range returns entries [start, stop] (inclusive, negative indexes count from the end).
	Range(ctx context.Context, key string, start, stop int64) ([][]byte, error)
}
