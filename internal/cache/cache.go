package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Cache stores serialized aggregation results. Get reports a miss with
// ok=false and a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Purge removes every entry and returns how many were dropped.
	Purge(ctx context.Context) (int, error)
	Close() error
}

type Options struct {
	Backend  string
	RedisURL string
	Prefix   string
	// Sweep is how often the memory backend drops expired entries.
	Sweep time.Duration
}

// Open builds the backend named by opts.Backend. The redis backend pings the
// server before returning.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendMemory:
		return NewMemory(opts.Sweep), nil
	case BackendRedis:
		return NewRedis(ctx, opts.RedisURL, opts.Prefix)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Delete(context.Context, string) error { return nil }
func (Nop) Purge(context.Context) (int, error) { return 0, nil }
func (Nop) Close() error { return nil }
