package kv

import (
	"context"
	"time"
)

// timeoutStore bounds every call with a deadline so a hung backend cannot
// hang the request that triggered it.
type timeoutStore struct {
	next    Store
	timeout time.Duration
}

// WithTimeout decorates store with a per-call timeout. A non-positive timeout
// returns store unchanged.
func WithTimeout(store Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return store
	}
	return &timeoutStore{next: store, timeout: timeout}
}

func (s *timeoutStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Get(ctx, key)
}

func (s *timeoutStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Set(ctx, key, value)
}

func (s *timeoutStore) Remove(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Remove(ctx, key)
}

func (s *timeoutStore) RemoveMany(ctx context.Context, keys ...string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.RemoveMany(ctx, keys...)
}

func (s *timeoutStore) Keys(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.next.Keys(ctx)
}

func (s *timeoutStore) Close() error {
	return s.next.Close()
}
