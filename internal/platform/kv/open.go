package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/betterfly/betterfly/internal/platform/db"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Options selects and configures a driver.
type Options struct {
	Driver     string
	SQLitePath string
	RedisAddr  string
	PGDSN      string
	Timeout    time.Duration
}

// ValidDriver reports whether name is a supported driver.
func ValidDriver(name string) bool {
	switch name {
	case DriverMemory, DriverSQLite, DriverRedis, DriverPostgres:
		return true
	}
	return false
}

// Open connects to the configured backend and returns a ready Store.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Driver {
	case DriverMemory:
		store = NewMemoryStore()
	case DriverSQLite, "":
		store, err = NewSQLiteStore(ctx, opts.SQLitePath)
	case DriverRedis:
		client, clientErr := NewRedisClient(ctx, opts.RedisAddr)
		if clientErr != nil {
			return nil, clientErr
		}
		redisStore := NewRedisStore(client, "")
		redisStore.owned = true
		store = redisStore
	case DriverPostgres:
		pool, poolErr := db.New(ctx, opts.PGDSN)
		if poolErr != nil {
			return nil, poolErr
		}
		if migErr := db.Migrate(ctx, pool); migErr != nil {
			pool.Close()
			return nil, migErr
		}
		store = NewPostgresStore(pool)
	default:
		return nil, fmt.Errorf("platform/kv: unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(store, opts.Timeout), nil
}
