package store

import (
	"context"
	"fmt"
)

// Config selects and configures a store backend
type Config struct {
	// Driver is one of memory, sqlite3, pgx, redis
	Driver string
	// DSN is the connection string of the sql drivers
	DSN string
	// Table is the sql table name
	Table string
	// Redis configures the redis driver
	Redis RedisConfig
}

// Open creates the store selected by config.Driver
func Open(ctx context.Context, config Config) (Store, error) {
	switch config.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite3", "pgx":
		if config.DSN == "" {
			return nil, fmt.Errorf("store driver %s requires a dsn", config.Driver)
		}
		return OpenSQL(ctx, config.Driver, config.DSN, config.Table)
	case "redis":
		return OpenRedis(ctx, config.Redis)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", config.Driver)
	}
}
