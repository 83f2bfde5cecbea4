package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nusrat-jahan/clinicbook/libs/config"
)

// Pool wraps pgxpool so services share one connection-pool setup.
type Pool struct {
	*pgxpool.Pool
}

// Open parses the database URL, applies pool sizing (overridable through
// DB_MAX_CONNS / DB_MIN_CONNS / DB_CONN_LIFETIME_MINUTES / DB_CONN_IDLE_MINUTES),
// and verifies connectivity with a ping before returning.
func Open(ctx context.Context, databaseURL string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = int32(config.Int("DB_MAX_CONNS", 10))
	cfg.MinConns = int32(config.Int("DB_MIN_CONNS", 1))
	cfg.MaxConnLifetime = time.Duration(config.Int("DB_CONN_LIFETIME_MINUTES", 30)) * time.Minute
	cfg.MaxConnIdleTime = time.Duration(config.Int("DB_CONN_IDLE_MINUTES", 5)) * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Pool{Pool: pool}, nil
}

func (p *Pool) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}

// ReadyCheck probes the pool for the /readyz endpoint.
func ReadyCheck(pool *Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil || pool.Pool == nil {
			return errors.New("db not configured")
		}
		return pool.Ping(ctx)
	}
}
