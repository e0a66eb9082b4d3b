package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/postkeeper-server/database"
	"github.com/dtroode/postkeeper-server/internal/logger"
)

type Connection struct {
	*pgxpool.Pool
}

// NewConnection opens a pool, waits up to connectTimeout for the database to answer and applies migrations.
func NewConnection(ctx context.Context, dsn string, connectTimeout time.Duration, logger *logger.Logger) (*Connection, error) {
	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}

	conn := &Connection{Pool: pool}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = connectTimeout
	notify := func(err error, next time.Duration) {
		logger.Warn("Postgres: database not ready", "error", err, "retry_in", next)
	}
	if err := backoff.RetryNotify(func() error { return conn.Ping(ctx) }, backoff.WithContext(b, ctx), notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	if err := database.Migrate(ctx, dsn); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.Info("Postgres: connected and migrated")

	return conn, nil
}

func (s *Connection) Close() error {
	if s.Pool != nil {
		s.Pool.Close()
	}
	return nil
}

func (s *Connection) Ping(ctx context.Context) error {
	if s.Pool == nil {
		return fmt.Errorf("connection pool is nil")
	}
	return s.Pool.Ping(ctx)
}
