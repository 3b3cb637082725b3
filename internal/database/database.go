// Package database opens the pgx pool of a service.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/matheusmosca/orders-inventory/internal/config"
)

const (
	pingAttempts = 30
	pingInterval = time.Second
)

// Open creates the pool and waits for the database to accept connections.
func Open(ctx context.Context, cfg config.Database, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err := pool.Ping(ctx); err == nil {
			logger.Info("connected to database", zap.String("database", cfg.Name))
			return pool, nil
		}
		logger.Info("waiting for database",
			zap.String("database", cfg.Name),
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", pingAttempts),
		)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(pingInterval):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("failed to connect to database after %d attempts", pingAttempts)
}
