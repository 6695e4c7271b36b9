package database

import (
	"context"
	"fmt"
	"time"

	"bistro-checkout/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	applicationName = "bistro-checkout"

	// The submission log is written once per order, so idle connections
	// are released quickly.
	maxConnIdleTime   = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
	pingTimeout       = 5 * time.Second
)

// NewPool creates the PostgreSQL connection pool backing the submission log.
// The pool is verified with a bounded ping before it is returned.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := newPoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.With().
		Str("component", "submission_log_pool").
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Logger()
	log.Info().Int("max_connections", cfg.MaxConnections).Msg("connecting to submission log database")

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Msg("submission log database reachable")
	return pool, nil
}

func newPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName

	return poolConfig, nil
}
