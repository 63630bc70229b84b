// Package postgres stores the moderation decision log in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for the decision log. Writes come from enrichment goroutines,
// reads from the API; neither needs many connections.
const (
	defaultMaxConns        = 8
	defaultMaxConnIdleTime = 5 * time.Minute
	applicationName        = "feedguard"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and pings the server. Pool limits set in the dsn
// (pool_max_conns, ...) take precedence over the defaults.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	applyDefaults(config)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

func applyDefaults(config *pgxpool.Config) {
	if !hasParam(config, "pool_max_conns") {
		config.MaxConns = defaultMaxConns
	}
	if !hasParam(config, "pool_max_conn_idle_time") {
		config.MaxConnIdleTime = defaultMaxConnIdleTime
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
}

// hasParam reports whether the dsn set a pgxpool-specific parameter.
func hasParam(config *pgxpool.Config, name string) bool {
	return strings.Contains(config.ConnString(), name)
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// unique_violation, raised when a decision_id is inserted twice.
const pgErrUniqueViolation = "23505"

// isDuplicateKeyError reports whether err is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}
