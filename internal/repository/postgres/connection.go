package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/domain/repositories"
)

// RepositoryConfig holds the shared pieces every repository needs.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds the environment-prefixed table names.
type TableNames struct {
	Reflections    string
	Tags           string
	ReflectionTags string
	Albums         string
	Images         string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Reflections:    fmt.Sprintf("%sreflections", prefix),
		Tags:           fmt.Sprintf("%stags", prefix),
		ReflectionTags: fmt.Sprintf("%sreflection_tags", prefix),
		Albums:         fmt.Sprintf("%salbums", prefix),
		Images:         fmt.Sprintf("%simages", prefix),
	}
}

// CreateConnectionPool creates a pgx pool against the Supabase database.
//
// Supabase's transaction pooler (port 6543) runs PgBouncer, which cannot
// handle prepared statements. When that port is detected and the caller
// did not pick a mode explicitly (default_query_exec_mode in the
// connection string wins), the pool switches to QueryExecModeCacheDescribe:
// extended protocol, so typed parameters still encode correctly, but no
// server-side prepared statements. Direct connections on 5432 keep the
// pgx default.
//
// Interpolating table prefixes with fmt.Sprintf is safe alongside
// statement caching: the SQL text is final before it reaches the server,
// so each environment caches its own statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in the context when there
// is one, and the pool otherwise. Repositories call this on every query
// so they transparently join a surrounding transaction.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
