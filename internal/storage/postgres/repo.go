// Package postgres implements the accidents warehouse repository using pgx
// v5. Chunks are loaded with a binary COPY into a transaction-scoped
// temporary table and merged into the permanent table with a conflict-skip
// insert, so re-running a load is idempotent.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the minimal pool surface the repository needs. *pgxpool.Pool
// satisfies it; tests supply a fake.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Repository is the accidents warehouse handle. It is constructed once at
// process start and passed by reference into the schema manager and the
// ingestion driver; there is no ambient global connection.
type Repository struct {
	db DB
}

// NewRepository connects a pool to dsn, verifies reachability, and returns
// the repository along with a close function for cleanup. An unreachable
// database fails here, at startup.
func NewRepository(ctx context.Context, dsn string) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", redactDSN(dsn), err)
	}
	return &Repository{db: pool}, pool.Close, nil
}

// NewWithDB wraps an existing pool-like handle. Used by tests.
func NewWithDB(db DB) *Repository { return &Repository{db: db} }

// Exec runs a single statement outside any explicit transaction.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.db.Exec(ctx, sql)
	return err
}

// redactDSN strips the credential section from a connection URL for logging.
func redactDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	if at < 0 {
		return dsn
	}
	scheme := strings.Index(dsn, "://")
	if scheme < 0 || scheme+3 > at {
		return dsn
	}
	return dsn[:scheme+3] + dsn[at+1:]
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
