package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const stageTable = "_accidents_stage"

// ON COMMIT DROP ties the stage's lifetime to the transaction: it vanishes
// on commit and on rollback alike, so no cleanup path can leak it.
const createStageSQL = `CREATE TEMP TABLE ` + stageTable + ` (LIKE accidents) ON COMMIT DROP`

// StageAndMerge loads one normalized chunk into the permanent table inside a
// single transaction:
//
//  1. create the transaction-scoped staging table,
//  2. COPY the chunk into it,
//  3. insert staged rows whose accident_index is not already present
//     (first writer wins; the incoming duplicate is silently dropped).
//
// It returns the number of rows actually inserted after conflict skipping.
// On any failure the transaction rolls back, the stage is dropped, and the
// error propagates; committed prior chunks are unaffected.
func (r *Repository) StageAndMerge(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) // no-op once committed

	if _, err := tx.Exec(ctx, createStageSQL); err != nil {
		return 0, fmt.Errorf("create stage: %w", err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stageTable}, columns, pgx.CopyFromRows(rows)); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into stage: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into stage: %w", err)
	}

	tag, err := tx.Exec(ctx, mergeSQL(columns))
	if err != nil {
		return 0, fmt.Errorf("merge stage: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return tag.RowsAffected(), nil
}

// mergeSQL renders the conditional insert from the stage into accidents.
// Identifiers are quoted; there are no interpolated values.
func mergeSQL(columns []string) string {
	cols := strings.Join(mapIdent(columns), ", ")
	return fmt.Sprintf(
		`INSERT INTO accidents (%s)
SELECT %s FROM %s
ON CONFLICT (accident_index) DO NOTHING`,
		cols, cols, stageTable,
	)
}
