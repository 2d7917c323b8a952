package postgres

import (
	"context"
	"fmt"
)

// The destination shape is a published contract: the dashboard reader
// queries this table as-is, so column names and types must not drift.
const createAccidentsSQL = `
CREATE TABLE IF NOT EXISTS accidents (
  accident_index        TEXT PRIMARY KEY,
  accident_date         DATE,
  accident_time         TIME,
  latitude              DOUBLE PRECISION,
  longitude             DOUBLE PRECISION,
  severity              SMALLINT,
  number_of_casualties  SMALLINT,
  number_of_vehicles    SMALLINT,
  road_type             TEXT,
  speed_limit           SMALLINT,
  weather               TEXT,
  light_conditions      TEXT,
  urban_or_rural        TEXT,
  raw_json              JSONB
)`

var indexSQL = []string{
	`CREATE INDEX IF NOT EXISTS ix_accidents_date ON accidents (accident_date)`,
	`CREATE INDEX IF NOT EXISTS ix_accidents_severity ON accidents (severity)`,
}

// EnsureSchema idempotently creates the accidents table and its secondary
// indexes. Safe to invoke on every run; any DDL failure is fatal for the
// loader, which cannot proceed without the destination shape.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createAccidentsSQL); err != nil {
		return fmt.Errorf("create accidents table: %w", err)
	}
	for _, stmt := range indexSQL {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
