package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Querier is the read-only query surface the reader needs; *pgxpool.Pool
// satisfies it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Reader executes dashboard queries against the shared pool.
type Reader struct {
	q Querier
}

// NewReader wraps a pool-like handle.
func NewReader(q Querier) *Reader { return &Reader{q: q} }

// KPI holds the headline aggregates for one filter selection.
type KPI struct {
	Accidents     int64
	AvgCasualties float64
	AvgVehicles   float64
}

// MonthCount is one point of the monthly trend series.
type MonthCount struct {
	Month time.Time
	Count int64
}

// RoadTypeCount is one row of the road-type ranking. RoadType is nil for
// collisions whose road type was unrecorded.
type RoadTypeCount struct {
	RoadType *string
	Count    int64
}

// Point is one geolocated collision for the map layer.
type Point struct {
	Latitude  float64
	Longitude float64
	Severity  *int16
}

// KPIs runs the headline aggregate query.
func (r *Reader) KPIs(ctx context.Context, f Filter) (KPI, error) {
	sql, args := KPIsSQL(f)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return KPI{}, fmt.Errorf("kpis: %w", err)
	}
	out, err := pgx.CollectOneRow(rows, pgx.RowToStructByPos[KPI])
	if err != nil {
		return KPI{}, fmt.Errorf("kpis: %w", err)
	}
	return out, nil
}

// MonthlyTrend runs the per-month collision count query.
func (r *Reader) MonthlyTrend(ctx context.Context, f Filter) ([]MonthCount, error) {
	sql, args := MonthlyTrendSQL(f)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[MonthCount])
	if err != nil {
		return nil, fmt.Errorf("monthly trend: %w", err)
	}
	return out, nil
}

// TopRoadTypes runs the road-type ranking query.
func (r *Reader) TopRoadTypes(ctx context.Context, f Filter, limit int) ([]RoadTypeCount, error) {
	sql, args := TopRoadTypesSQL(f, limit)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("road types: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[RoadTypeCount])
	if err != nil {
		return nil, fmt.Errorf("road types: %w", err)
	}
	return out, nil
}

// Points runs the bounded map-sample query.
func (r *Reader) Points(ctx context.Context, f Filter, limit int) ([]Point, error) {
	sql, args := PointsSQL(f, limit)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Point])
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	return out, nil
}
