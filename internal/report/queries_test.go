package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

func TestFilter_yearRangeIsClosedOpen(t *testing.T) {
	sql, args := KPIsSQL(Filter{Year: 2022})

	if !strings.Contains(sql, "accident_date >= $1 AND accident_date < $2") {
		t.Fatalf("sql = %q, want closed-open range placeholders", sql)
	}
	if got, want := len(args), 2; got != want {
		t.Fatalf("args = %v, want %d values", args, want)
	}
	start, end := args[0].(time.Time), args[1].(time.Time)
	if !start.Equal(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range start = %v, want 2022-01-01", start)
	}
	// The upper bound is exclusive: 2023-01-01 itself must not be selected.
	if !end.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("range end = %v, want 2023-01-01", end)
	}
}

func TestFilter_severityThreshold(t *testing.T) {
	sql, args := KPIsSQL(Filter{MaxSeverity: 2})

	if !strings.Contains(sql, "severity <= $1") {
		t.Fatalf("sql = %q, want severity placeholder", sql)
	}
	if len(args) != 1 || args[0] != 2 {
		t.Fatalf("args = %v, want [2]", args)
	}
}

func TestFilter_combinedNumbering(t *testing.T) {
	sql, args := KPIsSQL(Filter{Year: 2021, MaxSeverity: 1})

	if !strings.Contains(sql, "accident_date >= $1 AND accident_date < $2 AND severity <= $3") {
		t.Fatalf("sql = %q, want sequential placeholders", sql)
	}
	if got, want := len(args), 3; got != want {
		t.Fatalf("args = %v, want %d values", args, want)
	}
}

func TestFilter_zeroValueHasNoWhere(t *testing.T) {
	sql, args := KPIsSQL(Filter{})

	if strings.Contains(sql, "WHERE") {
		t.Fatalf("sql = %q, want no WHERE clause", sql)
	}
	if len(args) != 0 {
		t.Fatalf("args = %v, want none", args)
	}
}

func TestFilter_noInterpolatedValues(t *testing.T) {
	// Filter values must appear only in args, never in the SQL text.
	for _, q := range []func(Filter) (string, []any){KPIsSQL, MonthlyTrendSQL} {
		sql, _ := q(Filter{Year: 2022, MaxSeverity: 3})
		if strings.Contains(sql, "2022") || strings.Contains(sql, "2023") {
			t.Errorf("sql %q contains an interpolated year", sql)
		}
	}
}

func TestTopRoadTypesSQL_limitIsBound(t *testing.T) {
	sql, args := TopRoadTypesSQL(Filter{MaxSeverity: 3}, 10)

	if !strings.Contains(sql, "LIMIT $2") {
		t.Fatalf("sql = %q, want bound limit after severity arg", sql)
	}
	if len(args) != 2 || args[1] != 10 {
		t.Fatalf("args = %v, want severity then limit", args)
	}
	if !strings.Contains(sql, "ORDER BY cnt DESC NULLS LAST") {
		t.Errorf("sql = %q, want NULLS LAST ordering", sql)
	}
}

func TestPointsSQL_alwaysRequiresCoordinates(t *testing.T) {
	sql, args := PointsSQL(Filter{}, 5000)

	if !strings.Contains(sql, "latitude IS NOT NULL AND longitude IS NOT NULL") {
		t.Fatalf("sql = %q, want coordinate guards", sql)
	}
	if !strings.Contains(sql, "LIMIT $1") {
		t.Fatalf("sql = %q, want bound limit", sql)
	}
	if len(args) != 1 || args[0] != 5000 {
		t.Fatalf("args = %v, want [5000]", args)
	}
}

// captureQuerier records the query it was handed and fails it, so Reader
// plumbing can be asserted without a live database.
type captureQuerier struct {
	sql  string
	args []any
}

func (c *captureQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.sql = sql
	c.args = args
	return nil, errors.New("capture only")
}

func TestReader_passesBoundArgs(t *testing.T) {
	q := &captureQuerier{}
	r := NewReader(q)

	_, err := r.KPIs(context.Background(), Filter{Year: 2020})
	if err == nil {
		t.Fatal("expected capture error")
	}
	wantSQL, wantArgs := KPIsSQL(Filter{Year: 2020})
	if q.sql != wantSQL {
		t.Errorf("query sql = %q, want %q", q.sql, wantSQL)
	}
	if len(q.args) != len(wantArgs) {
		t.Errorf("query args = %v, want %v", q.args, wantArgs)
	}
}
