// Package report generates the read-side SQL consumed by the dashboard. All
// filter values are bound parameters; no user-facing value is ever
// interpolated into the query text.
//
// The year filter renders a closed-open date range (>= Jan 1 of the year,
// < Jan 1 of the next) so the date index stays usable and year boundaries
// are unambiguous.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Filter narrows dashboard queries. Zero values mean "no filter".
type Filter struct {
	// Year selects a single calendar year of collisions. 0 selects all.
	Year int

	// MaxSeverity keeps rows with severity <= MaxSeverity (1=fatal …
	// 3=slight). 0 disables the threshold.
	MaxSeverity int
}

// clause renders the WHERE conditions for f, appending to any pre-existing
// conditions in conds and parameter values in args. Placeholders continue
// numbering from len(args).
func (f Filter) clause(conds []string, args []any) ([]string, []any) {
	if f.Year != 0 {
		start := time.Date(f.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(1, 0, 0)
		conds = append(conds, fmt.Sprintf("accident_date >= $%d AND accident_date < $%d", len(args)+1, len(args)+2))
		args = append(args, start, end)
	}
	if f.MaxSeverity != 0 {
		conds = append(conds, fmt.Sprintf("severity <= $%d", len(args)+1))
		args = append(args, f.MaxSeverity)
	}
	return conds, args
}

func whereSQL(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return "\nWHERE " + strings.Join(conds, " AND ")
}

// KPIsSQL returns the headline aggregate query: total collisions and average
// casualty/vehicle counts under the filter.
func KPIsSQL(f Filter) (string, []any) {
	conds, args := f.clause(nil, nil)
	return `SELECT
  COUNT(*)::BIGINT,
  COALESCE(AVG(number_of_casualties), 0)::FLOAT8,
  COALESCE(AVG(number_of_vehicles), 0)::FLOAT8
FROM accidents` + whereSQL(conds), args
}

// MonthlyTrendSQL returns collision counts bucketed by calendar month.
func MonthlyTrendSQL(f Filter) (string, []any) {
	conds, args := f.clause(nil, nil)
	return `SELECT DATE_TRUNC('month', accident_date), COUNT(*)::BIGINT
FROM accidents` + whereSQL(conds) + `
GROUP BY 1
ORDER BY 1`, args
}

// TopRoadTypesSQL returns the most frequent road types under the filter.
func TopRoadTypesSQL(f Filter, limit int) (string, []any) {
	conds, args := f.clause(nil, nil)
	sql := `SELECT road_type, COUNT(*)::BIGINT AS cnt
FROM accidents` + whereSQL(conds) + fmt.Sprintf(`
GROUP BY road_type
ORDER BY cnt DESC NULLS LAST
LIMIT $%d`, len(args)+1)
	return sql, append(args, limit)
}

// PointsSQL returns a bounded sample of geolocated collisions for the map.
func PointsSQL(f Filter, limit int) (string, []any) {
	conds, args := f.clause(
		[]string{"latitude IS NOT NULL", "longitude IS NOT NULL"}, nil)
	sql := `SELECT latitude, longitude, severity
FROM accidents` + whereSQL(conds) + fmt.Sprintf(`
LIMIT $%d`, len(args)+1)
	return sql, append(args, limit)
}
