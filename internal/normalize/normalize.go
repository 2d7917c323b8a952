// Package normalize turns raw collision CSV rows into typed accident records
// ready for a staged bulk load.
//
// Normalization is strictly best-effort at field level: a value that fails to
// parse becomes NULL, the row itself is never dropped and never produces an
// error. The complete source row is serialized into a raw JSON payload
// *before* any column is projected away, so the audit payload is whole even
// when every typed coercion fails.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"ukdata/pkg/records"
)

// Source data conventions for the DfT collision extracts.
const (
	dateLayout = "02/01/2006" // day-first calendar dates
	timeLayout = "15:04"      // 24-hour clock
)

// columnMap enumerates the known source columns and their destination names.
// Source columns not listed here are dropped from the typed projection but
// survive in the raw payload.
var columnMap = []struct{ src, dst string }{
	{"accident_index", "accident_index"},
	{"date", "accident_date"},
	{"time", "accident_time"},
	{"latitude", "latitude"},
	{"longitude", "longitude"},
	{"accident_severity", "severity"},
	{"number_of_casualties", "number_of_casualties"},
	{"number_of_vehicles", "number_of_vehicles"},
	{"road_type", "road_type"},
	{"speed_limit", "speed_limit"},
	{"weather_conditions", "weather"},
	{"light_conditions", "light_conditions"},
	{"urban_or_rural_area", "urban_or_rural"},
}

// Columns is the ordered destination column list used for COPY and the
// staged merge. The raw payload column comes last.
var Columns = func() []string {
	out := make([]string, 0, len(columnMap)+1)
	for _, m := range columnMap {
		out = append(out, m.dst)
	}
	return append(out, "raw_json")
}()

// Accident is one typed destination row. Nullable fields are pointers; nil
// maps to SQL NULL.
type Accident struct {
	Index      string
	Date       *time.Time
	Time       *time.Time
	Latitude   *float64
	Longitude  *float64
	Severity   *int16
	Casualties *int16
	Vehicles   *int16
	RoadType   *string
	SpeedLimit *int16
	Weather    *string
	Light      *string
	UrbanRural *string

	// RawJSON is the pre-coercion source row, all columns included, with
	// blank fields rendered as JSON null.
	RawJSON string
}

// Row returns the COPY row aligned with Columns. Time-of-day is encoded as a
// pgtype.Time so the binary COPY path hits the TIME column type directly.
func (a *Accident) Row() []any {
	return []any{
		a.Index,
		a.Date,
		timeOfDay(a.Time),
		a.Latitude,
		a.Longitude,
		a.Severity,
		a.Casualties,
		a.Vehicles,
		a.RoadType,
		a.SpeedLimit,
		a.Weather,
		a.Light,
		a.UrbanRural,
		a.RawJSON,
	}
}

// Normalize transforms one chunk of raw rows into typed accident rows. The
// output always has exactly one entry per input record.
func Normalize(recs []records.Record) []Accident {
	out := make([]Accident, 0, len(recs))
	for _, rec := range recs {
		out = append(out, normalizeOne(rec))
	}
	return out
}

func normalizeOne(rec records.Record) Accident {
	a := Accident{RawJSON: rawPayload(rec)}

	a.Index = rec["accident_index"]
	a.Date = parseDate(rec["date"])
	a.Time = parseTime(rec["time"])
	a.Latitude = parseFloat(rec["latitude"])
	a.Longitude = parseFloat(rec["longitude"])
	a.Severity = parseSmallInt(rec["accident_severity"])
	a.Casualties = parseSmallInt(rec["number_of_casualties"])
	a.Vehicles = parseSmallInt(rec["number_of_vehicles"])
	a.RoadType = nullableText(rec["road_type"])
	a.SpeedLimit = parseSmallInt(rec["speed_limit"])
	a.Weather = nullableText(rec["weather_conditions"])
	a.Light = nullableText(rec["light_conditions"])
	a.UrbanRural = nullableText(rec["urban_or_rural_area"])

	return a
}

// rawPayload serializes every source column, mapped or not, with blank values
// as explicit nulls. Key order is stable (encoding/json sorts map keys).
func rawPayload(rec records.Record) string {
	m := make(map[string]any, len(rec))
	for k, v := range rec {
		if v == "" {
			m[k] = nil
		} else {
			m[k] = v
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		// Unreachable for string maps; keep the row loadable regardless.
		return "{}"
	}
	return string(b)
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func parseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseSmallInt coerces integer-valued strings, accepting the "30.0" style
// the source data occasionally uses for whole numbers.
func parseSmallInt(s string) *int16 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 16); err == nil {
		v := int16(i)
		return &v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int16(f)) {
		return nil
	}
	v := int16(f)
	return &v
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// timeOfDay converts a wall-clock time into the pgtype TIME encoding
// (microseconds since midnight). nil stays nil.
func timeOfDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	us := int64(t.Hour())*int64(time.Hour/time.Microsecond) +
		int64(t.Minute())*int64(time.Minute/time.Microsecond) +
		int64(t.Second())*int64(time.Second/time.Microsecond)
	return pgtype.Time{Microseconds: us, Valid: true}
}
