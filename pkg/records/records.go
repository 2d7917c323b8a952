// Package records defines the raw row representation shared between the CSV
// reader and the normalizer. Values are kept as opaque strings until the
// normalizer applies typed coercion, so no premature type inference happens
// at parse time.
package records

// Record is one raw CSV row keyed by source column name. A missing key means
// the column was absent from the file entirely; an empty string means the
// field was present but blank.
type Record map[string]string

// Clone returns an independent copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
