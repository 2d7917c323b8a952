package normalize

import "github.com/zeebo/xxh3"

// DedupStats reports what an intra-chunk dedupe pass skipped. Exact counts
// rows whose raw payload hash matched the kept row; Conflicts counts rows
// that shared a natural key but carried different content. The destination
// table's primary-key conflict rule would silently fold both kinds together,
// so the split exists purely for the audit trail.
type DedupStats struct {
	Exact     int
	Conflicts int
}

// Dedup collapses duplicate natural keys within one chunk, keeping the first
// occurrence of each accident index (the same winner the database's
// ON CONFLICT DO NOTHING would pick across chunks). Input order is preserved.
//
// Deduping before COPY keeps the staged batch minimal; the primary key
// remains the backstop for duplicates that span chunks or files.
func Dedup(in []Accident) ([]Accident, DedupStats) {
	var stats DedupStats
	if len(in) == 0 {
		return in, stats
	}

	seen := make(map[string]uint64, len(in))
	out := in[:0]
	for _, a := range in {
		h := xxh3.HashString(a.RawJSON)
		prev, dup := seen[a.Index]
		if !dup {
			seen[a.Index] = h
			out = append(out, a)
			continue
		}
		if prev == h {
			stats.Exact++
		} else {
			stats.Conflicts++
		}
	}
	return out, stats
}
