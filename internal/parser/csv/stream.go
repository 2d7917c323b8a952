// Package csv implements a streaming, chunked CSV reader for the collision
// extracts. It never buffers a whole file: rows are surfaced in fixed-size
// chunks of raw string records keyed by the header row, leaving all typing to
// the normalizer.
//
// Input is decoded as UTF-8 with tolerance for a leading byte-order mark,
// which the government extracts sometimes carry. Structural corruption (bad
// quoting, ragged row width, unreadable encoding) surfaces as a read error;
// field-level garbage is not the reader's concern.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"ukdata/pkg/records"
)

// DefaultChunkSize is used when Options.ChunkSize is zero.
const DefaultChunkSize = 50000

// Options configures the reader. All fields are optional; sensible defaults
// are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from header names and values.
	TrimSpace bool

	// HeaderMap maps source header names to canonical keys. Unmapped headers
	// keep their original (trimmed) name.
	HeaderMap map[string]string

	// ChunkSize is the maximum number of rows returned per Next call.
	ChunkSize int
}

// Stream reads one CSV input chunk by chunk. It is not safe for concurrent
// use.
type Stream struct {
	cr      *csv.Reader
	opt     Options
	headers []string
	rows    int64
}

// NewStream wraps r with a BOM-tolerant UTF-8 decoder, reads the header row,
// and returns a Stream positioned at the first data row.
func NewStream(r io.Reader, opt Options) (*Stream, error) {
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = DefaultChunkSize
	}

	cr := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}

	h, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	headers := make([]string, len(h))
	for i, raw := range h {
		name := strings.TrimSpace(raw)
		if mapped, ok := opt.HeaderMap[name]; ok && mapped != "" {
			name = mapped
		}
		headers[i] = name
	}

	return &Stream{cr: cr, opt: opt, headers: headers}, nil
}

// Headers returns the canonical column names in file order.
func (s *Stream) Headers() []string { return s.headers }

// Rows returns the number of data rows surfaced so far.
func (s *Stream) Rows() int64 { return s.rows }

// Next returns the next chunk of up to ChunkSize records. It returns io.EOF
// (with no records) once the input is exhausted. Any other error means the
// file is structurally corrupt and the chunk must not be used.
func (s *Stream) Next() ([]records.Record, error) {
	out := make([]records.Record, 0, s.opt.ChunkSize)
	for len(out) < s.opt.ChunkSize {
		row, err := s.cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		rec := make(records.Record, len(s.headers))
		for i, val := range row {
			if s.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, s.headers)] = val
		}
		out = append(out, rec)
		s.rows++
	}

	if len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}
