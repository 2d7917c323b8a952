// Package ingest orchestrates a full load run: discover input files, stream
// each one in chunks, normalize and dedupe every chunk, and stage-merge it
// into the warehouse. The run is deliberately single-threaded (one file at a
// time, one chunk at a time, with no overlap between chunk I/O and database
// writes) so each chunk's transaction is both the unit of atomicity and the
// unit of failure.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ukdata/internal/metrics"
	"ukdata/internal/normalize"
	csvparser "ukdata/internal/parser/csv"
)

// Repo is the warehouse surface the driver writes to. Satisfied by
// *postgres.Repository; tests supply a fake.
type Repo interface {
	StageAndMerge(ctx context.Context, columns []string, rows [][]any) (int64, error)
}

// Options configures one load run.
type Options struct {
	// Glob is the filesystem pattern for input CSV extracts.
	Glob string

	// ChunkSize is the number of rows per staged transaction.
	ChunkSize int
}

// Summary aggregates the counts of one load run. Processed is pre-dedupe;
// Inserted is what actually landed after every conflict skip.
type Summary struct {
	Files       int
	Processed   int64
	Inserted    int64
	DupExact    int64
	DupConflict int64
	Chunks      int64
}

// Run executes a full load over every file matching opt.Glob, in
// lexicographic order. Zero matching files is a successful empty run. Any
// chunk transaction failure aborts the run; chunks committed before the
// failure stay committed, and re-running the same file set is safe because
// ingestion is idempotent.
func Run(ctx context.Context, repo Repo, opt Options) (Summary, error) {
	var sum Summary

	files, err := filepath.Glob(opt.Glob)
	if err != nil {
		return sum, fmt.Errorf("bad glob %q: %w", opt.Glob, err)
	}
	sort.Strings(files)

	if len(files) == 0 {
		log.Printf("no files found under %s", opt.Glob)
		return sum, nil
	}

	for _, path := range files {
		start := time.Now()
		err := loadFile(ctx, repo, path, opt.ChunkSize, &sum)
		metrics.RecordStep("load_file", err, time.Since(start))
		if err != nil {
			return sum, fmt.Errorf("load %s: %w", path, err)
		}
		sum.Files++
	}

	log.Printf("load complete: files=%d processed=%d inserted=%d dup_exact=%d dup_conflict=%d chunks=%d",
		sum.Files, sum.Processed, sum.Inserted, sum.DupExact, sum.DupConflict, sum.Chunks)
	return sum, nil
}

// loadFile streams one file chunk by chunk into the warehouse, accumulating
// counts into sum as it goes so partial progress is reported on failure.
func loadFile(ctx context.Context, repo Repo, path string, chunkSize int, sum *Summary) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stream, err := csvparser.NewStream(f, csvparser.Options{
		TrimSpace: true,
		ChunkSize: chunkSize,
	})
	if err != nil {
		return err
	}

	name := filepath.Base(path)
	log.Printf("=== loading %s ===", name)

	var (
		fileRows     int64
		fileInserted int64
		chunkNo      int64
		start        = time.Now()
		lastFlushTS  = start
	)

	for {
		recs, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		accs := normalize.Normalize(recs)
		accs, dup := normalize.Dedup(accs)
		if dup.Conflicts > 0 {
			log.Printf("%s: chunk #%d: %d rows share an accident_index with different content; first occurrence kept", name, chunkNo+1, dup.Conflicts)
		}

		rows := make([][]any, len(accs))
		for i := range accs {
			rows[i] = accs[i].Row()
		}

		n, err := repo.StageAndMerge(ctx, normalize.Columns, rows)
		if err != nil {
			return err
		}

		chunkNo++
		fileRows += int64(len(recs))
		fileInserted += n
		sum.Processed += int64(len(recs))
		sum.Inserted += n
		sum.DupExact += int64(dup.Exact)
		sum.DupConflict += int64(dup.Conflicts)
		sum.Chunks++

		metrics.RecordRows("processed", int64(len(recs)))
		metrics.RecordRows("dup_exact", int64(dup.Exact))
		metrics.RecordRows("dup_conflict", int64(dup.Conflicts))
		metrics.RecordRows("inserted", n)
		metrics.RecordChunk()

		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(len(recs)) / sinceLast.Seconds()
		}
		log.Printf("%s: chunk #%d: rows=%d inserted=%d file_total=%d rps=%.0f elapsed=%s",
			name, chunkNo, len(recs), n, fileRows, rps, now.Sub(start).Truncate(time.Millisecond))
		lastFlushTS = now
	}

	log.Printf("finished %s: processed=%d inserted=%d (after dedupe) in %s",
		name, fileRows, fileInserted, time.Since(start).Truncate(time.Millisecond))
	return nil
}
