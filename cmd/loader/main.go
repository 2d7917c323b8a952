// Command loader ingests UK road-collision CSV extracts into the Postgres
// accidents table. It ensures the destination schema, then streams every
// file matching the configured glob in chunks, staging and merging each
// chunk in its own transaction.
//
// Connection parameters and tunables come from the environment (DB_HOST,
// DB_PORT, DB_NAME, DB_USER, DB_PASS, DATA_GLOB, CHUNK_SIZE) with CLI-flag
// overrides; see -help.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"ukdata/internal/config"
	"ukdata/internal/ingest"
	"ukdata/internal/metrics"
	"ukdata/internal/metrics/prompush"
	"ukdata/internal/storage/postgres"
)

func main() {
	var (
		metricsBackendFlg string
		pushGatewayURLFlg string
	)

	// Merge a local .env into the environment before flags seed from it.
	_ = godotenv.Load()

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, none)")
	fs.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")

	cfg, err := config.LoadFromArgs(fs, os.Getenv, os.Args[1:])
	if err != nil {
		fatalf("config: %v", err)
	}

	// Decide metrics backend: flag, then env, then default (disabled).
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend("collision_loader", gwURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; metrics disabled", err)
		} else {
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}
	case "", "none":
		// metrics disabled; nop backend remains
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	repo, closeRepo, err := postgres.NewRepository(ctx, cfg.DSN())
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer closeRepo()

	schemaStart := time.Now()
	err = repo.EnsureSchema(ctx)
	metrics.RecordStep("ensure_schema", err, time.Since(schemaStart))
	if err != nil {
		fatalf("schema: %v", err)
	}

	sum, err := ingest.Run(ctx, repo, ingest.Options{
		Glob:      cfg.DataGlob,
		ChunkSize: cfg.ChunkSize,
	})
	if err != nil {
		fatalf("ingest: %v", err)
	}

	log.Printf("done in %s: %d files, %d rows processed, %d inserted",
		time.Since(start).Truncate(time.Millisecond), sum.Files, sum.Processed, sum.Inserted)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
