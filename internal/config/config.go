// Package config centralizes loader configuration. All tunables are sourced
// from command-line flags with environment-variable fallbacks (12-factor
// friendly); flags are defined first so `-help` shows every knob and its
// default. A `.env` file in the working directory is honored when present.
//
// Typical usage:
//
//	cfg, err := config.Load()
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg, err := config.LoadFromArgs(fs, getenv, []string{"-chunk_size=100"})
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all process configuration derived from flags and environment
// variables. All fields are plain values so the struct can be safely copied
// after construction.
type Config struct {
	// DB connection parameters. Defaults match the docker-compose deployment.
	DBHost string // DB_HOST
	DBPort int    // DB_PORT; non-integer values are a startup error
	DBName string // DB_NAME
	DBUser string // DB_USER
	DBPass string // DB_PASS

	// Ingestion tunables.
	DataGlob  string // DATA_GLOB: filesystem glob for input CSV extracts
	ChunkSize int    // CHUNK_SIZE: rows per staged batch/transaction
}

// Load builds a Config from os.Args and the process environment. A .env file
// in the working directory is merged into the environment first; a missing
// file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	return LoadFromArgs(fs, os.Getenv, os.Args[1:])
}

// LoadFromArgs builds a Config by defining flags on fs, wiring each flag to
// an environment-variable fallback via getenv, and then parsing args.
//
// Precedence:
//  1. Environment values seed each flag's default.
//  2. Explicit CLI flags (in args) override the seeded defaults.
//
// DB_PORT is the only value that undergoes coercion beyond plain strings; a
// value that does not parse as an integer fails loading.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Config, error) {
	cfg := &Config{}

	envOrDefault := func(k, d string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return d
	}

	var port string
	fs.StringVar(&cfg.DBHost, "db_host", envOrDefault("DB_HOST", "db"), "DB host")
	fs.StringVar(&port, "db_port", envOrDefault("DB_PORT", "5432"), "DB port")
	fs.StringVar(&cfg.DBName, "db_name", envOrDefault("DB_NAME", "ukdata"), "DB name")
	fs.StringVar(&cfg.DBUser, "db_user", envOrDefault("DB_USER", "postgres"), "DB user")
	fs.StringVar(&cfg.DBPass, "db_pass", envOrDefault("DB_PASS", "postgres"), "DB password")

	fs.StringVar(&cfg.DataGlob, "data_glob", envOrDefault("DATA_GLOB", "data/collisions_*.csv"), "Glob pattern for input CSV files")

	var chunk string
	fs.StringVar(&chunk, "chunk_size", envOrDefault("CHUNK_SIZE", "50000"), "Rows per staged batch")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid DB port %q: %w", port, err)
	}
	cfg.DBPort = p

	n, err := strconv.Atoi(chunk)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("invalid chunk size %q", chunk)
	}
	cfg.ChunkSize = n

	return cfg, nil
}

// DSN renders the pgx connection URL for the configured database.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}
