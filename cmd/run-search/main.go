// Command run-search executes one similarity-search job against a target
// database and persists the hits, optionally archiving the raw report to
// blob storage.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genomecore/internal/blob"
	"genomecore/internal/core"
	"genomecore/internal/infra/persistence/memory"
	"genomecore/internal/infra/persistence/postgres"
	"genomecore/internal/infra/persistence/sqlite"
	"genomecore/internal/search"
)

type options struct {
	binary      string
	database    string
	query       string
	configPath  string
	driver      string
	dsn         string
	archive     bool
	metricsAddr string
	verbose     bool
}

var exitFunc = os.Exit

func main() {
	fs := flag.NewFlagSet("run-search", flag.ExitOnError)
	opts := bindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if err := validate(opts); err != nil {
		fmt.Fprintf(os.Stderr, "run-search: %v\n\n", err)
		fs.Usage()
		exitFunc(2)
		return
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "run-search: %v\n", err)
		exitFunc(1)
	}
}

func bindFlags(fs *flag.FlagSet) *options {
	opts := &options{}
	fs.StringVar(&opts.binary, "binary", "blastn", "search binary to invoke")
	fs.StringVar(&opts.database, "target", "", "target database name (required)")
	fs.StringVar(&opts.query, "query", "", "query FASTA file (required)")
	fs.StringVar(&opts.configPath, "config", "", "per-database search parameter file")
	fs.StringVar(&opts.driver, "db-driver", "sqlite", "hit store driver: sqlite|postgres|memory")
	fs.StringVar(&opts.dsn, "db", "", "database path (sqlite) or DSN (postgres)")
	fs.BoolVar(&opts.archive, "archive", false, "archive the raw report to blob storage (GENOMECORE_BLOB_* env)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "optional address to serve /metrics on")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	return opts
}

func validate(opts *options) error {
	if opts.database == "" {
		return fmt.Errorf("-target is required")
	}
	if opts.query == "" {
		return fmt.Errorf("-query is required")
	}
	switch opts.driver {
	case "sqlite", "memory":
	case "postgres":
		if opts.dsn == "" {
			return fmt.Errorf("-db DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown -db-driver %q", opts.driver)
	}
	return nil
}

func openHitStore(ctx context.Context, opts *options) (core.HitStore, func(), error) {
	switch opts.driver {
	case "memory":
		return memory.NewStore(), func() {}, nil
	case "sqlite":
		st, err := sqlite.NewStore(opts.dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case "postgres":
		st, err := postgres.NewStore(ctx, opts.dsn)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown driver %q", opts.driver)
}

func run(ctx context.Context, opts *options) error {
	logger := core.NewStdLogger(log.New(os.Stderr, "", log.LstdFlags), opts.verbose)

	var metrics core.MetricsRecorder = core.NopMetrics{}
	if opts.metricsAddr != "" {
		metrics = core.NewPrometheusMetrics(nil)
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(opts.metricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "err", err)
			}
		}()
	}

	var cfg *search.Config
	if opts.configPath != "" {
		var err error
		cfg, err = search.LoadConfigFile(opts.configPath)
		if err != nil {
			return err
		}
	}

	hits, closeStore, err := openHitStore(ctx, opts)
	if err != nil {
		return err
	}
	defer closeStore()

	var archive blob.Store
	if opts.archive {
		archive, err = blob.Open(ctx)
		if err != nil {
			return err
		}
	}

	job := &search.Job{
		Binary:   opts.binary,
		Database: opts.database,
		Query:    opts.query,
		Params:   cfg.Params(opts.database),
		Hits:     hits,
		Archive:  archive,
		Log:      logger,
		Metrics:  metrics,
	}
	if err := job.Run(ctx); err != nil {
		return err
	}
	logger.Info("job complete", "hits", len(job.Output()))
	return nil
}
