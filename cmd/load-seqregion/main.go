// Command load-seqregion loads coordinate systems and sequence regions
// from a FASTA or AGP file into the assembly store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"regexp"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genomecore/internal/core"
	"genomecore/internal/fasta"
	"genomecore/internal/infra/persistence/memory"
	"genomecore/internal/infra/persistence/postgres"
	"genomecore/internal/infra/persistence/sqlite"
)

type options struct {
	fastaPath     string
	agpPath       string
	csName        string
	csVersion     string
	rank          int
	sequenceLevel bool
	defaultCS     bool
	nameRegex     string
	nameFile      string
	driver        string
	dsn           string
	metricsAddr   string
	verbose       bool
}

var exitFunc = os.Exit

func main() {
	fs := flag.NewFlagSet("load-seqregion", flag.ExitOnError)
	opts := bindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	if err := validate(opts); err != nil {
		fmt.Fprintf(os.Stderr, "load-seqregion: %v\n\n", err)
		fs.Usage()
		exitFunc(2)
		return
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "load-seqregion: %v\n", err)
		exitFunc(1)
	}
}

func bindFlags(fs *flag.FlagSet) *options {
	opts := &options{}
	fs.StringVar(&opts.fastaPath, "fasta", "", "FASTA input file ('-' for stdin, .gz supported)")
	fs.StringVar(&opts.agpPath, "agp", "", "AGP tiling file")
	fs.StringVar(&opts.csName, "coord-system", "", "coordinate system name (required)")
	fs.StringVar(&opts.csVersion, "version", "", "coordinate system version")
	fs.IntVar(&opts.rank, "rank", 0, "coordinate system rank, 1 is the top of the assembly (required)")
	fs.BoolVar(&opts.sequenceLevel, "sequence-level", false, "mark the coordinate system sequence-level and store raw DNA (FASTA only)")
	fs.BoolVar(&opts.defaultCS, "default", false, "mark the coordinate system as the default version")
	fs.StringVar(&opts.nameRegex, "name-regex", "", "pattern whose first capture group extracts region names from identifiers")
	fs.StringVar(&opts.nameFile, "name-file", "", "two-column accession/name mapping file")
	fs.StringVar(&opts.driver, "db-driver", "sqlite", "database driver: sqlite|postgres|memory")
	fs.StringVar(&opts.dsn, "db", "", "database path (sqlite) or DSN (postgres)")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "optional address to serve /metrics on during the load")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	return opts
}

// validate rejects bad configurations before any store is opened.
func validate(opts *options) error {
	switch {
	case opts.fastaPath == "" && opts.agpPath == "":
		return fmt.Errorf("one of -fasta or -agp is required")
	case opts.fastaPath != "" && opts.agpPath != "":
		return fmt.Errorf("-fasta and -agp are mutually exclusive")
	}
	if opts.agpPath != "" && opts.sequenceLevel {
		return fmt.Errorf("-agp cannot be combined with -sequence-level: AGP input carries no sequence")
	}
	if opts.csName == "" {
		return fmt.Errorf("-coord-system is required")
	}
	if opts.rank < 1 {
		return fmt.Errorf("-rank must be >= 1")
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
	if opts.nameRegex != "" {
		if _, err := regexp.Compile(opts.nameRegex); err != nil {
			return fmt.Errorf("-name-regex: %w", err)
		}
	}
	return nil
}

type assemblyStore interface {
	core.CoordSystemStore
	core.RegionStore
}

func openStore(ctx context.Context, opts *options) (assemblyStore, func(), error) {
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

	resolver := &core.NameResolver{Log: logger}
	if opts.nameRegex != "" {
		resolver.Pattern = regexp.MustCompile(opts.nameRegex)
	}
	if opts.nameFile != "" {
		names, err := core.LoadNameMapFile(opts.nameFile)
		if err != nil {
			return err
		}
		resolver.Names = names
	}

	store, closeStore, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer closeStore()

	cs, err := core.ResolveCoordSystem(ctx, store, core.CoordinateSystem{
		Name:          opts.csName,
		Version:       opts.csVersion,
		Rank:          opts.rank,
		Default:       opts.defaultCS,
		SequenceLevel: opts.sequenceLevel,
	})
	if err != nil {
		return err
	}
	logger.Info("using coordinate system", "name", cs.Label(), "rank", cs.Rank, "id", cs.ID)

	if opts.agpPath != "" {
		loader := &core.AGPLoader{Regions: store, Names: resolver, CoordSystem: cs, Log: logger, Metrics: metrics}
		f, err := os.Open(opts.agpPath)
		if err != nil {
			return fmt.Errorf("open agp: %w", err)
		}
		defer func() { _ = f.Close() }()
		return loader.Load(ctx, f)
	}

	loader := &core.FastaLoader{
		Regions:       store,
		Names:         resolver,
		CoordSystem:   cs,
		StoreSequence: opts.sequenceLevel,
		Log:           logger,
		Metrics:       metrics,
	}
	rc, err := fasta.Open(opts.fastaPath)
	if err != nil {
		return fmt.Errorf("open fasta: %w", err)
	}
	defer func() { _ = rc.Close() }()
	ambiguous, err := loader.Load(ctx, rc)
	if err != nil {
		return err
	}
	if ambiguous > 0 {
		return fmt.Errorf("%d sequences contained non-ACGTN characters", ambiguous)
	}
	return nil
}
