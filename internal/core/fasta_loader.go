package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"genomecore/internal/fasta"
)

// FastaLoader stores one whole-sequence region per FASTA record.
type FastaLoader struct {
	Regions       RegionStore
	Names         *NameResolver
	CoordSystem   CoordinateSystem
	StoreSequence bool
	Log           Logger
	Metrics       MetricsRecorder
}

// Load walks every record of r in file order and persists a region per
// record. With StoreSequence set, each sequence is scanned for characters
// outside {A,C,G,T,N} (either case); offending records are counted and
// warned about but still stored, so one dirty record never hides the rest.
// The returned count is the number of ambiguous records; callers decide
// whether a nonzero count fails the run once the whole file is processed.
func (l *FastaLoader) Load(ctx context.Context, r io.Reader) (ambiguous int, err error) {
	if err := l.check(); err != nil {
		return 0, err
	}
	log, metrics := l.log(), l.metrics()
	start := time.Now()
	defer func() { metrics.ObserveDuration("fasta_load", time.Since(start)) }()

	err = fasta.Walk(r, func(rec fasta.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name, err := l.Names.Resolve(rec.ID)
		if err != nil {
			return err
		}
		if len(rec.Seq) == 0 {
			return fmt.Errorf("fasta record %s: empty sequence", name)
		}
		region := NewSeqRegion(name, len(rec.Seq), l.CoordSystem)
		if !l.StoreSequence {
			if _, err := l.Regions.StoreRegion(ctx, region); err != nil {
				metrics.IncResult("region_store", "error")
				return fmt.Errorf("store region %s: %w", name, err)
			}
			metrics.IncResult("region_store", "ok")
			metrics.IncResult("fasta_record", "ok")
			return nil
		}
		status := "ok"
		if hasAmbiguousBases(rec.Seq) {
			ambiguous++
			status = "ambiguous"
			log.Warn("sequence contains non-ACGTN characters", "region", name)
		}
		if _, err := l.Regions.StoreRegionWithSequence(ctx, region, rec.Seq); err != nil {
			metrics.IncResult("region_store", "error")
			return fmt.Errorf("store region %s: %w", name, err)
		}
		metrics.IncResult("region_store", "ok")
		metrics.IncResult("fasta_record", status)
		return nil
	})
	if err != nil {
		return ambiguous, err
	}
	return ambiguous, nil
}

func (l *FastaLoader) check() error {
	if l.Regions == nil {
		return fmt.Errorf("fasta loader: region store required")
	}
	if l.Names == nil {
		return fmt.Errorf("fasta loader: name resolver required")
	}
	if l.StoreSequence && !l.CoordSystem.SequenceLevel {
		return fmt.Errorf("fasta loader: coordinate system %s is not sequence-level, cannot store sequence", l.CoordSystem.Label())
	}
	return nil
}

func (l *FastaLoader) log() Logger {
	if l.Log != nil {
		return l.Log
	}
	return NopLogger{}
}

func (l *FastaLoader) metrics() MetricsRecorder {
	if l.Metrics != nil {
		return l.Metrics
	}
	return NopMetrics{}
}

// hasAmbiguousBases reports whether seq contains any character outside the
// unambiguous DNA alphabet plus N, in either case.
func hasAmbiguousBases(seq []byte) bool {
	for _, b := range seq {
		switch b {
		case 'A', 'C', 'G', 'T', 'N', 'a', 'c', 'g', 't', 'n':
		default:
			return true
		}
	}
	return false
}
