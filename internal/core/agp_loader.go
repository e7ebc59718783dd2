package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"genomecore/internal/agp"
)

// AGPLoader derives one region per assembled object named in an AGP tiling
// file. The extent of an object is the maximum object_end seen across all
// of its rows; rows are not required to arrive in coordinate order.
type AGPLoader struct {
	Regions     RegionStore
	Names       *NameResolver
	CoordSystem CoordinateSystem
	Log         Logger
	Metrics     MetricsRecorder
}

// Load consumes all AGP rows from r, then stores one whole-sequence region
// per resolved object name. AGP input carries no sequence, so a
// sequence-level coordinate system is rejected before any row is read.
func (l *AGPLoader) Load(ctx context.Context, r io.Reader) error {
	if err := l.check(); err != nil {
		return err
	}
	metrics := l.metrics()
	start := time.Now()
	defer func() { metrics.ObserveDuration("agp_load", time.Since(start)) }()

	ends := make(map[string]int)
	err := agp.Walk(r, func(row agp.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		accession := TrimChrPrefix(row.ObjectName)
		name, err := l.Names.Resolve(accession)
		if err != nil {
			return fmt.Errorf("agp line %d: %w", row.Line, err)
		}
		if row.ObjectEnd > ends[name] {
			ends[name] = row.ObjectEnd
		}
		metrics.IncResult("agp_row", "ok")
		return nil
	})
	if err != nil {
		return err
	}

	names := make([]string, 0, len(ends))
	for name := range ends {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		region := NewSeqRegion(name, ends[name], l.CoordSystem)
		if _, err := l.Regions.StoreRegion(ctx, region); err != nil {
			metrics.IncResult("region_store", "error")
			return fmt.Errorf("store region %s: %w", name, err)
		}
		metrics.IncResult("region_store", "ok")
	}
	return nil
}

func (l *AGPLoader) check() error {
	if l.Regions == nil {
		return fmt.Errorf("agp loader: region store required")
	}
	if l.Names == nil {
		return fmt.Errorf("agp loader: name resolver required")
	}
	if l.CoordSystem.SequenceLevel {
		return fmt.Errorf("agp loader: coordinate system %s is sequence-level, AGP input carries no sequence", l.CoordSystem.Label())
	}
	return nil
}

func (l *AGPLoader) metrics() MetricsRecorder {
	if l.Metrics != nil {
		return l.Metrics
	}
	return NopMetrics{}
}
