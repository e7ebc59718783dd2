package search

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"genomecore/internal/blob"
	"genomecore/internal/core"
)

// Runnable is the capability a pipeline step needs to execute a search and
// inspect its results.
type Runnable interface {
	Run(ctx context.Context) error
	Output() []core.SearchHit
}

// Job invokes an external BLAST-like binary against one target database
// and persists the parsed hits. The binary must support tabular output
// (blastn -outfmt 6 column order).
type Job struct {
	Binary    string // e.g. "blastn"
	Database  string
	Query     string // path to the query FASTA
	Params    DatabaseParams
	ExtraArgs []string

	Hits    core.HitStore
	Archive blob.Store // optional raw-report archive
	Log     core.Logger
	Metrics core.MetricsRecorder

	// Now is overridable for deterministic archive keys in tests.
	Now func() time.Time

	hits []core.SearchHit
}

// Compile-time contract assertion.
var _ Runnable = (*Job)(nil)

// Args renders the command line the job will execute.
func (j *Job) Args() []string {
	args := []string{"-db", j.Database, "-query", j.Query, "-outfmt", "6"}
	if j.Params.Ungapped {
		args = append(args, "-ungapped")
	}
	if j.Params.Unmasked {
		args = append(args, "-dust", "no")
	}
	return append(args, j.ExtraArgs...)
}

// Run executes the search, parses its report, archives the raw output when
// an archive store is configured and persists the hits in one batch.
func (j *Job) Run(ctx context.Context) error {
	if err := j.check(); err != nil {
		return err
	}
	log, metrics := j.log(), j.metrics()
	start := time.Now()
	defer func() { metrics.ObserveDuration("search_job", time.Since(start)) }()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, j.Binary, j.Args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	log.Info("running search", "binary", j.Binary, "database", j.Database, "query", j.Query)
	if err := cmd.Run(); err != nil {
		metrics.IncResult("search_job", "error")
		return fmt.Errorf("run %s against %s: %w: %s", j.Binary, j.Database, err, strings.TrimSpace(stderr.String()))
	}

	hits, err := ParseTabular(stdout.Bytes())
	if err != nil {
		metrics.IncResult("search_job", "error")
		return err
	}
	j.hits = hits

	if j.Archive != nil {
		key := j.archiveKey()
		if _, err := j.Archive.Put(ctx, key, bytes.NewReader(stdout.Bytes()), blob.PutOptions{
			ContentType: "text/tab-separated-values",
			Metadata:    map[string]string{"database": j.Database, "query": filepath.Base(j.Query)},
		}); err != nil {
			return fmt.Errorf("archive report %s: %w", key, err)
		}
		log.Debug("archived search report", "key", key)
	}

	if err := j.Hits.StoreHits(ctx, hits); err != nil {
		metrics.IncResult("search_job", "error")
		return fmt.Errorf("store hits: %w", err)
	}
	for range hits {
		metrics.IncResult("search_hit", "ok")
	}
	metrics.IncResult("search_job", "ok")
	log.Info("search finished", "database", j.Database, "hits", len(hits))
	return nil
}

// Output returns the hits parsed by the last Run.
func (j *Job) Output() []core.SearchHit { return j.hits }

func (j *Job) archiveKey() string {
	base := strings.TrimSuffix(filepath.Base(j.Query), filepath.Ext(j.Query))
	stamp := j.now().UTC().Format("20060102T150405Z")
	return fmt.Sprintf("reports/%s/%s-%s.tsv", j.Database, base, stamp)
}

func (j *Job) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Job) check() error {
	if j.Binary == "" {
		return fmt.Errorf("search job: binary required")
	}
	if j.Database == "" {
		return fmt.Errorf("search job: database required")
	}
	if j.Query == "" {
		return fmt.Errorf("search job: query required")
	}
	if j.Hits == nil {
		return fmt.Errorf("search job: hit store required")
	}
	return nil
}

func (j *Job) log() core.Logger {
	if j.Log != nil {
		return j.Log
	}
	return core.NopLogger{}
}

func (j *Job) metrics() core.MetricsRecorder {
	if j.Metrics != nil {
		return j.Metrics
	}
	return core.NopMetrics{}
}

// tabularColumns is the column count of blastn -outfmt 6:
// qseqid sseqid pident length mismatch gapopen qstart qend sstart send
// evalue bitscore.
const tabularColumns = 12

// ParseTabular parses a tabular search report into hits. Subject
// coordinates arriving reversed mark a minus-strand hit and are swapped
// into ascending order.
func ParseTabular(report []byte) ([]core.SearchHit, error) {
	var hits []core.SearchHit
	for i, line := range strings.Split(string(report), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < tabularColumns {
			return nil, fmt.Errorf("search report line %d: want %d columns, got %d", i+1, tabularColumns, len(fields))
		}
		identity, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("search report line %d: identity: %w", i+1, err)
		}
		qstart, err1 := strconv.Atoi(fields[6])
		qend, err2 := strconv.Atoi(fields[7])
		sstart, err3 := strconv.Atoi(fields[8])
		send, err4 := strconv.Atoi(fields[9])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("search report line %d: bad coordinates", i+1)
		}
		evalue, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			return nil, fmt.Errorf("search report line %d: evalue: %w", i+1, err)
		}
		score, err := strconv.ParseFloat(fields[11], 64)
		if err != nil {
			return nil, fmt.Errorf("search report line %d: score: %w", i+1, err)
		}
		strand := 1
		if sstart > send {
			strand = -1
			sstart, send = send, sstart
		}
		hits = append(hits, core.SearchHit{
			QueryName:   fields[0],
			TargetName:  fields[1],
			QueryStart:  qstart,
			QueryEnd:    qend,
			TargetStart: sstart,
			TargetEnd:   send,
			Strand:      strand,
			Identity:    identity,
			EValue:      evalue,
			Score:       score,
		})
	}
	return hits, nil
}
