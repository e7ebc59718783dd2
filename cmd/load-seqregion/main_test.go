package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validOptions() *options {
	return &options{
		fastaPath: "genome.fa",
		csName:    "chromosome",
		csVersion: "GRCh38",
		rank:      1,
		driver:    "memory",
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*options)
		want   string
	}{
		{"no input", func(o *options) { o.fastaPath = "" }, "one of -fasta or -agp"},
		{"both inputs", func(o *options) { o.agpPath = "tiling.agp" }, "mutually exclusive"},
		{"agp with sequence level", func(o *options) {
			o.fastaPath = ""
			o.agpPath = "tiling.agp"
			o.sequenceLevel = true
		}, "carries no sequence"},
		{"missing coord system", func(o *options) { o.csName = "" }, "-coord-system is required"},
		{"zero rank", func(o *options) { o.rank = 0 }, "-rank must be >= 1"},
		{"postgres needs dsn", func(o *options) { o.driver = "postgres" }, "-db DSN is required"},
		{"unknown driver", func(o *options) { o.driver = "oracle" }, "unknown -db-driver"},
		{"bad regex", func(o *options) { o.nameRegex = "([" }, "-name-regex"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := validOptions()
			tc.mutate(opts)
			err := validate(opts)
			if err == nil {
				t.Fatalf("want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}

	if err := validate(validOptions()); err != nil {
		t.Fatalf("valid options rejected: %v", err)
	}
	agp := validOptions()
	agp.fastaPath = ""
	agp.agpPath = "tiling.agp"
	if err := validate(agp); err != nil {
		t.Fatalf("valid agp options rejected: %v", err)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunFastaIntoMemoryStore(t *testing.T) {
	opts := validOptions()
	opts.fastaPath = writeTempFile(t, "genome.fa", ">chr1 test\nACGT\nACGT\n>chr2\nNNNN\n")
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunReportsAmbiguousSequences(t *testing.T) {
	opts := validOptions()
	opts.fastaPath = writeTempFile(t, "genome.fa", ">chr1\nACGTRY\n")
	opts.sequenceLevel = true
	err := run(context.Background(), opts)
	if err == nil {
		t.Fatalf("ambiguous bases must surface at the end of the run")
	}
	if !strings.Contains(err.Error(), "non-ACGTN") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunAgpIntoMemoryStore(t *testing.T) {
	opts := validOptions()
	opts.fastaPath = ""
	opts.agpPath = writeTempFile(t, "tiling.agp",
		"# assembly tiling\nchr1\t1\t615\t1\tF\tAC001.1\t1\t615\t+\nchr1\t616\t1000\t2\tN\t385\tcontig\tno\n")
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunSqliteEndToEnd(t *testing.T) {
	opts := validOptions()
	opts.driver = "sqlite"
	opts.dsn = filepath.Join(t.TempDir(), "assembly.db")
	opts.fastaPath = writeTempFile(t, "genome.fa", ">ctg1\nACGTACGT\n")
	opts.sequenceLevel = true
	if err := run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	// A second run resolves the same coordinate system but trips the
	// duplicate region constraint.
	if err := run(context.Background(), opts); err == nil {
		t.Fatalf("reloading the same regions must fail on the unique constraint")
	}
}
