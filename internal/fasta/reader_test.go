package fasta

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `>chr1 Homo sapiens chromosome 1
ACGT
ACGTN
>scaffold_2
TTTT

>AL627309.15 clone
acgtacgt
`

func TestReadAllParsesRecordsInOrder(t *testing.T) {
	records, err := ReadAll(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want 3 records, got %d", len(records))
	}
	if records[0].ID != "chr1" || records[0].Description != "Homo sapiens chromosome 1" {
		t.Fatalf("unexpected first header %q / %q", records[0].ID, records[0].Description)
	}
	if string(records[0].Seq) != "ACGTACGTN" {
		t.Fatalf("sequence lines not concatenated: %q", records[0].Seq)
	}
	if records[1].ID != "scaffold_2" || records[1].Description != "" {
		t.Fatalf("unexpected second record %+v", records[1])
	}
	if records[2].ID != "AL627309.15" || string(records[2].Seq) != "acgtacgt" {
		t.Fatalf("unexpected third record %+v", records[2])
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	calls := 0
	err := Walk(strings.NewReader(sample), func(Record) error {
		calls++
		if calls == 2 {
			return os.ErrClosed
		}
		return nil
	})
	if err != os.ErrClosed {
		t.Fatalf("want callback error back, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("walk continued after error: %d calls", calls)
	}
}

func TestWalkRejectsSequenceBeforeHeader(t *testing.T) {
	if err := Walk(strings.NewReader("ACGT\n>late\nACGT\n"), func(Record) error { return nil }); err == nil {
		t.Fatalf("expected error for sequence before first header")
	}
}

func TestWalkHandlesCRLF(t *testing.T) {
	records, err := ReadAll(strings.NewReader(">r1\r\nACGT\r\n"))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(records) != 1 || string(records[0].Seq) != "ACGT" {
		t.Fatalf("CRLF not stripped: %+v", records)
	}
}

func TestOpenDetectsGzipByMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.fasta") // no .gz suffix on purpose
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte(">gz1\nACGT\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	var ids []string
	if err := WalkFile(path, func(r Record) error {
		ids = append(ids, r.ID)
		return nil
	}); err != nil {
		t.Fatalf("WalkFile: %v", err)
	}
	if len(ids) != 1 || ids[0] != "gz1" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestOpenPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.fa")
	if err := os.WriteFile(path, []byte(">p1\nAC\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	records := 0
	if err := WalkFile(path, func(Record) error { records++; return nil }); err != nil {
		t.Fatalf("WalkFile: %v", err)
	}
	if records != 1 {
		t.Fatalf("want 1 record, got %d", records)
	}
}
