// Package fasta provides a streaming FASTA reader for whole-record loads.
// Parsing stays deliberately simple: headers start with '>', sequence lines
// are concatenated, blank lines are ignored.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is one FASTA entry. ID is the first whitespace-delimited token of
// the header; Description carries the remainder, if any.
type Record struct {
	ID          string
	Description string
	Seq         []byte
}

// maxLine allows very long single-line sequences (64 MiB).
const maxLine = 64 * 1024 * 1024

// Walk parses FASTA from r and calls fn once per complete record, in file
// order. A non-nil error from fn aborts the walk and is returned as-is.
func Walk(r io.Reader, fn func(Record) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)

	var (
		cur     Record
		started bool
	)
	flush := func() error {
		if !started {
			return nil
		}
		return fn(cur)
	}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimRight(sc.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return err
			}
			id, desc := splitHeader(string(line[1:]))
			cur = Record{ID: id, Description: desc}
			started = true
			continue
		}
		if !started {
			return fmt.Errorf("fasta: line %d: sequence data before first header", lineNo)
		}
		cur.Seq = append(cur.Seq, line...)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("fasta: scan: %w", err)
	}
	return flush()
}

// ReadAll collects every record from r.
func ReadAll(r io.Reader) ([]Record, error) {
	var records []Record
	err := Walk(r, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	return records, err
}

// WalkFile opens path (gzip and "-" for stdin supported) and walks it.
func WalkFile(path string, fn func(Record) error) error {
	rc, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	return Walk(rc, fn)
}

// Open returns a reader for path, transparently decompressing gzip input.
// Gzip is detected by the 1F 8B magic bytes or a .gz suffix; "-" reads
// stdin.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var sig [2]byte
	n, _ := fh.Read(sig[:])
	if _, err := fh.Seek(0, io.SeekStart); err != nil {
		_ = fh.Close()
		return nil, err
	}
	if (n == 2 && sig[0] == 0x1f && sig[1] == 0x8b) || strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			_ = fh.Close()
			return nil, err
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	return fh, nil
}

func splitHeader(header string) (id, desc string) {
	header = strings.TrimSpace(header)
	if i := strings.IndexAny(header, " \t"); i >= 0 {
		return header[:i], strings.TrimSpace(header[i+1:])
	}
	return header, ""
}

type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
