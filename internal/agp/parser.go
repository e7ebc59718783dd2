// Package agp parses AGP (A Golden Path) tiling files. Only the object
// columns are interpreted; component-specific columns are carried through
// untouched for callers that want them.
package agp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Row is one non-comment AGP line. Line is the 1-based position in the
// input, counting comments, for error reporting.
type Row struct {
	Line          int
	ObjectName    string
	ObjectStart   int
	ObjectEnd     int
	PartNumber    int
	ComponentType string
	Rest          []string
}

// minFields covers object_name..component_type; everything after is
// component-type specific.
const minFields = 5

// Walk reads AGP rows from r and calls fn for each one, in file order.
// Lines starting with '#' and blank lines are skipped. A malformed row
// (too few fields, non-numeric coordinates, end before start) is a hard
// error naming the offending line: a bad row must never reach the caller's
// extent accumulation.
func Walk(r io.Reader, fn func(Row) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		row, err := parseRow(trimmed, lineNo)
		if err != nil {
			return err
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("agp: scan: %w", err)
	}
	return nil
}

// ReadAll collects every row from r.
func ReadAll(r io.Reader) ([]Row, error) {
	var rows []Row
	err := Walk(r, func(row Row) error {
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

func parseRow(line string, lineNo int) (Row, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return Row{}, fmt.Errorf("agp: line %d: want at least %d fields, got %d", lineNo, minFields, len(fields))
	}
	start, err := strconv.Atoi(fields[1])
	if err != nil {
		return Row{}, fmt.Errorf("agp: line %d: object_start %q is not a number", lineNo, fields[1])
	}
	end, err := strconv.Atoi(fields[2])
	if err != nil {
		return Row{}, fmt.Errorf("agp: line %d: object_end %q is not a number", lineNo, fields[2])
	}
	part, err := strconv.Atoi(fields[3])
	if err != nil {
		return Row{}, fmt.Errorf("agp: line %d: part_number %q is not a number", lineNo, fields[3])
	}
	if start < 1 || end < start {
		return Row{}, fmt.Errorf("agp: line %d: invalid span %d..%d", lineNo, start, end)
	}
	return Row{
		Line:          lineNo,
		ObjectName:    fields[0],
		ObjectStart:   start,
		ObjectEnd:     end,
		PartNumber:    part,
		ComponentType: fields[4],
		Rest:          fields[5:],
	}, nil
}
