package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// NameMap maps a sequence accession to the display name a region should be
// stored under.
type NameMap map[string]string

// LoadNameMap reads a whitespace-separated mapping file. Column order is
// inherited from the pipeline's existing files: the second field is the
// accession key and the first field the display name.
func LoadNameMap(r io.Reader) (NameMap, error) {
	m := make(NameMap)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("name map line %d: want at least 2 fields, got %d", line, len(fields))
		}
		m[fields[1]] = fields[0]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read name map: %w", err)
	}
	return m, nil
}

// LoadNameMapFile loads a NameMap from disk.
func LoadNameMapFile(path string) (NameMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open name map: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadNameMap(f)
}

// NameResolver turns raw sequence identifiers into region names. An
// accession-map hit wins over the pattern; with neither configured the raw
// identifier passes through unchanged.
type NameResolver struct {
	Pattern *regexp.Regexp // optional; first capture group is the name
	Names   NameMap        // optional accession -> display name
	Log     Logger         // optional; reports pattern-derived names
}

// Resolve maps id to its region name. A configured pattern that does not
// match, or matches without a capture group, is a hard error: failing the
// run beats storing thousands of regions under mislabeled names.
func (nr *NameResolver) Resolve(id string) (string, error) {
	if nr.Names != nil {
		if name, ok := nr.Names[id]; ok {
			return name, nil
		}
	}
	if nr.Pattern != nil {
		m := nr.Pattern.FindStringSubmatch(id)
		if len(m) < 2 || m[1] == "" {
			return "", fmt.Errorf("name pattern %q did not capture a name from %q", nr.Pattern.String(), id)
		}
		if nr.Log != nil {
			nr.Log.Info("resolved region name from pattern", "id", id, "name", m[1])
		}
		return m[1], nil
	}
	return id, nil
}

// TrimChrPrefix strips the conventional "chr" prefix from AGP object names
// so that "chr5" and "5" resolve to the same accession.
func TrimChrPrefix(name string) string {
	return strings.TrimPrefix(name, "chr")
}
