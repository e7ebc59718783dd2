// Package search runs external sequence-similarity jobs and persists their
// hits. Per-database search parameters are explicit configuration loaded
// once and passed by reference, never process-wide state.
package search

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DatabaseParams tunes one target database.
type DatabaseParams struct {
	Ungapped bool // run without gapped extension
	Unmasked bool // disable low-complexity masking
}

// Config maps target database names to their parameters. Databases absent
// from the file get the zero-value defaults.
type Config struct {
	byDatabase map[string]DatabaseParams
}

// Params returns the parameters for db, zero-valued when unconfigured.
func (c *Config) Params(db string) DatabaseParams {
	if c == nil {
		return DatabaseParams{}
	}
	return c.byDatabase[db]
}

// Databases returns how many databases are configured.
func (c *Config) Databases() int {
	if c == nil {
		return 0
	}
	return len(c.byDatabase)
}

// LoadConfig parses a parameter file. Each non-comment line is a database
// name followed by key=value pairs, e.g.
//
//	embl_vertrna ungapped=true unmasked=true
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := &Config{byDatabase: make(map[string]DatabaseParams)}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		db := fields[0]
		var params DatabaseParams
		for _, kv := range fields[1:] {
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				return nil, fmt.Errorf("search config line %d: %q is not key=value", line, kv)
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("search config line %d: %s: %w", line, key, err)
			}
			switch key {
			case "ungapped":
				params.Ungapped = b
			case "unmasked":
				params.Unmasked = b
			default:
				return nil, fmt.Errorf("search config line %d: unknown key %q", line, key)
			}
		}
		if _, dup := cfg.byDatabase[db]; dup {
			return nil, fmt.Errorf("search config line %d: duplicate database %q", line, db)
		}
		cfg.byDatabase[db] = params
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read search config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile loads a Config from disk.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open search config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadConfig(f)
}
