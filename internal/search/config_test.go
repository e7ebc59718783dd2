package search

import (
	"strings"
	"testing"
)

func TestLoadConfigParsesParams(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
# per-database search parameters
embl_vertrna ungapped=true unmasked=true
grch38_cdna unmasked=true

grch38_genomic
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Databases() != 3 {
		t.Fatalf("databases = %d, want 3", cfg.Databases())
	}

	p := cfg.Params("embl_vertrna")
	if !p.Ungapped || !p.Unmasked {
		t.Fatalf("embl_vertrna params = %+v", p)
	}
	p = cfg.Params("grch38_cdna")
	if p.Ungapped || !p.Unmasked {
		t.Fatalf("grch38_cdna params = %+v", p)
	}
	if p := cfg.Params("grch38_genomic"); p.Ungapped || p.Unmasked {
		t.Fatalf("bare database should default to zero params: %+v", p)
	}
	if p := cfg.Params("never_configured"); p.Ungapped || p.Unmasked {
		t.Fatalf("unconfigured database should default to zero params: %+v", p)
	}
}

func TestLoadConfigRejectsMalformedLines(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"not key=value", "db1 ungapped", "line 1"},
		{"bad bool", "db1 ungapped=sometimes", "line 1"},
		{"unknown key", "db1 gapopen=true", "unknown key"},
		{"duplicate database", "db1 ungapped=true\ndb1 unmasked=true", "duplicate database"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(tc.input))
			if err == nil {
				t.Fatalf("want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestNilConfigIsUsable(t *testing.T) {
	var cfg *Config
	if cfg.Databases() != 0 {
		t.Fatalf("nil config should report zero databases")
	}
	if p := cfg.Params("anything"); p.Ungapped || p.Unmasked {
		t.Fatalf("nil config should hand out zero params: %+v", p)
	}
}
