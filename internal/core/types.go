// Package core holds the assembly domain model and the FASTA/AGP loading
// logic. Persistence and object storage are reached through the narrow
// interfaces in store.go; nothing in this package opens a database itself.
package core

import "fmt"

// CoordinateSystem names one level of an assembly hierarchy, e.g.
// ("chromosome", "GRCh38") or ("contig", ""). Rank 1 is the top of the
// hierarchy and only sequence-level systems may carry raw DNA.
type CoordinateSystem struct {
	ID            int64
	Name          string
	Version       string // empty when the system is unversioned
	Rank          int
	Default       bool
	SequenceLevel bool
}

// Validate checks the structural invariants before a create.
func (cs CoordinateSystem) Validate() error {
	if cs.Name == "" {
		return fmt.Errorf("coordinate system name required")
	}
	if cs.Rank < 1 {
		return fmt.Errorf("coordinate system %s: rank must be >= 1, got %d", cs.Name, cs.Rank)
	}
	return nil
}

// Label renders the name plus version for logs and errors.
func (cs CoordinateSystem) Label() string {
	if cs.Version == "" {
		return cs.Name
	}
	return cs.Name + ":" + cs.Version
}

// SeqRegion is a named span of sequence inside one coordinate system.
// Every region built by the loaders is a whole-sequence span: start is 1,
// length mirrors end and the strand is forward.
type SeqRegion struct {
	ID          int64
	Name        string
	Start       int
	End         int
	Length      int
	Strand      int
	CoordSystem CoordinateSystem
}

// NewSeqRegion builds a forward whole-sequence region of the given length.
func NewSeqRegion(name string, length int, cs CoordinateSystem) SeqRegion {
	return SeqRegion{
		Name:        name,
		Start:       1,
		End:         length,
		Length:      length,
		Strand:      1,
		CoordSystem: cs,
	}
}

// Validate checks the region invariants: end >= start >= 1, length = end.
func (r SeqRegion) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("seq region name required")
	}
	if r.Start < 1 {
		return fmt.Errorf("seq region %s: start must be >= 1, got %d", r.Name, r.Start)
	}
	if r.End < r.Start {
		return fmt.Errorf("seq region %s: end %d before start %d", r.Name, r.End, r.Start)
	}
	if r.Length != r.End {
		return fmt.Errorf("seq region %s: length %d does not mirror end %d", r.Name, r.Length, r.End)
	}
	return nil
}

// SearchHit is one alignment reported by a similarity-search job.
// Coordinates are 1-based inclusive; Strand is -1 when the subject
// coordinates arrived reversed.
type SearchHit struct {
	ID          int64
	QueryName   string
	TargetName  string
	QueryStart  int
	QueryEnd    int
	TargetStart int
	TargetEnd   int
	Strand      int
	Identity    float64
	EValue      float64
	Score       float64
}
