// Package memory provides an in-memory implementation of the core store
// interfaces for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"genomecore/internal/core"
)

// Compile-time contract assertions.
var (
	_ core.CoordSystemStore = (*Store)(nil)
	_ core.RegionStore      = (*Store)(nil)
	_ core.HitStore         = (*Store)(nil)
)

type regionKey struct {
	coordSystemID int64
	name          string
}

// Store keeps coordinate systems, regions, raw DNA and hits in process
// memory. Safe for concurrent use, though the loaders never need that.
type Store struct {
	mu        sync.RWMutex
	nextID    int64
	systems   map[string]core.CoordinateSystem // key: name + "\x00" + version
	regions   map[regionKey]core.SeqRegion
	sequences map[int64][]byte // region ID -> dna
	hits      []core.SearchHit

	storeCalls int
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		systems:   make(map[string]core.CoordinateSystem),
		regions:   make(map[regionKey]core.SeqRegion),
		sequences: make(map[int64][]byte),
	}
}

func systemKey(name, version string) string { return name + "\x00" + version }

// FindCoordSystem looks up a system by name and version.
func (s *Store) FindCoordSystem(_ context.Context, name, version string) (core.CoordinateSystem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.systems[systemKey(name, version)]
	if !ok {
		return core.CoordinateSystem{}, fmt.Errorf("coord system %s %s: %w", name, version, core.ErrNotFound)
	}
	return cs, nil
}

// CreateCoordSystem persists a new system, rejecting duplicates.
func (s *Store) CreateCoordSystem(_ context.Context, cs core.CoordinateSystem) (core.CoordinateSystem, error) {
	if err := cs.Validate(); err != nil {
		return core.CoordinateSystem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := systemKey(cs.Name, cs.Version)
	if _, exists := s.systems[key]; exists {
		return core.CoordinateSystem{}, fmt.Errorf("coord system %s already exists", cs.Label())
	}
	s.nextID++
	cs.ID = s.nextID
	s.systems[key] = cs
	return cs, nil
}

// StoreRegion persists a region without sequence.
func (s *Store) StoreRegion(_ context.Context, region core.SeqRegion) (core.SeqRegion, error) {
	return s.storeRegion(region, nil)
}

// StoreRegionWithSequence persists a region together with its raw DNA.
func (s *Store) StoreRegionWithSequence(_ context.Context, region core.SeqRegion, dna []byte) (core.SeqRegion, error) {
	if len(dna) == 0 {
		return core.SeqRegion{}, fmt.Errorf("region %s: empty sequence", region.Name)
	}
	return s.storeRegion(region, dna)
}

func (s *Store) storeRegion(region core.SeqRegion, dna []byte) (core.SeqRegion, error) {
	if err := region.Validate(); err != nil {
		return core.SeqRegion{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeCalls++
	key := regionKey{coordSystemID: region.CoordSystem.ID, name: region.Name}
	if _, exists := s.regions[key]; exists {
		return core.SeqRegion{}, fmt.Errorf("region %s already exists in coord system %s", region.Name, region.CoordSystem.Label())
	}
	s.nextID++
	region.ID = s.nextID
	s.regions[key] = region
	if dna != nil {
		cp := make([]byte, len(dna))
		copy(cp, dna)
		s.sequences[region.ID] = cp
	}
	return region, nil
}

// StoreHits appends a batch of search hits.
func (s *Store) StoreHits(_ context.Context, hits []core.SearchHit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range hits {
		s.nextID++
		h.ID = s.nextID
		s.hits = append(s.hits, h)
	}
	return nil
}

// Region returns the stored region for a coord system ID and name.
func (s *Store) Region(coordSystemID int64, name string) (core.SeqRegion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regions[regionKey{coordSystemID: coordSystemID, name: name}]
	return r, ok
}

// Regions returns all stored regions.
func (s *Store) Regions() []core.SeqRegion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SeqRegion, 0, len(s.regions))
	for _, r := range s.regions {
		out = append(out, r)
	}
	return out
}

// Sequence returns the raw DNA stored for a region ID.
func (s *Store) Sequence(regionID int64) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dna, ok := s.sequences[regionID]
	return dna, ok
}

// Hits returns all stored search hits.
func (s *Store) Hits() []core.SearchHit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.SearchHit, len(s.hits))
	copy(out, s.hits)
	return out
}

// StoreCalls counts region store invocations; tests use it to assert that
// rejected configurations never reach the store.
func (s *Store) StoreCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeCalls
}
