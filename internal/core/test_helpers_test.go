package core

import (
	"context"
	"fmt"
	"regexp"
	"testing"
)

func mustPattern(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(expr)
	if err != nil {
		t.Fatalf("compile %q: %v", expr, err)
	}
	return re
}

// fakeStore implements the store interfaces in memory and records how many
// region store calls were made, so tests can assert that rejected
// configurations never reach persistence.
type fakeStore struct {
	nextID     int64
	systems    map[string]CoordinateSystem
	regions    map[string]SeqRegion
	sequences  map[string][]byte
	storeCalls int
	failStores bool
	creates    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		systems:   make(map[string]CoordinateSystem),
		regions:   make(map[string]SeqRegion),
		sequences: make(map[string][]byte),
	}
}

func (f *fakeStore) FindCoordSystem(_ context.Context, name, version string) (CoordinateSystem, error) {
	cs, ok := f.systems[name+"/"+version]
	if !ok {
		return CoordinateSystem{}, fmt.Errorf("%s/%s: %w", name, version, ErrNotFound)
	}
	return cs, nil
}

func (f *fakeStore) CreateCoordSystem(_ context.Context, cs CoordinateSystem) (CoordinateSystem, error) {
	f.creates++
	f.nextID++
	cs.ID = f.nextID
	f.systems[cs.Name+"/"+cs.Version] = cs
	return cs, nil
}

func (f *fakeStore) StoreRegion(_ context.Context, region SeqRegion) (SeqRegion, error) {
	return f.store(region, nil)
}

func (f *fakeStore) StoreRegionWithSequence(_ context.Context, region SeqRegion, dna []byte) (SeqRegion, error) {
	return f.store(region, dna)
}

func (f *fakeStore) store(region SeqRegion, dna []byte) (SeqRegion, error) {
	f.storeCalls++
	if f.failStores {
		return SeqRegion{}, fmt.Errorf("store unavailable")
	}
	if err := region.Validate(); err != nil {
		return SeqRegion{}, err
	}
	if _, exists := f.regions[region.Name]; exists {
		return SeqRegion{}, fmt.Errorf("region %s already exists", region.Name)
	}
	f.nextID++
	region.ID = f.nextID
	f.regions[region.Name] = region
	if dna != nil {
		f.sequences[region.Name] = append([]byte(nil), dna...)
	}
	return region, nil
}
