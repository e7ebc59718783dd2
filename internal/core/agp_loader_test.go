package core

import (
	"context"
	"strings"
	"testing"
)

func asmCS() CoordinateSystem {
	return CoordinateSystem{ID: 3, Name: "chromosome", Version: "GRCh38", Rank: 1}
}

func TestLoadAGPAccumulatesMaxEnd(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	loader := &AGPLoader{Regions: store, Names: &NameResolver{}, CoordSystem: asmCS()}

	// Rows are non-monotonic on purpose: the extent is the max end seen,
	// not the last and not the sum.
	input := "scaffold1\t616\t1000\t2\tN\t385\tcontig\tno\n" +
		"scaffold1\t1\t615\t1\tF\tAL627309.15\t1\t615\t+\n" +
		"scaffold2\t1\t400\t1\tW\tctg9\t1\t400\t+\n"
	if err := loader.Load(ctx, strings.NewReader(input)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	r1, ok := store.regions["scaffold1"]
	if !ok {
		t.Fatalf("scaffold1 missing")
	}
	if r1.Start != 1 || r1.End != 1000 || r1.Length != 1000 || r1.Strand != 1 {
		t.Fatalf("unexpected scaffold1 %+v", r1)
	}
	if store.regions["scaffold2"].End != 400 {
		t.Fatalf("unexpected scaffold2 %+v", store.regions["scaffold2"])
	}
	if len(store.regions) != 2 {
		t.Fatalf("want one region per object, got %d", len(store.regions))
	}
	if len(store.sequences) != 0 {
		t.Fatalf("AGP loading must never store sequence")
	}
}

func TestLoadAGPStripsChrPrefix(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	loader := &AGPLoader{Regions: store, Names: &NameResolver{}, CoordSystem: asmCS()}

	if err := loader.Load(ctx, strings.NewReader("chr5\t1\t2000\t1\tF\tAC0001.1\t1\t2000\t+\n")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := store.regions["5"]; !ok {
		t.Fatalf("chr prefix should be stripped, have %v", store.regions)
	}
}

func TestLoadAGPResolvesThroughAccessionMap(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	loader := &AGPLoader{
		Regions:     store,
		Names:       &NameResolver{Names: NameMap{"AL627309.15": "clone7"}},
		CoordSystem: asmCS(),
	}
	if err := loader.Load(ctx, strings.NewReader("AL627309.15\t1\t615\t1\tF\tctg\t1\t615\t+\n")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := store.regions["clone7"]; !ok {
		t.Fatalf("accession map should name the region clone7, have %v", store.regions)
	}
}

func TestLoadAGPMapLookupAfterChrStrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	loader := &AGPLoader{
		Regions:     store,
		Names:       &NameResolver{Names: NameMap{"5": "chromosome_five"}},
		CoordSystem: asmCS(),
	}
	if err := loader.Load(ctx, strings.NewReader("chr5\t1\t100\t1\tF\tctg\t1\t100\t+\n")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := store.regions["chromosome_five"]; !ok {
		t.Fatalf("map lookup must use the stripped accession, have %v", store.regions)
	}
}

func TestLoadAGPRejectsSequenceLevelBeforeAnyStoreCall(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	cs := asmCS()
	cs.SequenceLevel = true
	loader := &AGPLoader{Regions: store, Names: &NameResolver{}, CoordSystem: cs}

	err := loader.Load(ctx, strings.NewReader("chr1\t1\t100\t1\tF\tctg\t1\t100\t+\n"))
	if err == nil {
		t.Fatalf("sequence-level coordinate system must be rejected for AGP input")
	}
	if store.storeCalls != 0 {
		t.Fatalf("rejection must precede any store call, got %d", store.storeCalls)
	}
}

func TestLoadAGPMalformedRowAborts(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	loader := &AGPLoader{Regions: store, Names: &NameResolver{}, CoordSystem: asmCS()}

	input := "scaffold1\t1\t615\t1\tF\tctg\t1\t615\t+\n" +
		"short\trow\n"
	err := loader.Load(ctx, strings.NewReader(input))
	if err == nil {
		t.Fatalf("malformed row must abort the load")
	}
	if len(store.regions) != 0 {
		t.Fatalf("nothing may be stored when parsing fails, got %v", store.regions)
	}
}

func TestLoadAGPStoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failStores = true
	loader := &AGPLoader{Regions: store, Names: &NameResolver{}, CoordSystem: asmCS()}
	if err := loader.Load(ctx, strings.NewReader("s1\t1\t10\t1\tF\tctg\t1\t10\t+\n")); err == nil {
		t.Fatalf("store failure must propagate")
	}
}
