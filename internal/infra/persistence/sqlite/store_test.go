package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"genomecore/internal/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "assembly.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCoordSystemRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)

	if _, err := store.FindCoordSystem(ctx, "chromosome", "GRCh38"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	created, err := store.CreateCoordSystem(ctx, core.CoordinateSystem{
		Name: "chromosome", Version: "GRCh38", Rank: 1, Default: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned ID")
	}

	found, err := store.FindCoordSystem(ctx, "chromosome", "GRCh38")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != created.ID || !found.Default || found.SequenceLevel {
		t.Fatalf("round trip mismatch: %+v", found)
	}

	// (name, version) is unique at the schema level.
	if _, err := store.CreateCoordSystem(ctx, created); err == nil {
		t.Fatalf("duplicate coord system must fail")
	}

	// Unversioned systems are distinct rows.
	other, err := store.CreateCoordSystem(ctx, core.CoordinateSystem{Name: "chromosome", Rank: 1})
	if err != nil {
		t.Fatalf("create unversioned: %v", err)
	}
	if other.ID == created.ID {
		t.Fatalf("unversioned system should be a distinct row")
	}
}

func TestRegionAndSequencePersistence(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	cs, err := store.CreateCoordSystem(ctx, core.CoordinateSystem{Name: "contig", Rank: 2, SequenceLevel: true})
	if err != nil {
		t.Fatalf("create cs: %v", err)
	}

	plain, err := store.StoreRegion(ctx, core.NewSeqRegion("ctg1", 100, cs))
	if err != nil {
		t.Fatalf("store region: %v", err)
	}
	if _, err := store.Sequence(ctx, plain.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("plain region must have no dna, got %v", err)
	}

	withSeq, err := store.StoreRegionWithSequence(ctx, core.NewSeqRegion("ctg2", 8, cs), []byte("ACGTACGT"))
	if err != nil {
		t.Fatalf("store with sequence: %v", err)
	}
	dna, err := store.Sequence(ctx, withSeq.ID)
	if err != nil {
		t.Fatalf("read dna: %v", err)
	}
	if string(dna) != "ACGTACGT" {
		t.Fatalf("dna mismatch: %q", dna)
	}

	if _, err := store.StoreRegion(ctx, core.NewSeqRegion("ctg1", 50, cs)); err == nil {
		t.Fatalf("duplicate region name must violate the unique constraint")
	}
}

func TestRegionSequenceTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	cs, err := store.CreateCoordSystem(ctx, core.CoordinateSystem{Name: "contig", Rank: 2, SequenceLevel: true})
	if err != nil {
		t.Fatalf("create cs: %v", err)
	}
	if _, err := store.StoreRegionWithSequence(ctx, core.NewSeqRegion("ctg1", 4, cs), nil); err == nil {
		t.Fatalf("empty dna must be rejected")
	}
	// The region insert must not have leaked outside the transaction.
	if _, err := store.StoreRegion(ctx, core.NewSeqRegion("ctg1", 4, cs)); err != nil {
		t.Fatalf("name should still be free: %v", err)
	}
}

func TestStoreHitsBatch(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)

	hits := []core.SearchHit{
		{QueryName: "q1", TargetName: "t1", QueryStart: 1, QueryEnd: 50, TargetStart: 100, TargetEnd: 149, Strand: 1, Identity: 98.5, EValue: 1e-30, Score: 180},
		{QueryName: "q2", TargetName: "t1", QueryStart: 5, QueryEnd: 45, TargetStart: 10, TargetEnd: 50, Strand: -1, Identity: 90, EValue: 0.001, Score: 60},
	}
	if err := store.StoreHits(ctx, hits); err != nil {
		t.Fatalf("store hits: %v", err)
	}
	if err := store.StoreHits(ctx, nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}

	var count int
	if err := store.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM search_hit`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("want 2 hits persisted, got %d", count)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "assembly.db")

	first, err := NewStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	created, err := first.CreateCoordSystem(ctx, core.CoordinateSystem{Name: "clone", Rank: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = second.Close() }()
	found, err := second.FindCoordSystem(ctx, "clone", "")
	if err != nil {
		t.Fatalf("find after reopen: %v", err)
	}
	if found.ID != created.ID {
		t.Fatalf("identity changed across reopen: %d vs %d", found.ID, created.ID)
	}
}
