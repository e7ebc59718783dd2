package core

import (
	"context"
	"errors"
)

// ErrNotFound reports a lookup miss as opposed to a store failure.
var ErrNotFound = errors.New("core: not found")

// CoordSystemStore persists coordinate systems. Find must return
// ErrNotFound (possibly wrapped) when no system matches.
type CoordSystemStore interface {
	FindCoordSystem(ctx context.Context, name, version string) (CoordinateSystem, error)
	CreateCoordSystem(ctx context.Context, cs CoordinateSystem) (CoordinateSystem, error)
}

// RegionStore persists sequence regions, optionally together with their
// raw DNA. Implementations must reject duplicate names within one
// coordinate system.
type RegionStore interface {
	StoreRegion(ctx context.Context, region SeqRegion) (SeqRegion, error)
	StoreRegionWithSequence(ctx context.Context, region SeqRegion, dna []byte) (SeqRegion, error)
}

// HitStore persists similarity-search hits in one batch per job.
type HitStore interface {
	StoreHits(ctx context.Context, hits []SearchHit) error
}

// ResolveCoordSystem finds the coordinate system matching want's name and
// version, creating it from want when absent. Repeated calls with the same
// (name, version) return the same stored identity; lookup-then-create is
// not atomic against concurrent writers, which the batch tools never have.
func ResolveCoordSystem(ctx context.Context, store CoordSystemStore, want CoordinateSystem) (CoordinateSystem, error) {
	if err := want.Validate(); err != nil {
		return CoordinateSystem{}, err
	}
	cs, err := store.FindCoordSystem(ctx, want.Name, want.Version)
	if err == nil {
		return cs, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return CoordinateSystem{}, err
	}
	return store.CreateCoordSystem(ctx, want)
}
