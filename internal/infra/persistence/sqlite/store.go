// Package sqlite persists the assembly schema in a single SQLite file via
// the pure Go driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"genomecore/internal/core"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// Compile-time contract assertions.
var (
	_ core.CoordSystemStore = (*Store)(nil)
	_ core.RegionStore      = (*Store)(nil)
	_ core.HitStore         = (*Store)(nil)
)

// Store is a SQLite-backed implementation of the core store interfaces.
type Store struct {
	db   *sql.DB
	path string
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS coord_system (
		coord_system_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		rank INTEGER NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		is_sequence_level INTEGER NOT NULL DEFAULT 0,
		UNIQUE(name, version)
	)`,
	`CREATE TABLE IF NOT EXISTS seq_region (
		seq_region_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		coord_system_id INTEGER NOT NULL REFERENCES coord_system(coord_system_id),
		length INTEGER NOT NULL,
		UNIQUE(name, coord_system_id)
	)`,
	`CREATE TABLE IF NOT EXISTS dna (
		seq_region_id INTEGER PRIMARY KEY REFERENCES seq_region(seq_region_id),
		sequence BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS search_hit (
		hit_id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_name TEXT NOT NULL,
		target_name TEXT NOT NULL,
		query_start INTEGER NOT NULL,
		query_end INTEGER NOT NULL,
		target_start INTEGER NOT NULL,
		target_end INTEGER NOT NULL,
		strand INTEGER NOT NULL,
		identity REAL NOT NULL,
		evalue REAL NOT NULL,
		score REAL NOT NULL
	)`,
}

// NewStore opens (creating if needed) the SQLite database at path and
// applies the schema.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "genomecore.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db, path: path}, nil
}

// FindCoordSystem looks up a system by name and version.
func (s *Store) FindCoordSystem(ctx context.Context, name, version string) (core.CoordinateSystem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT coord_system_id, name, version, rank, is_default, is_sequence_level
		 FROM coord_system WHERE name = ? AND version = ?`, name, version)
	var cs core.CoordinateSystem
	var isDefault, isSeqLevel int
	err := row.Scan(&cs.ID, &cs.Name, &cs.Version, &cs.Rank, &isDefault, &isSeqLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CoordinateSystem{}, fmt.Errorf("coord system %s %s: %w", name, version, core.ErrNotFound)
	}
	if err != nil {
		return core.CoordinateSystem{}, fmt.Errorf("select coord system: %w", err)
	}
	cs.Default = isDefault != 0
	cs.SequenceLevel = isSeqLevel != 0
	return cs, nil
}

// CreateCoordSystem inserts a new system and returns it with its ID.
func (s *Store) CreateCoordSystem(ctx context.Context, cs core.CoordinateSystem) (core.CoordinateSystem, error) {
	if err := cs.Validate(); err != nil {
		return core.CoordinateSystem{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO coord_system(name, version, rank, is_default, is_sequence_level)
		 VALUES(?, ?, ?, ?, ?)`,
		cs.Name, cs.Version, cs.Rank, boolInt(cs.Default), boolInt(cs.SequenceLevel))
	if err != nil {
		return core.CoordinateSystem{}, fmt.Errorf("insert coord system %s: %w", cs.Label(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.CoordinateSystem{}, fmt.Errorf("coord system id: %w", err)
	}
	cs.ID = id
	return cs, nil
}

// StoreRegion inserts a region without sequence.
func (s *Store) StoreRegion(ctx context.Context, region core.SeqRegion) (core.SeqRegion, error) {
	if err := region.Validate(); err != nil {
		return core.SeqRegion{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO seq_region(name, coord_system_id, length) VALUES(?, ?, ?)`,
		region.Name, region.CoordSystem.ID, region.Length)
	if err != nil {
		return core.SeqRegion{}, fmt.Errorf("insert region %s: %w", region.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SeqRegion{}, fmt.Errorf("region id: %w", err)
	}
	region.ID = id
	return region, nil
}

// StoreRegionWithSequence inserts a region and its DNA in one transaction.
func (s *Store) StoreRegionWithSequence(ctx context.Context, region core.SeqRegion, dna []byte) (core.SeqRegion, error) {
	if err := region.Validate(); err != nil {
		return core.SeqRegion{}, err
	}
	if len(dna) == 0 {
		return core.SeqRegion{}, fmt.Errorf("region %s: empty sequence", region.Name)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.SeqRegion{}, fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO seq_region(name, coord_system_id, length) VALUES(?, ?, ?)`,
		region.Name, region.CoordSystem.ID, region.Length)
	if err != nil {
		return core.SeqRegion{}, fmt.Errorf("insert region %s: %w", region.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SeqRegion{}, fmt.Errorf("region id: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dna(seq_region_id, sequence) VALUES(?, ?)`, id, dna); err != nil {
		return core.SeqRegion{}, fmt.Errorf("insert dna for %s: %w", region.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return core.SeqRegion{}, fmt.Errorf("commit: %w", err)
	}
	committed = true
	region.ID = id
	return region, nil
}

// StoreHits inserts a batch of search hits in one transaction.
func (s *Store) StoreHits(ctx context.Context, hits []core.SearchHit) error {
	if len(hits) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, h := range hits {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO search_hit(query_name, target_name, query_start, query_end,
				target_start, target_end, strand, identity, evalue, score)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.QueryName, h.TargetName, h.QueryStart, h.QueryEnd,
			h.TargetStart, h.TargetEnd, h.Strand, h.Identity, h.EValue, h.Score); err != nil {
			return fmt.Errorf("insert hit %s/%s: %w", h.QueryName, h.TargetName, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// Sequence returns the DNA stored for a region ID.
func (s *Store) Sequence(ctx context.Context, regionID int64) ([]byte, error) {
	var dna []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT sequence FROM dna WHERE seq_region_id = ?`, regionID).Scan(&dna)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dna for region %d: %w", regionID, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select dna: %w", err)
	}
	return dna, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
