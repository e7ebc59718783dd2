// Package postgres persists the assembly schema in Postgres through the
// pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"genomecore/internal/core"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertions.
var (
	_ core.CoordSystemStore = (*Store)(nil)
	_ core.RegionStore      = (*Store)(nil)
	_ core.HitStore         = (*Store)(nil)
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/genomecore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS coord_system (
		coord_system_id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		rank INTEGER NOT NULL,
		is_default BOOLEAN NOT NULL DEFAULT FALSE,
		is_sequence_level BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE(name, version)
	)`,
	`CREATE TABLE IF NOT EXISTS seq_region (
		seq_region_id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		coord_system_id BIGINT NOT NULL REFERENCES coord_system(coord_system_id),
		length INTEGER NOT NULL,
		UNIQUE(name, coord_system_id)
	)`,
	`CREATE TABLE IF NOT EXISTS dna (
		seq_region_id BIGINT PRIMARY KEY REFERENCES seq_region(seq_region_id),
		sequence BYTEA NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS search_hit (
		hit_id BIGSERIAL PRIMARY KEY,
		query_name TEXT NOT NULL,
		target_name TEXT NOT NULL,
		query_start INTEGER NOT NULL,
		query_end INTEGER NOT NULL,
		target_start INTEGER NOT NULL,
		target_end INTEGER NOT NULL,
		strand INTEGER NOT NULL,
		identity DOUBLE PRECISION NOT NULL,
		evalue DOUBLE PRECISION NOT NULL,
		score DOUBLE PRECISION NOT NULL
	)`,
}

// Store is a Postgres-backed implementation of the core store interfaces.
type Store struct {
	db *sql.DB
}

// NewStore opens a Postgres store using the provided DSN (falling back to
// defaultDSN), pings it and applies the schema.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// FindCoordSystem looks up a system by name and version.
func (s *Store) FindCoordSystem(ctx context.Context, name, version string) (core.CoordinateSystem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT coord_system_id, name, version, rank, is_default, is_sequence_level
		 FROM coord_system WHERE name = $1 AND version = $2`, name, version)
	var cs core.CoordinateSystem
	err := row.Scan(&cs.ID, &cs.Name, &cs.Version, &cs.Rank, &cs.Default, &cs.SequenceLevel)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CoordinateSystem{}, fmt.Errorf("coord system %s %s: %w", name, version, core.ErrNotFound)
	}
	if err != nil {
		return core.CoordinateSystem{}, fmt.Errorf("select coord system: %w", err)
	}
	return cs, nil
}

// CreateCoordSystem inserts a new system and returns it with its ID.
func (s *Store) CreateCoordSystem(ctx context.Context, cs core.CoordinateSystem) (core.CoordinateSystem, error) {
	if err := cs.Validate(); err != nil {
		return core.CoordinateSystem{}, err
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO coord_system(name, version, rank, is_default, is_sequence_level)
		 VALUES($1, $2, $3, $4, $5) RETURNING coord_system_id`,
		cs.Name, cs.Version, cs.Rank, cs.Default, cs.SequenceLevel).Scan(&cs.ID)
	if err != nil {
		return core.CoordinateSystem{}, fmt.Errorf("insert coord system %s: %w", cs.Label(), err)
	}
	return cs, nil
}

// StoreRegion inserts a region without sequence.
func (s *Store) StoreRegion(ctx context.Context, region core.SeqRegion) (core.SeqRegion, error) {
	if err := region.Validate(); err != nil {
		return core.SeqRegion{}, err
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO seq_region(name, coord_system_id, length)
		 VALUES($1, $2, $3) RETURNING seq_region_id`,
		region.Name, region.CoordSystem.ID, region.Length).Scan(&region.ID)
	if err != nil {
		return core.SeqRegion{}, fmt.Errorf("insert region %s: %w", region.Name, err)
	}
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
	if err := tx.QueryRowContext(ctx,
		`INSERT INTO seq_region(name, coord_system_id, length)
		 VALUES($1, $2, $3) RETURNING seq_region_id`,
		region.Name, region.CoordSystem.ID, region.Length).Scan(&region.ID); err != nil {
		return core.SeqRegion{}, fmt.Errorf("insert region %s: %w", region.Name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dna(seq_region_id, sequence) VALUES($1, $2)`, region.ID, dna); err != nil {
		return core.SeqRegion{}, fmt.Errorf("insert dna for %s: %w", region.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return core.SeqRegion{}, fmt.Errorf("commit: %w", err)
	}
	committed = true
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
			 VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
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

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
