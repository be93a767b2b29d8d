package aligncache

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql or the stored result format
// changes. Older databases are rebuilt empty on open.
const schemaVersion = 1

// cacheTables lists every table dropped when an older cache is rebuilt.
var cacheTables = []string{"alignments"}

// ErrSchemaMismatch reports a cache written by a newer lyricsync.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	version, initialized, err := s.readSchemaVersion(ctx)
	if err != nil {
		return err
	}
	switch {
	case !initialized:
		return s.applySchema(ctx, false)
	case version == schemaVersion:
		return nil
	case version > schemaVersion:
		return fmt.Errorf("%w: database has version %d, this build reads %d (delete %s to rebuild the cache)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	default:
		if err := s.applySchema(ctx, true); err != nil {
			return fmt.Errorf("rebuild cache from version %d: %w", version, err)
		}
		s.rebuilt, s.rebuiltFrom = true, version
		return nil
	}
}

// readSchemaVersion reports the stored version. A schema_version table with no
// row reads as version 0.
func (s *Store) readSchemaVersion(ctx context.Context) (int, bool, error) {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return 0, false, nil
	}

	var stored sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_version").Scan(&stored); err != nil {
		return 0, true, fmt.Errorf("read schema version: %w", err)
	}
	return int(stored.Int64), true, nil
}

// applySchema creates the cache tables, dropping older ones first when rebuild
// is set. Cached rows are recomputable, so nothing is migrated.
func (s *Store) applySchema(ctx context.Context, rebuild bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if rebuild {
		for _, table := range cacheTables {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
			return fmt.Errorf("reset schema version: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
