package aligncache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lyricsync/internal/config"
	"lyricsync/internal/fileutil"
	"lyricsync/internal/services/forcealign"
)

// Store manages cached alignment results backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	// rebuilt is set when an older cache was discarded on open.
	rebuilt     bool
	rebuiltFrom int
}

// Key identifies one alignment: the audio that was aligned, the transcript it
// was aligned against, and the model bundle that produced the spans.
type Key struct {
	AudioHash      string
	TranscriptHash string
	Bundle         string
}

// NewKey builds a key from an audio digest and transcript words.
func NewKey(audioHash string, transcript []string, bundle string) Key {
	return Key{
		AudioHash:      audioHash,
		TranscriptHash: fileutil.HashStrings(transcript...),
		Bundle:         bundle,
	}
}

// String returns the primary key used in the alignments table.
func (k Key) String() string {
	return fileutil.HashStrings(k.AudioHash, k.TranscriptHash, k.Bundle)
}

func (k Key) valid() bool {
	return strings.TrimSpace(k.AudioHash) != "" && strings.TrimSpace(k.TranscriptHash) != ""
}

// Stats summarizes cache contents.
type Stats struct {
	Path      string
	Entries   int
	Hits      int64
	SizeBytes int64
	Newest    time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the alignment cache database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.AlignmentCachePath())
}

// OpenPath opens the cache database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RebuiltFrom reports the schema version of an older cache that was discarded
// when the store was opened.
func (s *Store) RebuiltFrom() (int, bool) {
	if s == nil || !s.rebuilt {
		return 0, false
	}
	return s.rebuiltFrom, true
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Get returns the cached result for key. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, key Key) (forcealign.Result, bool, error) {
	var result forcealign.Result
	if !key.valid() {
		return result, false, nil
	}
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT result_json FROM alignments WHERE cache_key = ?`, key.String(),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("get alignment: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return forcealign.Result{}, false, fmt.Errorf("decode cached alignment: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.execWithRetry(ctx,
		`UPDATE alignments SET hits = hits + 1, last_used_at = ? WHERE cache_key = ?`, now, key.String(),
	); err != nil {
		return result, true, fmt.Errorf("record cache hit: %w", err)
	}
	return result, true, nil
}

// Put stores result under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key Key, result forcealign.Result) error {
	if !key.valid() {
		return errors.New("alignment cache key requires audio and transcript hashes")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode alignment: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.execWithRetry(ctx,
		`INSERT INTO alignments (cache_key, audio_hash, transcript_hash, bundle, result_json, created_at, last_used_at, hits)
         VALUES (?, ?, ?, ?, ?, ?, ?, 0)
         ON CONFLICT(cache_key) DO UPDATE SET
             result_json = excluded.result_json,
             created_at = excluded.created_at,
             last_used_at = excluded.last_used_at`,
		key.String(), key.AudioHash, key.TranscriptHash, key.Bundle, string(payload), now, now,
	)
	if err != nil {
		return fmt.Errorf("put alignment: %w", err)
	}
	return nil
}

// Stats reports entry counts and the on-disk size of the database.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	var newest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(hits), 0), MAX(created_at) FROM alignments`,
	).Scan(&stats.Entries, &stats.Hits, &newest)
	if err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}
	if newest.Valid {
		if ts, parseErr := time.Parse(time.RFC3339Nano, newest.String); parseErr == nil {
			stats.Newest = ts
		}
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if info, statErr := os.Stat(s.path + suffix); statErr == nil {
			stats.SizeBytes += info.Size()
		}
	}
	return stats, nil
}

// Clear removes every cached alignment and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM alignments`)
	if err != nil {
		return 0, fmt.Errorf("clear alignments: %w", err)
	}
	return res.RowsAffected()
}
