package testsupport

import (
	"testing"

	"lyricsync/internal/aligncache"
	"lyricsync/internal/config"
)

// MustOpenCache opens an alignment cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *aligncache.Store {
	t.Helper()

	store, err := aligncache.Open(cfg)
	if err != nil {
		t.Fatalf("aligncache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
