package testsupport

import (
	"context"
	"testing"

	"foley/internal/config"
	"foley/internal/library"
)

// MustOpenLibrary opens a library.Store for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedAsset inserts an asset into the library for tests.
func SeedAsset(t testing.TB, store *library.Store, asset library.NewAsset) {
	t.Helper()

	if _, err := store.Insert(context.Background(), asset); err != nil {
		t.Fatalf("library.Insert: %v", err)
	}
}
