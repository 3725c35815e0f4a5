// Package testutil provides shared test helpers for setting up archive
// trees and ledgers.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/dagaz/internal/ledger"
	"github.com/starford/dagaz/internal/storage"
)

// TestLedger creates a temporary SQLite ledger that is automatically cleaned up.
func TestLedger(t *testing.T) *ledger.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dagaz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := ledger.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestArchive creates a temporary archive root with a storage.Provider.
func TestArchive(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}

// TestJournal creates a temporary journal root with a storage.Provider.
func TestJournal(t *testing.T) (string, storage.Provider) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store
}
