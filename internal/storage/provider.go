// Package storage defines the root-scoped file-system abstraction shared by
// the journal source tree and the archive output tree.
package storage

import "github.com/starford/dagaz/internal/models"

// Provider is the interface for file operations under a fixed root.
type Provider interface {
	// List returns metadata for every journal/archive text file under dir
	// (relative to the root).
	List(dir string) ([]models.ArchiveMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the root).
	Delete(path string) error
}
