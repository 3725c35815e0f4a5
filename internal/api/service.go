package api

import (
	"errors"
	"io/fs"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/ledger"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
)

// Service exposes the read side of the archive tree: file listing and
// content from storage, aggregates and search from the ledger.
type Service struct {
	store storage.Provider
	db    ledger.RecordLedger
}

// NewService creates the API service.
func NewService(store storage.Provider, db ledger.RecordLedger) *Service {
	return &Service{store: store, db: db}
}

// ListArchives returns metadata for every archive file.
func (s *Service) ListArchives() ([]models.ArchiveMetadata, error) {
	return s.store.List("")
}

// ReadArchive returns the raw content of one archive file.
func (s *Service) ReadArchive(path string) ([]byte, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Keys returns every collected activity/project key.
func (s *Service) Keys() ([]string, error) {
	return s.db.Keys()
}

// Stats aggregates records by key, optionally narrowed by key prefix and
// date range.
func (s *Service) Stats(prefix, from, to string) ([]ledger.KeyStats, error) {
	return s.db.Stats(prefix, from, to)
}

// Recent returns the newest collected records.
func (s *Service) Recent(limit int) ([]ledger.Row, error) {
	return s.db.Recent(limit)
}

// Search runs a full-text search over collected records.
func (s *Service) Search(query string, limit int) ([]ledger.SearchResult, error) {
	return s.db.Search(query, limit)
}
