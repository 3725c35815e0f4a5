package ledger

// RecordLedger defines the interface for ledger operations. Consumers
// should depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type RecordLedger interface {
	ReplaceFile(path, key, checksum string, rows []Row) error
	DeleteFile(path string) error
	AllChecksums() (map[string]string, error)
	Keys() ([]string, error)
	Stats(prefix, from, to string) ([]KeyStats, error)
	Recent(limit int) ([]Row, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies RecordLedger at compile time.
var _ RecordLedger = (*DB)(nil)
