package repositories

import (
	"errors"
	"fmt"
	"io"
	"os"

	"reddish/app/logger"

	"github.com/dgraph-io/badger/v4"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")
)

// Store owns the badger handle shared by every repository.
type Store struct {
	db       *badger.DB
	dbPath   string
	isTestDB bool
}

// Open opens (or creates) the database at path. An empty path opens a throwaway
// database in a temporary directory that is removed on Close.
func Open(path string) (*Store, error) {
	isTest := false
	if path == "" {
		tempPath, err := os.MkdirTemp("", "reddish_test_db_")
		if err != nil {
			return nil, fmt.Errorf("creating temp dir: %w", err)
		}
		path = tempPath
		isTest = true
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	opts := badger.DefaultOptions(path).
		WithLogger(logger.BadgerLogger{}).
		WithNumVersionsToKeep(1)
	if isTest {
		opts = opts.WithSyncWrites(false).WithNumGoroutines(1)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %s: %w", path, err)
	}
	return &Store{db: db, dbPath: path, isTestDB: isTest}, nil
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(logger.BadgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory badger: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for repositories and maintenance commands.
func (s *Store) DB() *badger.DB {
	return s.db
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}
	if s.isTestDB {
		if err := os.RemoveAll(s.dbPath); err != nil {
			return fmt.Errorf("failed to cleanup test database: %w", err)
		}
	}
	return nil
}

// Backup writes a full backup and returns the version it reached.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// Load restores a backup produced by Backup.
func (s *Store) Load(r io.Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic occurred during restore: %v", rec)
		}
	}()
	return s.db.Load(r, 4)
}

// DropAll removes every key.
func (s *Store) DropAll() error {
	return s.db.DropAll()
}
