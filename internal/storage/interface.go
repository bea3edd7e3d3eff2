/*
Package storage implements the persistent layer for the knowledge base and
the escalation ledger.

This package provides SQLite-based storage for two logical collections,
knowledgeBase and helpRequests, plus an embedding cache used by the optional
semantic matching mode. The database lives at <dataDir>/reception.db and uses
modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store defines the interface for persistent storage operations.
type Store interface {
	// Init opens the database and runs migrations.
	Init() error

	// Close closes the database connection.
	Close() error

	// Knowledge base operations.
	CreateEntry(input CreateEntryInput) (*KnowledgeEntry, error)
	GetEntry(id string) (*KnowledgeEntry, error)
	ListEntries() ([]KnowledgeEntry, error)
	ListActiveEntries() ([]KnowledgeEntry, error)
	UpdateEntry(id string, updates UpdateEntryInput) (*KnowledgeEntry, error)
	DeactivateEntry(id string) error
	DeleteEntry(id string) error
	IncrementUsage(id string) error

	// Escalation ledger operations.
	CreateHelpRequest(input CreateHelpRequestInput) (*HelpRequest, error)
	GetHelpRequest(id string) (*HelpRequest, error)
	ListPendingHelpRequests() ([]HelpRequest, error)
	ListHelpRequests() ([]HelpRequest, error)
	FindPendingBySession(sessionID, normalizedQuestion string) (*HelpRequest, error)
	ResolveHelpRequest(id, supervisorResponse string) (*HelpRequest, error)
	MarkTimedOut(threshold time.Duration) (int, error)

	// Embedding cache operations.
	SaveEmbedding(entryID string, vector []float32, version string) error
	GetEmbedding(entryID string) ([]float32, string, error)
	ListEmbeddings() (map[string][]float32, error)
	DeleteEmbedding(entryID string) error
}

// SQLiteStore implements the Store interface using SQLite.
//
// Unlike a pure analytics store there is no silent degradation here: the
// knowledge base and ledger are authoritative state, so a failed operation
// returns its error instead of becoming a no-op.
type SQLiteStore struct {
	db       *sql.DB
	dbPath   string
	mu       sync.Mutex
	initOnce sync.Once
}

// NewStore creates a SQLite store rooted at the given data directory.
// The directory is created on Init if it does not exist.
func NewStore(dataDir string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: filepath.Join(dataDir, "reception.db"),
	}
}

// NewStoreAtPath creates a store with an explicit database file path.
// Used by tests with t.TempDir().
func NewStoreAtPath(dbPath string) *SQLiteStore {
	return &SQLiteStore{dbPath: dbPath}
}

// Init opens the database, verifies the connection and runs migrations.
func (s *SQLiteStore) Init() error {
	var initErr error
	s.initOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			return
		}
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// NormalizeText trims surrounding whitespace and lowercases text.
// Both matching and escalation dedup compare questions in this form.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
