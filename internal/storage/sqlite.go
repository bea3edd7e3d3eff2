/*
Package storage provides SQLite database migrations and helper functions.

This file contains schema definitions, migration logic, and the JSON
serialization helpers for list-valued columns and embedding vectors.
*/
package storage

import (
	"encoding/json"
	"fmt"
	"log"
)

// runMigrations executes database schema migrations.
func (s *SQLiteStore) runMigrations() error {
	if s.db == nil {
		return nil
	}

	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "initial_schema", up: s.migration001InitialSchema},
	}

	for _, m := range migrations {
		if version < m.version {
			log.Printf("Running migration %d: %s", m.version, m.name)
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m.version); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

// createMigrationsTable creates the schema_migrations table.
func (s *SQLiteStore) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.Exec(query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLiteStore) getCurrentMigrationVersion() (int, error) {
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	return version, nil
}

// setMigrationVersion records a migration as applied.
func (s *SQLiteStore) setMigrationVersion(version int) error {
	_, err := s.db.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		version, fmt.Sprintf("migration_%d", version),
	)
	return err
}

// migration001InitialSchema creates the initial database schema.
func (s *SQLiteStore) migration001InitialSchema() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS knowledge_base (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			type TEXT NOT NULL,
			variations TEXT NOT NULL DEFAULT '[]',
			tags TEXT NOT NULL DEFAULT '[]',
			learned_from_request_id TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			usage_count INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_used_at TEXT
		)
	`); err != nil {
		return fmt.Errorf("failed to create knowledge_base table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_knowledge_base_active
		ON knowledge_base(is_active, created_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create knowledge_base active index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS help_requests (
			id TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			normalized_question TEXT NOT NULL,
			caller_phone TEXT NOT NULL,
			caller_name TEXT,
			session_id TEXT,
			context TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			supervisor_response TEXT,
			timeout INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			resolved_at TEXT
		)
	`); err != nil {
		return fmt.Errorf("failed to create help_requests table: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_help_requests_status
		ON help_requests(status, created_at)
	`); err != nil {
		return fmt.Errorf("failed to create help_requests status index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_help_requests_session
		ON help_requests(session_id, normalized_question, status)
	`); err != nil {
		return fmt.Errorf("failed to create help_requests session index: %w", err)
	}

	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entry_embeddings (
			entry_id TEXT PRIMARY KEY,
			vector TEXT NOT NULL,
			version TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create entry_embeddings table: %w", err)
	}

	return nil
}

// listToJSON converts a string slice to JSON for storage.
func listToJSON(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		log.Printf("Warning: failed to marshal list: %v", err)
		return "[]"
	}
	return string(data)
}

// jsonToList parses a JSON storage column back to a string slice.
func jsonToList(jsonStr string) []string {
	if jsonStr == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		log.Printf("Warning: failed to unmarshal list: %v", err)
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// vectorToJSON converts a float32 vector to JSON for storage.
func vectorToJSON(vector []float32) string {
	data, err := json.Marshal(vector)
	if err != nil {
		log.Printf("Warning: failed to marshal vector: %v", err)
		return "[]"
	}
	return string(data)
}

// jsonToVector parses JSON storage back to a float32 vector.
func jsonToVector(jsonStr string) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal([]byte(jsonStr), &vector); err != nil {
		return nil, err
	}
	return vector, nil
}
