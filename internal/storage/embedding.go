package storage

import (
	"database/sql"
	"fmt"
	"log"
)

// SaveEmbedding caches an embedding vector for a knowledge entry.
// A cache miss later just means re-embedding, so failures degrade to a
// logged warning rather than an error.
func (s *SQLiteStore) SaveEmbedding(entryID string, vector []float32, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO entry_embeddings (entry_id, vector, version)
		VALUES (?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET vector = excluded.vector, version = excluded.version
	`, entryID, vectorToJSON(vector), version)
	if err != nil {
		log.Printf("Warning: failed to save embedding for entry %s: %v", entryID, err)
	}

	return nil
}

// GetEmbedding retrieves a cached embedding and its model version.
func (s *SQLiteStore) GetEmbedding(entryID string) ([]float32, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT vector, version FROM entry_embeddings WHERE entry_id = ?", entryID)

	var vectorJSON, version string
	if err := row.Scan(&vectorJSON, &version); err == sql.ErrNoRows {
		return nil, "", &NotFoundError{Kind: "embedding", ID: entryID}
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to scan embedding: %w", err)
	}

	vector, err := jsonToVector(vectorJSON)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode embedding vector: %w", err)
	}

	return vector, version, nil
}

// ListEmbeddings returns all cached vectors keyed by entry id.
// Used by the semantic matcher to score a full snapshot in one pass.
func (s *SQLiteStore) ListEmbeddings() (map[string][]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT entry_id, vector FROM entry_embeddings")
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	for rows.Next() {
		var entryID, vectorJSON string
		if err := rows.Scan(&entryID, &vectorJSON); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}

		vector, err := jsonToVector(vectorJSON)
		if err != nil {
			log.Printf("Warning: skipping corrupt embedding for entry %s: %v", entryID, err)
			continue
		}
		vectors[entryID] = vector
	}

	return vectors, rows.Err()
}

// DeleteEmbedding removes a cached vector. Missing rows are not an error.
func (s *SQLiteStore) DeleteEmbedding(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM entry_embeddings WHERE entry_id = ?", entryID); err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}

	return nil
}
