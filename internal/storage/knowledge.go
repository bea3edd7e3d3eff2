package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const entryColumns = `id, question, answer, type, variations, tags,
	learned_from_request_id, is_active, usage_count, created_at, updated_at, last_used_at`

// CreateEntry inserts a new knowledge entry with a fresh id.
// usageCount initializes to 0 and createdAt/updatedAt to the operation time.
func (s *SQLiteStore) CreateEntry(input CreateEntryInput) (*KnowledgeEntry, error) {
	if input.Question == "" {
		return nil, &ValidationError{Field: "question"}
	}
	if input.Answer == "" {
		return nil, &ValidationError{Field: "answer"}
	}

	entryType := input.Type
	if entryType == "" {
		entryType = EntryTypeBusinessContext
	}
	if entryType != EntryTypeBusinessContext && entryType != EntryTypeLearnedAnswer {
		return nil, &ValidationError{Field: "type", Message: fmt.Sprintf("unknown entry type %q", entryType)}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	now := time.Now().UTC()
	entry := &KnowledgeEntry{
		ID:                   uuid.NewString(),
		Question:             input.Question,
		Answer:               input.Answer,
		Type:                 entryType,
		Variations:           input.Variations,
		Tags:                 input.Tags,
		LearnedFromRequestID: input.LearnedFromRequestID,
		IsActive:             isActive,
		UsageCount:           0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO knowledge_base
			(id, question, answer, type, variations, tags, learned_from_request_id,
			 is_active, usage_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`,
		entry.ID, entry.Question, entry.Answer, string(entry.Type),
		listToJSON(entry.Variations), listToJSON(entry.Tags),
		entry.LearnedFromRequestID, boolToInt(entry.IsActive),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert knowledge entry: %w", err)
	}

	return entry, nil
}

// GetEntry fetches a single entry by id.
func (s *SQLiteStore) GetEntry(id string) (*KnowledgeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getEntryLocked(id)
}

func (s *SQLiteStore) getEntryLocked(id string) (*KnowledgeEntry, error) {
	row := s.db.QueryRow(
		"SELECT "+entryColumns+" FROM knowledge_base WHERE id = ?", id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Kind: "knowledge entry", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
	}

	return entry, nil
}

// ListEntries returns all entries, newest first.
func (s *SQLiteStore) ListEntries() ([]KnowledgeEntry, error) {
	return s.listEntries("SELECT " + entryColumns + " FROM knowledge_base ORDER BY created_at DESC")
}

// ListActiveEntries returns entries eligible for matching, newest first.
func (s *SQLiteStore) ListActiveEntries() ([]KnowledgeEntry, error) {
	return s.listEntries("SELECT " + entryColumns + " FROM knowledge_base WHERE is_active = 1 ORDER BY created_at DESC")
}

func (s *SQLiteStore) listEntries(query string) ([]KnowledgeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge entries: %w", err)
	}
	defer rows.Close()

	var entries []KnowledgeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// UpdateEntry merges only the provided fields and refreshes updatedAt.
// createdAt is never touched.
func (s *SQLiteStore) UpdateEntry(id string, updates UpdateEntryInput) (*KnowledgeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.getEntryLocked(id)
	if err != nil {
		return nil, err
	}

	if updates.Question != nil {
		if *updates.Question == "" {
			return nil, &ValidationError{Field: "question"}
		}
		entry.Question = *updates.Question
	}
	if updates.Answer != nil {
		if *updates.Answer == "" {
			return nil, &ValidationError{Field: "answer"}
		}
		entry.Answer = *updates.Answer
	}
	if updates.Variations != nil {
		entry.Variations = *updates.Variations
	}
	if updates.Tags != nil {
		entry.Tags = *updates.Tags
	}
	if updates.IsActive != nil {
		entry.IsActive = *updates.IsActive
	}
	entry.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(`
		UPDATE knowledge_base
		SET question = ?, answer = ?, variations = ?, tags = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`,
		entry.Question, entry.Answer, listToJSON(entry.Variations), listToJSON(entry.Tags),
		boolToInt(entry.IsActive), entry.UpdatedAt.Format(time.RFC3339), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update knowledge entry: %w", err)
	}

	return entry, nil
}

// DeactivateEntry soft-deletes an entry: it stops matching but stays for audit.
func (s *SQLiteStore) DeactivateEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		UPDATE knowledge_base SET is_active = 0, updated_at = ? WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate knowledge entry: %w", err)
	}

	return s.requireAffected(result, "knowledge entry", id)
}

// DeleteEntry hard-deletes an entry. Admin cleanup only.
func (s *SQLiteStore) DeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM knowledge_base WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete knowledge entry: %w", err)
	}

	if err := s.requireAffected(result, "knowledge entry", id); err != nil {
		return err
	}

	// The embedding cache entry is useless without its entry.
	if _, err := s.db.Exec("DELETE FROM entry_embeddings WHERE entry_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete cached embedding: %w", err)
	}

	return nil
}

// IncrementUsage atomically bumps usageCount and stamps lastUsedAt.
// A single UPDATE keeps concurrent increments from racing.
func (s *SQLiteStore) IncrementUsage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(`
		UPDATE knowledge_base
		SET usage_count = usage_count + 1, last_used_at = ?
		WHERE id = ?
	`, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to increment usage count: %w", err)
	}

	return s.requireAffected(result, "knowledge entry", id)
}

// requireAffected turns a zero-row UPDATE/DELETE into a NotFoundError.
func (s *SQLiteStore) requireAffected(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

// rowScanner lets scanEntry work with both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*KnowledgeEntry, error) {
	var entry KnowledgeEntry
	var entryType, variations, tags, createdAt, updatedAt string
	var learnedFrom, lastUsedAt sql.NullString
	var isActive int

	if err := row.Scan(
		&entry.ID, &entry.Question, &entry.Answer, &entryType,
		&variations, &tags, &learnedFrom, &isActive,
		&entry.UsageCount, &createdAt, &updatedAt, &lastUsedAt,
	); err != nil {
		return nil, err
	}

	entry.Type = EntryType(entryType)
	entry.Variations = jsonToList(variations)
	entry.Tags = jsonToList(tags)
	entry.LearnedFromRequestID = learnedFrom.String
	entry.IsActive = isActive == 1

	var err error
	if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("bad created_at: %w", err)
	}
	if entry.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("bad updated_at: %w", err)
	}
	if lastUsedAt.Valid && lastUsedAt.String != "" {
		t, err := time.Parse(time.RFC3339, lastUsedAt.String)
		if err != nil {
			return nil, fmt.Errorf("bad last_used_at: %w", err)
		}
		entry.LastUsedAt = &t
	}

	return &entry, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
