package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

// newTestStore creates an initialized store backed by a temp database.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewStoreAtPath(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestCreateEntry(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.CreateEntry(CreateEntryInput{
		Question:   "What are your working hours?",
		Answer:     "9 AM to 7 PM, Monday to Saturday.",
		Variations: []string{"when are you open"},
		Tags:       []string{"hours"},
	})
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}

	if entry.ID == "" {
		t.Error("expected a generated id")
	}
	if entry.Type != EntryTypeBusinessContext {
		t.Errorf("expected default type business_context, got %s", entry.Type)
	}
	if !entry.IsActive {
		t.Error("expected new entry to be active")
	}
	if entry.UsageCount != 0 {
		t.Errorf("expected usage count 0, got %d", entry.UsageCount)
	}

	// Round-trip through the database
	loaded, err := store.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("failed to get entry: %v", err)
	}
	if loaded.Question != entry.Question {
		t.Errorf("question mismatch: %q vs %q", loaded.Question, entry.Question)
	}
	if len(loaded.Variations) != 1 || loaded.Variations[0] != "when are you open" {
		t.Errorf("variations not preserved: %v", loaded.Variations)
	}
	if len(loaded.Tags) != 1 || loaded.Tags[0] != "hours" {
		t.Errorf("tags not preserved: %v", loaded.Tags)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	store := newTestStore(t)

	cases := []struct {
		name  string
		input CreateEntryInput
	}{
		{"missing question", CreateEntryInput{Answer: "a"}},
		{"missing answer", CreateEntryInput{Question: "q"}},
		{"unknown type", CreateEntryInput{Question: "q", Answer: "a", Type: "bogus"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.CreateEntry(tc.input)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestGetEntryNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetEntry("no-such-id")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdateEntryPartialMerge(t *testing.T) {
	store := newTestStore(t)

	entry, err := store.CreateEntry(CreateEntryInput{
		Question: "Do you have parking?",
		Answer:   "Yes.",
		Tags:     []string{"parking"},
	})
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}

	newAnswer := "Yes, complimentary valet parking."
	updated, err := store.UpdateEntry(entry.ID, UpdateEntryInput{Answer: &newAnswer})
	if err != nil {
		t.Fatalf("failed to update entry: %v", err)
	}

	if updated.Answer != newAnswer {
		t.Errorf("answer not updated: %q", updated.Answer)
	}
	// Untouched fields survive
	if updated.Question != entry.Question {
		t.Errorf("question changed unexpectedly: %q", updated.Question)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "parking" {
		t.Errorf("tags changed unexpectedly: %v", updated.Tags)
	}
	if !updated.CreatedAt.Equal(entry.CreatedAt) {
		t.Error("createdAt must never change on update")
	}
}

func TestUpdateEntryRejectsEmptyFields(t *testing.T) {
	store := newTestStore(t)

	entry, _ := store.CreateEntry(CreateEntryInput{Question: "q", Answer: "a"})

	empty := ""
	_, err := store.UpdateEntry(entry.ID, UpdateEntryInput{Question: &empty})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for empty question, got %v", err)
	}
}

func TestDeactivateEntry(t *testing.T) {
	store := newTestStore(t)

	entry, _ := store.CreateEntry(CreateEntryInput{Question: "q", Answer: "a"})

	if err := store.DeactivateEntry(entry.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	// Record survives but no longer matches
	loaded, err := store.GetEntry(entry.ID)
	if err != nil {
		t.Fatalf("deactivated entry should still exist: %v", err)
	}
	if loaded.IsActive {
		t.Error("entry still active after deactivation")
	}

	active, err := store.ListActiveEntries()
	if err != nil {
		t.Fatalf("failed to list active entries: %v", err)
	}
	for _, e := range active {
		if e.ID == entry.ID {
			t.Error("deactivated entry returned by ListActiveEntries")
		}
	}
}

func TestDeleteEntryRemovesEmbedding(t *testing.T) {
	store := newTestStore(t)

	entry, _ := store.CreateEntry(CreateEntryInput{Question: "q", Answer: "a"})
	if err := store.SaveEmbedding(entry.ID, []float32{0.1, 0.2}, "test:v1"); err != nil {
		t.Fatalf("failed to save embedding: %v", err)
	}

	if err := store.DeleteEntry(entry.ID); err != nil {
		t.Fatalf("failed to delete entry: %v", err)
	}

	var notFound *NotFoundError
	if _, err := store.GetEntry(entry.ID); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
	if _, _, err := store.GetEmbedding(entry.ID); !errors.As(err, &notFound) {
		t.Errorf("expected cached embedding gone after delete, got %v", err)
	}
}

func TestIncrementUsage(t *testing.T) {
	store := newTestStore(t)

	entry, _ := store.CreateEntry(CreateEntryInput{Question: "q", Answer: "a"})

	for i := 0; i < 3; i++ {
		if err := store.IncrementUsage(entry.ID); err != nil {
			t.Fatalf("failed to increment usage: %v", err)
		}
	}

	loaded, _ := store.GetEntry(entry.ID)
	if loaded.UsageCount != 3 {
		t.Errorf("expected usage count 3, got %d", loaded.UsageCount)
	}
	if loaded.LastUsedAt == nil {
		t.Error("expected lastUsedAt to be stamped")
	}

	var notFound *NotFoundError
	if err := store.IncrementUsage("no-such-id"); !errors.As(err, &notFound) {
		t.Errorf("expected NotFoundError for unknown id, got %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  What Are Your HOURS?  "); got != "what are your hours?" {
		t.Errorf("unexpected normalization: %q", got)
	}
	if got := NormalizeText("   "); got != "" {
		t.Errorf("whitespace should normalize to empty, got %q", got)
	}
}
