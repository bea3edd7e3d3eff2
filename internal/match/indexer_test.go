package match

import (
	"testing"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

func TestNewIndexer(t *testing.T) {
	indexer, err := NewIndexer()
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	defer indexer.Close()

	count, err := indexer.Count()
	if err != nil {
		t.Fatalf("failed to get count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty index, got %d docs", count)
	}
}

func TestRebuildAndSearch(t *testing.T) {
	indexer, err := NewIndexer()
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	defer indexer.Close()

	entries := []storage.KnowledgeEntry{
		entry("How much does a haircut cost?", nil, []string{"pricing"}),
		entry("Do you have parking available?", nil, []string{"facilities"}),
		entry("What are your working hours?", nil, []string{"hours"}),
	}

	if err := indexer.Rebuild(entries); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	count, _ := indexer.Count()
	if count != 3 {
		t.Errorf("expected 3 indexed entries, got %d", count)
	}

	hits, err := indexer.searchBM25("haircut cost", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].id != "id-How much does a haircut cost?" {
		t.Errorf("wrong top hit: %s", hits[0].id)
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	indexer, err := NewIndexer()
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	defer indexer.Close()

	if err := indexer.Rebuild([]storage.KnowledgeEntry{
		entry("old entry", nil, nil),
	}); err != nil {
		t.Fatalf("first rebuild failed: %v", err)
	}

	if err := indexer.Rebuild([]storage.KnowledgeEntry{
		entry("new entry", nil, nil),
	}); err != nil {
		t.Fatalf("second rebuild failed: %v", err)
	}

	hits, err := indexer.searchBM25("old", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("stale entry survived rebuild: %v", hits)
	}
}

func TestRemoveEntry(t *testing.T) {
	indexer, err := NewIndexer()
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	defer indexer.Close()

	e := entry("do you have parking", nil, nil)
	if err := indexer.IndexEntry(&e); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if err := indexer.RemoveEntry(e.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	count, _ := indexer.Count()
	if count != 0 {
		t.Errorf("expected empty index after removal, got %d", count)
	}
}

func TestNormalizeScores(t *testing.T) {
	matches := normalizeScores([]Match{
		{Score: 2.0},
		{Score: 1.0},
		{Score: 0.5},
	})
	if matches[0].Score != 1.0 {
		t.Errorf("max must normalize to 1.0, got %v", matches[0].Score)
	}
	if matches[2].Score != 0.0 {
		t.Errorf("min must normalize to 0.0, got %v", matches[2].Score)
	}

	// All-equal scores normalize to 1.0
	matches = normalizeScores([]Match{{Score: 3.0}, {Score: 3.0}})
	if matches[0].Score != 1.0 || matches[1].Score != 1.0 {
		t.Errorf("equal scores must normalize to 1.0: %v", matches)
	}
}
