package match

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// fakeEmbedder returns canned vectors keyed by text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 1}, nil
}

func (f *fakeEmbedder) Version() string { return "fake:v1" }

func newEngineStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	store := storage.NewStoreAtPath(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func mustCreate(t *testing.T, store storage.Store, question string) *storage.KnowledgeEntry {
	t.Helper()

	e, err := store.CreateEntry(storage.CreateEntryInput{Question: question, Answer: "answer for " + question})
	if err != nil {
		t.Fatalf("failed to create entry: %v", err)
	}
	return e
}

func TestMatchEmptyQuery(t *testing.T) {
	store := newEngineStore(t)
	engine := NewEngine(store, nil, nil, DefaultThresholds())

	matches, err := engine.Match(context.Background(), "   ", Options{})
	if err != nil {
		t.Fatalf("empty query must not error: %v", err)
	}
	if matches != nil {
		t.Fatalf("empty query must yield no matches, got %v", matches)
	}
}

func TestMatchLexicalOnly(t *testing.T) {
	store := newEngineStore(t)
	mustCreate(t, store, "What are your working hours?")

	engine := NewEngine(store, nil, nil, DefaultThresholds())

	matches, err := engine.Match(context.Background(), "what are your working hours?", Options{})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Stage != StageExact {
		t.Fatalf("expected one exact match, got %v", matches)
	}
}

func TestMatchIgnoresInactiveEntries(t *testing.T) {
	store := newEngineStore(t)
	e := mustCreate(t, store, "Do you have parking?")
	if err := store.DeactivateEntry(e.ID); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	engine := NewEngine(store, nil, nil, DefaultThresholds())

	matches, err := engine.Match(context.Background(), "do you have parking?", Options{})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("inactive entry must not match, got %v", matches)
	}
}

func TestSemanticTiers(t *testing.T) {
	store := newEngineStore(t)

	high := mustCreate(t, store, "What services do you offer?")
	medium := mustCreate(t, store, "Do you do bridal makeup?")
	low := mustCreate(t, store, "Where are you located?")

	// Cosine against the query vector [1,0]: 1.0, 0.8, 0.0
	store.SaveEmbedding(high.ID, []float32{1, 0}, "fake:v1")
	store.SaveEmbedding(medium.ID, []float32{0.8, 0.6}, "fake:v1")
	store.SaveEmbedding(low.ID, []float32{0, 1}, "fake:v1")

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"tell me about your treatments": {1, 0},
	}}
	engine := NewEngine(store, nil, embedder, DefaultThresholds())

	matches, err := engine.Match(context.Background(), "tell me about your treatments", Options{})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}

	// Ranked by similarity, tiers applied per score
	if matches[0].Entry.ID != high.ID || matches[0].Tier != TierHigh {
		t.Errorf("top match wrong: %s tier %s", matches[0].Entry.Question, matches[0].Tier)
	}
	if matches[1].Entry.ID != medium.ID || matches[1].Tier != TierMedium {
		t.Errorf("second match wrong: %s tier %s", matches[1].Entry.Question, matches[1].Tier)
	}
	if matches[2].Entry.ID != low.ID || matches[2].Tier != TierLow {
		t.Errorf("third match wrong: %s tier %s", matches[2].Entry.Question, matches[2].Tier)
	}
	if matches[2].Answerable() {
		t.Error("low tier must not be answerable")
	}
}

func TestSemanticSkipsUncachedEntries(t *testing.T) {
	store := newEngineStore(t)

	cached := mustCreate(t, store, "What services do you offer?")
	mustCreate(t, store, "No vector for this one")

	store.SaveEmbedding(cached.ID, []float32{1, 0}, "fake:v1")

	embedder := &fakeEmbedder{vectors: map[string][]float32{"services": {1, 0}}}
	engine := NewEngine(store, nil, embedder, DefaultThresholds())

	matches, err := engine.Match(context.Background(), "services", Options{})
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	for _, m := range matches {
		if m.Entry.ID != cached.ID {
			t.Errorf("uncached entry surfaced in semantic results: %s", m.Entry.Question)
		}
	}
}

func TestMatchFallsBackToLexicalOnEmbedFailure(t *testing.T) {
	store := newEngineStore(t)
	mustCreate(t, store, "What are your working hours?")

	embedder := &fakeEmbedder{err: fmt.Errorf("upstream down")}
	engine := NewEngine(store, nil, embedder, DefaultThresholds())

	matches, err := engine.Match(context.Background(), "what are your working hours?", Options{})
	if err != nil {
		t.Fatalf("fallback must not propagate the embed error: %v", err)
	}
	if len(matches) != 1 || matches[0].Stage != StageExact {
		t.Fatalf("expected lexical fallback match, got %v", matches)
	}
}

func TestSyncBackfillsEmbeddingsOnce(t *testing.T) {
	store := newEngineStore(t)
	mustCreate(t, store, "Question one")
	mustCreate(t, store, "Question two")

	embedder := &fakeEmbedder{}
	engine := NewEngine(store, nil, embedder, DefaultThresholds())

	count, err := engine.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 entries synced, got %d", count)
	}
	if embedder.calls != 2 {
		t.Errorf("expected 2 embed calls, got %d", embedder.calls)
	}

	// A second sync finds the cache warm and embeds nothing
	if _, err := engine.Sync(context.Background()); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}
	if embedder.calls != 2 {
		t.Errorf("second sync re-embedded: %d calls total", embedder.calls)
	}
}

func TestSearchBM25(t *testing.T) {
	store := newEngineStore(t)
	mustCreate(t, store, "How much does a haircut cost?")
	mustCreate(t, store, "Do you have parking available?")
	mustCreate(t, store, "What are your working hours?")

	indexer, err := NewIndexer()
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	defer indexer.Close()

	engine := NewEngine(store, indexer, nil, DefaultThresholds())
	if _, err := engine.Sync(context.Background()); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	matches, err := engine.Search(context.Background(), "parking", ModeBM25, Options{})
	if err != nil {
		t.Fatalf("bm25 search failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one bm25 match")
	}
	if matches[0].Entry.Question != "Do you have parking available?" {
		t.Errorf("wrong top match: %q", matches[0].Entry.Question)
	}
	if matches[0].Stage != StageBM25 {
		t.Errorf("expected bm25 stage, got %s", matches[0].Stage)
	}
	// Top score normalizes to 1.0 within the result set
	if matches[0].Score != 1.0 {
		t.Errorf("expected normalized top score 1.0, got %v", matches[0].Score)
	}
}

func TestSearchUnknownMode(t *testing.T) {
	store := newEngineStore(t)
	engine := NewEngine(store, nil, nil, DefaultThresholds())

	if _, err := engine.Search(context.Background(), "q", Mode("bogus"), Options{}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestSearchSemanticUnconfigured(t *testing.T) {
	store := newEngineStore(t)
	engine := NewEngine(store, nil, nil, DefaultThresholds())

	if _, err := engine.Search(context.Background(), "q", ModeSemantic, Options{}); err == nil {
		t.Fatal("expected error when semantic search is not configured")
	}
}
