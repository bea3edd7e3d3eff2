package match

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// defaultEmbedTimeout bounds a single embedding call so a slow upstream
// can never stall the caller-facing response.
const defaultEmbedTimeout = 5 * time.Second

// Mode selects the retrieval strategy for administrative search.
type Mode string

const (
	ModeLexical  Mode = "lexical"
	ModeSemantic Mode = "semantic"
	ModeBM25     Mode = "bm25"
)

// Engine is the knowledge-base match engine.
//
// The zero semantic configuration (nil embedder) is fully supported: the
// engine then runs the lexical pipeline only. When an embedder is present,
// semantic scoring is tried first and any upstream failure degrades to the
// lexical pipeline with a logged warning.
type Engine struct {
	store      storage.Store
	indexer    *Indexer
	embedder   Embedder
	thresholds Thresholds

	embedTimeout time.Duration
}

// NewEngine creates a match engine. indexer and embedder may be nil; a nil
// indexer disables BM25 search, a nil embedder disables semantic matching.
func NewEngine(store storage.Store, indexer *Indexer, embedder Embedder, thresholds Thresholds) *Engine {
	return &Engine{
		store:        store,
		indexer:      indexer,
		embedder:     embedder,
		thresholds:   thresholds,
		embedTimeout: defaultEmbedTimeout,
	}
}

// Match returns candidate answers for a caller question, best first.
// An empty query returns no matches, never an error. No side effects: usage
// accounting is the orchestrator's call to make once it commits to a match.
func (e *Engine) Match(ctx context.Context, query string, opts Options) ([]Match, error) {
	if storage.NormalizeText(query) == "" {
		return nil, nil
	}

	entries, err := e.store.ListActiveEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to load active entries: %w", err)
	}

	if e.embedder != nil {
		embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
		matches, err := e.matchSemantic(embedCtx, query, entries, opts)
		cancel()
		if err == nil {
			return matches, nil
		}
		log.Printf("Warning: semantic match unavailable, falling back to lexical: %v", err)
	}

	lm := lexicalMatcher{overlapThreshold: e.thresholds.KeywordOverlap}
	return lm.matchLexical(query, entries, opts), nil
}

// Search serves the administrative search endpoint with an explicit mode.
func (e *Engine) Search(ctx context.Context, query string, mode Mode, opts Options) ([]Match, error) {
	switch mode {
	case ModeBM25:
		return e.searchBM25(query, opts)
	case ModeSemantic:
		if e.embedder == nil {
			return nil, fmt.Errorf("semantic search is not configured")
		}
		entries, err := e.store.ListActiveEntries()
		if err != nil {
			return nil, fmt.Errorf("failed to load active entries: %w", err)
		}
		embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
		defer cancel()
		return e.matchSemantic(embedCtx, query, entries, opts)
	case ModeLexical, "":
		return e.Match(ctx, query, opts)
	default:
		return nil, fmt.Errorf("unknown search mode %q", mode)
	}
}

// searchBM25 resolves index hits back to entries from the live snapshot.
// Scores are normalized within the result set before tiering.
func (e *Engine) searchBM25(query string, opts Options) ([]Match, error) {
	if e.indexer == nil {
		return nil, fmt.Errorf("bm25 search is not configured")
	}
	if storage.NormalizeText(query) == "" {
		return nil, nil
	}

	entries, err := e.store.ListActiveEntries()
	if err != nil {
		return nil, fmt.Errorf("failed to load active entries: %w", err)
	}
	byID := make(map[string]*storage.KnowledgeEntry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	hits, err := e.indexer.searchBM25(query, opts.normalizedLimit())
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, h := range hits {
		entry, ok := byID[h.id]
		if !ok || !opts.matchesTags(entry) {
			// Stale index entry; the next sync reconciles it.
			continue
		}
		matches = append(matches, Match{
			Entry: *entry,
			Score: h.score,
			Stage: StageBM25,
		})
	}

	matches = normalizeScores(matches)
	for i := range matches {
		matches[i].Tier = e.thresholds.tierFor(matches[i].Score)
	}

	return matches, nil
}

// Sync reconciles the derived views with the primary store: the BM25 index
// is rebuilt from the active snapshot and missing embeddings are
// back-filled. Sync is at-least-once, not per-write transactional; between
// runs the derived views may lag the sqlite truth.
func (e *Engine) Sync(ctx context.Context) (int, error) {
	entries, err := e.store.ListActiveEntries()
	if err != nil {
		return 0, fmt.Errorf("failed to load active entries: %w", err)
	}

	if e.indexer != nil {
		if err := e.indexer.Rebuild(entries); err != nil {
			return 0, fmt.Errorf("failed to rebuild search index: %w", err)
		}
	}

	if e.embedder != nil {
		if err := e.backfillEmbeddings(ctx, entries); err != nil {
			return 0, err
		}
	}

	return len(entries), nil
}

// backfillEmbeddings embeds entries that have no cached vector for the
// current model version.
func (e *Engine) backfillEmbeddings(ctx context.Context, entries []storage.KnowledgeEntry) error {
	version := e.embedder.Version()

	for i := range entries {
		entry := &entries[i]

		if _, cachedVersion, err := e.store.GetEmbedding(entry.ID); err == nil && cachedVersion == version {
			continue
		}

		embedCtx, cancel := context.WithTimeout(ctx, e.embedTimeout)
		vector, err := e.embedder.Embed(embedCtx, entry.Question)
		cancel()
		if err != nil {
			// Leave the rest for the next sync run.
			return fmt.Errorf("failed to embed entry %s: %w", entry.ID, err)
		}

		if err := e.store.SaveEmbedding(entry.ID, vector, version); err != nil {
			log.Printf("Warning: failed to cache embedding for entry %s: %v", entry.ID, err)
		}
	}

	return nil
}
