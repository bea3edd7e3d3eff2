package match

import (
	"fmt"
	"log"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// Indexer maintains a BM25 full-text index over knowledge entries. It backs
// the administrative search endpoint; the escalation gate uses the lexical
// pipeline and semantic scores, not BM25.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
}

// hit is an id/score pair returned by the index; the engine resolves ids
// back to entries from its snapshot.
type hit struct {
	id    string
	score float64
}

// NewIndexer creates an in-memory Bleve index. The index is a derived view
// over the sqlite store and is rebuilt on startup and on sync, so there is
// no need to persist it.
func NewIndexer() (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{bleveIndex: index}, nil
}

// buildIndexMapping creates the Bleve index mapping for entry documents.
func buildIndexMapping() mapping.IndexMapping {
	entryMapping := bleve.NewDocumentMapping()

	questionMapping := bleve.NewTextFieldMapping()
	entryMapping.AddFieldMappingsAt("question", questionMapping)

	answerMapping := bleve.NewTextFieldMapping()
	entryMapping.AddFieldMappingsAt("answer", answerMapping)

	variationsMapping := bleve.NewTextFieldMapping()
	entryMapping.AddFieldMappingsAt("variations", variationsMapping)

	tagsMapping := bleve.NewTextFieldMapping()
	entryMapping.AddFieldMappingsAt("tags", tagsMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", entryMapping)

	return indexMapping
}

// IndexEntry adds or replaces a single entry in the index.
func (i *Indexer) IndexEntry(entry *storage.KnowledgeEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.bleveIndex.Index(entry.ID, entryDocument(entry)); err != nil {
		return fmt.Errorf("failed to index entry %s: %w", entry.ID, err)
	}

	return nil
}

// RemoveEntry deletes an entry from the index.
func (i *Indexer) RemoveEntry(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.bleveIndex.Delete(id); err != nil {
		return fmt.Errorf("failed to remove entry %s from index: %w", id, err)
	}

	return nil
}

// Rebuild replaces the index contents with the given active-entry snapshot.
// Runs as a batch; entries that fail to index are logged and skipped.
func (i *Indexer) Rebuild(entries []storage.KnowledgeEntry) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create replacement index: %w", err)
	}

	batch := fresh.NewBatch()
	for idx := range entries {
		entry := &entries[idx]
		if err := batch.Index(entry.ID, entryDocument(entry)); err != nil {
			log.Printf("Warning: failed to index entry %s: %v", entry.ID, err)
		}
	}

	if err := fresh.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index entries: %w", err)
	}

	old := i.bleveIndex
	i.bleveIndex = fresh
	if old != nil {
		if err := old.Close(); err != nil {
			log.Printf("Warning: failed to close replaced index: %v", err)
		}
	}

	return nil
}

// searchBM25 runs a match query and returns ranked id/score hits.
func (i *Indexer) searchBM25(query string, limit int) ([]hit, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	searchRequest := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false)

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	hits := make([]hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hits = append(hits, hit{id: h.ID, score: h.Score})
	}

	return hits, nil
}

// Count returns the number of indexed entries.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}

	return count, nil
}

// Close releases the index.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}

	return nil
}

// entryDocument flattens an entry into the indexed document shape.
func entryDocument(entry *storage.KnowledgeEntry) map[string]interface{} {
	return map[string]interface{}{
		"question":   entry.Question,
		"answer":     entry.Answer,
		"variations": entry.Variations,
		"tags":       entry.Tags,
	}
}

// normalizeScores maps raw BM25 scores into [0,1] within a result set.
// When all scores are equal they all normalize to 1.0.
func normalizeScores(matches []Match) []Match {
	if len(matches) == 0 {
		return matches
	}

	minScore := matches[0].Score
	maxScore := matches[0].Score
	for _, m := range matches {
		if m.Score < minScore {
			minScore = m.Score
		}
		if m.Score > maxScore {
			maxScore = m.Score
		}
	}

	normalized := make([]Match, len(matches))
	for i, m := range matches {
		normalized[i] = m
		if maxScore == minScore {
			normalized[i].Score = 1.0
		} else {
			normalized[i].Score = (m.Score - minScore) / (maxScore - minScore)
		}
	}

	return normalized
}
