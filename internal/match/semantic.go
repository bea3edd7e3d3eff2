package match

import (
	"context"
	"math"
	"sort"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// Semantic confidence tiers. Policy constants, configurable; the values come
// from the operating defaults of the production deployment, not from any
// principled calibration.
const (
	DefaultConfidenceHigh   = 0.85
	DefaultConfidenceMedium = 0.70
)

// Thresholds carries the tunable matching policy.
type Thresholds struct {
	// KeywordOverlap is the matched-token fraction the keyword stage must exceed.
	KeywordOverlap float64

	// ConfidenceHigh and ConfidenceMedium split semantic scores into tiers.
	ConfidenceHigh   float64
	ConfidenceMedium float64
}

// DefaultThresholds returns the standard matching policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		KeywordOverlap:   DefaultKeywordOverlapThreshold,
		ConfidenceHigh:   DefaultConfidenceHigh,
		ConfidenceMedium: DefaultConfidenceMedium,
	}
}

// tierFor maps a similarity score in [0,1] to a confidence tier.
func (t Thresholds) tierFor(score float64) Tier {
	high, medium := t.ConfidenceHigh, t.ConfidenceMedium
	if high <= 0 {
		high = DefaultConfidenceHigh
	}
	if medium <= 0 {
		medium = DefaultConfidenceMedium
	}

	switch {
	case score >= high:
		return TierHigh
	case score >= medium:
		return TierMedium
	default:
		return TierLow
	}
}

// matchSemantic scores every candidate by cosine similarity between the
// query vector and its cached entry vector, ranked descending. Entries with
// no cached vector are skipped; the sync reconciliation is responsible for
// back-filling them.
func (e *Engine) matchSemantic(ctx context.Context, query string, entries []storage.KnowledgeEntry, opts Options) ([]Match, error) {
	queryVector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	vectors, err := e.store.ListEmbeddings()
	if err != nil {
		return nil, err
	}

	var matches []Match
	for i := range entries {
		entry := &entries[i]
		if !opts.matchesTags(entry) {
			continue
		}

		vector, ok := vectors[entry.ID]
		if !ok {
			continue
		}

		score := cosineSimilarity(queryVector, vector)
		matches = append(matches, Match{
			Entry: *entry,
			Score: score,
			Tier:  e.thresholds.tierFor(score),
			Stage: StageSemantic,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit := opts.normalizedLimit(); len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
