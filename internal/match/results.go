/*
Package match decides whether the knowledge base answers a caller question.

The engine runs a priority-ordered lexical pipeline (exact, substring,
keyword overlap) that is behaviorally stable, with an optional semantic mode
layered on top when an embedding provider is configured. A BM25 index over
the same entries backs the administrative search endpoint.
*/
package match

import "github.com/frontdesk-ai/reception-hub/internal/storage"

// Stage identifies which pipeline stage produced a match.
// Stage order is also result priority: exact beats substring beats keyword.
type Stage string

const (
	StageExact          Stage = "exact"
	StageSubstring      Stage = "substring"
	StageKeywordOverlap Stage = "keyword_overlap"
	StageSemantic       Stage = "semantic"
	StageBM25           Stage = "bm25"
)

// Tier buckets a match score into a confidence level. Only high and medium
// tiers are eligible to short-circuit escalation.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Match is a single candidate answer with its provenance and confidence.
type Match struct {
	Entry storage.KnowledgeEntry `json:"entry"`
	Score float64                `json:"score"`
	Tier  Tier                   `json:"confidence"`
	Stage Stage                  `json:"stage"`
}

// Answerable reports whether this match is confident enough to answer the
// caller without escalating.
func (m Match) Answerable() bool {
	return m.Tier == TierHigh || m.Tier == TierMedium
}

// Options tune a single match/search call.
type Options struct {
	// Limit caps the number of results. Defaults to 3.
	Limit int

	// Tags filters candidates to entries carrying at least one of these tags.
	Tags []string
}

// normalizedLimit applies the default result cap.
func (o Options) normalizedLimit() int {
	if o.Limit <= 0 {
		return 3
	}
	return o.Limit
}

// hasTag reports whether an entry passes the tag filter.
func (o Options) matchesTags(entry *storage.KnowledgeEntry) bool {
	if len(o.Tags) == 0 {
		return true
	}
	for _, want := range o.Tags {
		for _, have := range entry.Tags {
			if storage.NormalizeText(have) == storage.NormalizeText(want) {
				return true
			}
		}
	}
	return false
}
