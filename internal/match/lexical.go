package match

import (
	"strings"

	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// DefaultKeywordOverlapThreshold is the matched-token fraction a candidate
// must exceed in the keyword stage. Policy constant, configurable.
const DefaultKeywordOverlapThreshold = 0.5

// Lexical scores by stage. The values place exact and substring matches in
// the high tier and keyword-overlap matches in the medium tier, so the
// orchestrator gates them the same way it gates semantic scores.
const (
	scoreExact          = 1.0
	scoreSubstring      = 0.9
	scoreKeywordOverlap = 0.75
)

// lexicalMatcher runs the staged heuristic pipeline over an entry snapshot.
type lexicalMatcher struct {
	overlapThreshold float64
}

// matchLexical walks the stages in priority order and returns the first hit
// per stage semantics: an exact hit returns immediately as a single
// top-confidence result, then substring, then keyword overlap. Within a
// stage the first matching candidate in snapshot order wins; ties are not
// further disambiguated. An empty query yields no matches, not an error.
func (lm lexicalMatcher) matchLexical(query string, entries []storage.KnowledgeEntry, opts Options) []Match {
	normalized := storage.NormalizeText(query)
	if normalized == "" {
		return nil
	}

	candidates := make([]*storage.KnowledgeEntry, 0, len(entries))
	for i := range entries {
		if opts.matchesTags(&entries[i]) {
			candidates = append(candidates, &entries[i])
		}
	}

	if entry := matchExact(normalized, candidates); entry != nil {
		return []Match{{Entry: *entry, Score: scoreExact, Tier: TierHigh, Stage: StageExact}}
	}

	if entry := matchSubstring(normalized, candidates); entry != nil {
		return []Match{{Entry: *entry, Score: scoreSubstring, Tier: TierHigh, Stage: StageSubstring}}
	}

	if entry := lm.matchKeywordOverlap(normalized, candidates); entry != nil {
		return []Match{{Entry: *entry, Score: scoreKeywordOverlap, Tier: TierMedium, Stage: StageKeywordOverlap}}
	}

	return nil
}

// matchExact finds a candidate whose normalized question, or any normalized
// variation, equals the normalized query.
func matchExact(normalized string, candidates []*storage.KnowledgeEntry) *storage.KnowledgeEntry {
	for _, entry := range candidates {
		if storage.NormalizeText(entry.Question) == normalized {
			return entry
		}
		for _, variation := range entry.Variations {
			if storage.NormalizeText(variation) == normalized {
				return entry
			}
		}
	}
	return nil
}

// matchSubstring finds a candidate whose normalized question contains the
// query, or vice versa.
func matchSubstring(normalized string, candidates []*storage.KnowledgeEntry) *storage.KnowledgeEntry {
	for _, entry := range candidates {
		question := storage.NormalizeText(entry.Question)
		if question == "" {
			continue
		}
		if strings.Contains(question, normalized) || strings.Contains(normalized, question) {
			return entry
		}
	}
	return nil
}

// matchKeywordOverlap accepts the first candidate where more than the
// threshold fraction of query tokens overlap the candidate's question
// tokens. The token test is a bidirectional substring check, not exact
// equality, so "color" matches "coloring".
func (lm lexicalMatcher) matchKeywordOverlap(normalized string, candidates []*storage.KnowledgeEntry) *storage.KnowledgeEntry {
	queryTokens := strings.Fields(normalized)
	if len(queryTokens) == 0 {
		return nil
	}

	threshold := lm.overlapThreshold
	if threshold <= 0 {
		threshold = DefaultKeywordOverlapThreshold
	}

	for _, entry := range candidates {
		entryTokens := strings.Fields(storage.NormalizeText(entry.Question))
		if len(entryTokens) == 0 {
			continue
		}

		matched := 0
		for _, token := range queryTokens {
			if tokenOverlaps(token, entryTokens) {
				matched++
			}
		}

		if float64(matched)/float64(len(queryTokens)) > threshold {
			return entry
		}
	}

	return nil
}

// tokenOverlaps reports whether a query token substring-matches any entry
// token in either direction.
func tokenOverlaps(token string, entryTokens []string) bool {
	for _, entryToken := range entryTokens {
		if strings.Contains(entryToken, token) || strings.Contains(token, entryToken) {
			return true
		}
	}
	return false
}
