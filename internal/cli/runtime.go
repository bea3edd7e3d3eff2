/*
Package cli implements the reception-hub commands.

Commands share one runtime assembly path: load config, open the sqlite
store, and build the match engine with whatever optional pieces (search
index, embedder) the command needs.
*/
package cli

import (
	"context"
	"log"
	"os"

	"github.com/frontdesk-ai/reception-hub/internal/config"
	"github.com/frontdesk-ai/reception-hub/internal/match"
	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// openStore opens and initializes the sqlite store from config.
func openStore(cfg *config.Config) (*storage.SQLiteStore, error) {
	store := storage.NewStore(cfg.DataDir)
	if err := store.Init(); err != nil {
		return nil, err
	}
	return store, nil
}

// buildEngine assembles the match engine. withIndex controls whether the
// in-memory BM25 index is built; one-shot commands skip it. The embedder is
// attached only when embeddings are enabled and the API key is present;
// otherwise the lexical pipeline runs alone.
func buildEngine(ctx context.Context, cfg *config.Config, store storage.Store, withIndex bool) (*match.Engine, error) {
	thresholds := match.DefaultThresholds()
	if m := cfg.Matching; m != nil {
		thresholds = match.Thresholds{
			KeywordOverlap:   m.KeywordOverlapThreshold,
			ConfidenceHigh:   m.ConfidenceHigh,
			ConfidenceMedium: m.ConfidenceMedium,
		}
	}

	var indexer *match.Indexer
	if withIndex {
		var err error
		indexer, err = match.NewIndexer()
		if err != nil {
			return nil, err
		}
	}

	var embedder match.Embedder
	if e := cfg.Embeddings; e != nil && e.Enabled {
		apiKey := os.Getenv(e.APIKeyEnv)
		if apiKey == "" {
			log.Printf("Warning: embeddings enabled but %s is not set, semantic matching disabled", e.APIKeyEnv)
		} else {
			genaiEmbedder, err := match.NewGenAIEmbedder(ctx, apiKey, e.Model)
			if err != nil {
				log.Printf("Warning: failed to create embedder, semantic matching disabled: %v", err)
			} else {
				embedder = genaiEmbedder
			}
		}
	}

	return match.NewEngine(store, indexer, embedder, thresholds), nil
}
