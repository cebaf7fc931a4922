// Package search pushes consolidated catalog output into Meilisearch so
// reviewers can browse families and variants while the migration is in
// flight.
package search

import (
	"fmt"
	"os"

	meilisearch "github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/storemigrate/catalog-resolver/engine"
)

const indexUID = "catalog"

const batchSize = 1000

// Indexer rebuilds the review index from one consolidation result.
type Indexer struct {
	client meilisearch.ServiceManager
	logger *zap.Logger
}

// NewIndexer connects to Meilisearch. URL and API key fall back to MEILI_URL
// and MEILI_API_KEY when empty.
func NewIndexer(url, apiKey string, logger *zap.Logger) *Indexer {
	if url == "" {
		url = os.Getenv("MEILI_URL")
	}
	if url == "" {
		url = "http://localhost:7700"
	}
	if apiKey == "" {
		apiKey = os.Getenv("MEILI_API_KEY")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{client: meilisearch.New(url, meilisearch.WithAPIKey(apiKey)), logger: logger}
}

// Rebuild drops and recreates the review index from the result's families.
// One document per variant slot, carrying enough family context to search
// and filter without joins.
func (ix *Indexer) Rebuild(res *engine.Result) (int, error) {
	_, _ = ix.client.DeleteIndex(indexUID)
	if _, err := ix.client.CreateIndex(&meilisearch.IndexConfig{Uid: indexUID, PrimaryKey: "id"}); err != nil {
		ix.logger.Warn("could not create index", zap.Error(err))
	}
	index := ix.client.Index(indexUID)

	// Best effort; a fresh Meilisearch accepts these, an old one just
	// serves with defaults.
	settings := meilisearch.Settings{
		SearchableAttributes: []string{"title", "handle", "vendor", "sku", "sizeLabel"},
		FilterableAttributes: []string{"vendor", "handle", "category", "sizeLabel", "runId"},
		SortableAttributes:   []string{"price", "title"},
	}
	_, _ = index.UpdateSettings(&settings)

	docs := make([]map[string]interface{}, 0, batchSize)
	indexed := 0
	flush := func() error {
		if len(docs) == 0 {
			return nil
		}
		if _, err := index.AddDocuments(docs, nil); err != nil {
			return fmt.Errorf("index error: %w", err)
		}
		indexed += len(docs)
		docs = docs[:0]
		return nil
	}

	for _, family := range res.Families {
		for _, slot := range family.Slots {
			rec := slot.Record
			price := rec.Price
			if v, ok := res.ResolvedValue(rec.SourceID, engine.AttrPrice); ok {
				if f, isFloat := v.(float64); isFloat {
					price = f
				}
			}
			image := rec.ImageRef
			if v, ok := res.ResolvedValue(rec.SourceID, engine.AttrImage); ok {
				if s, isString := v.(string); isString {
					image = s
				}
			}
			docs = append(docs, map[string]interface{}{
				"id":        "variant_" + rec.SourceID,
				"runId":     res.RunID,
				"handle":    family.CanonicalHandle,
				"title":     family.CanonicalTitle,
				"vendor":    family.Key.Vendor,
				"category":  rec.CategoryHint,
				"sizeLabel": slot.SizeLabel,
				"sourceId":  rec.SourceID,
				"sku":       rec.SKU,
				"price":     int(price * 100.0),
				"image":     image,
			})
			if len(docs) >= batchSize {
				if err := flush(); err != nil {
					return indexed, err
				}
			}
		}
	}
	if err := flush(); err != nil {
		return indexed, err
	}

	ix.logger.Info("review index rebuilt", zap.Int("documents", indexed))
	return indexed, nil
}
