package services

import (
	"context"
	"strconv"
	"strings"

	"pdf-search-service/internal/ai"
	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/telemetry"
	"pdf-search-service/internal/vectorstore"
	"pdf-search-service/models"
)

// SearchService embeds a query and ranks stored chunks against it. It adds no
// failure modes of its own: embedding and store errors pass through with
// their original kind.
type SearchService struct {
	embedder    Embedder
	store       vectorstore.Store
	defaultTopK int
	metrics     *telemetry.Metrics // optional
}

func NewSearchService(embedder Embedder, store vectorstore.Store, defaultTopK int, metrics *telemetry.Metrics) *SearchService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &SearchService{
		embedder:    embedder,
		store:       store,
		defaultTopK: defaultTopK,
		metrics:     metrics,
	}
}

// Search returns up to topK chunks ranked by descending similarity. topK <= 0
// selects the configured default. Blank queries are rejected; there is
// nothing meaningful to embed.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]models.SearchResultItem, error) {
	if strings.TrimSpace(query) == "" {
		return nil, faults.New(faults.KindConfig, "", "query must not be empty")
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vectors, err := s.embedder.Embed(ctx, []string{query}, ai.KindQuery)
	if err != nil {
		s.record("embedding_failed")
		return nil, err
	}
	if len(vectors) != 1 {
		s.record("embedding_failed")
		return nil, faults.New(faults.KindEmbedding, "", "expected 1 query vector, got %d", len(vectors))
	}

	results, err := s.store.Search(ctx, vectors[0], topK)
	if err != nil {
		s.record("store_failed")
		return nil, err
	}

	items := make([]models.SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, models.SearchResultItem{
			Text:  r.Text,
			Score: r.Score,
			Metadata: map[string]string{
				"document_id": r.DocumentID,
				"chunk_index": strconv.Itoa(r.ChunkIndex),
			},
		})
	}
	s.record("ok")
	return items, nil
}

func (s *SearchService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSearch(outcome)
	}
}
