package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"pdf-search-service/internal/ai"
	"pdf-search-service/internal/vectorstore"
	"pdf-search-service/internal/vectorstore/memory"
	"pdf-search-service/models"
	"pdf-search-service/services"
)

// hashEmbedder maps each text onto a fixed 3-dimensional direction, so the
// same text always embeds identically.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, texts []string, kind ai.Kind) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		var h uint32
		for _, r := range t {
			h = h*31 + uint32(r)
		}
		out[i] = []float32{float32(h%101) + 1, float32(h%53) + 1, float32(h%29) + 1}
	}
	return out, nil
}

func newSearchRouter(t *testing.T, seed ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore(3)
	emb := hashEmbedder{}
	if len(seed) > 0 {
		vectors, err := emb.Embed(context.Background(), seed, ai.KindDocument)
		if err != nil {
			t.Fatal(err)
		}
		records := make([]vectorstore.Record, len(seed))
		for i, text := range seed {
			records[i] = vectorstore.Record{DocumentID: "doc-1", ChunkIndex: i, Text: text, Vector: vectors[i]}
		}
		if err := store.Upsert(context.Background(), "doc-1", records); err != nil {
			t.Fatal(err)
		}
	}

	router := gin.New()
	SetupSearchRoutes(router, services.NewSearchService(emb, store, 5, nil))
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchEndpointReturnsRankedResults(t *testing.T) {
	router := newSearchRouter(t,
		"migratory birds navigate by the stars",
		"sourdough needs a long fermentation",
	)

	w := postJSON(t, router, "/api/search", `{"query":"migratory birds navigate by the stars"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var results []models.SearchResultItem
	if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatalf("expected results, got %s", w.Body.String())
	}
	if results[0].Text != "migratory birds navigate by the stars" {
		t.Fatalf("expected the matching chunk first, got %q", results[0].Text)
	}
	if results[0].Metadata["document_id"] != "doc-1" {
		t.Fatalf("metadata incomplete: %v", results[0].Metadata)
	}
}

func TestSearchEndpointRejectsBlankQuery(t *testing.T) {
	router := newSearchRouter(t, "some indexed text")

	w := postJSON(t, router, "/api/search", `{"query":"   "}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearchEndpointRejectsNonPositiveTopK(t *testing.T) {
	router := newSearchRouter(t, "some indexed text")

	for _, body := range []string{`{"query":"q","top_k":0}`, `{"query":"q","top_k":-3}`} {
		w := postJSON(t, router, "/api/search", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestSearchEndpointRejectsUnknownFields(t *testing.T) {
	router := newSearchRouter(t, "some indexed text")

	w := postJSON(t, router, "/api/search", `{"query":"q","limit":3}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSearchEndpointEmptyStoreUnavailable(t *testing.T) {
	router := newSearchRouter(t)

	w := postJSON(t, router, "/api/search", `{"query":"anything"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503, body %s", w.Code, w.Body.String())
	}
}
