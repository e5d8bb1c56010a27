package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-search-service/internal/ai"
	"pdf-search-service/internal/config"
	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/vectorstore"
	"pdf-search-service/internal/vectorstore/memory"
)

// stubExtractor returns canned text without touching a real PDF.
type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) ExtractFile(ctx context.Context, path string) (*Extraction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &Extraction{Text: s.text, Pages: 1}, nil
}

func (s *stubExtractor) ExtractURL(ctx context.Context, url string) (*Extraction, error) {
	return s.ExtractFile(ctx, url)
}

// stubEmbedder produces deterministic vectors: each text hashes onto a fixed
// 3-dimensional direction, so identical text always embeds identically.
type stubEmbedder struct {
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string, kind ai.Kind) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		var h uint32
		for _, r := range t {
			h = h*31 + uint32(r)
		}
		out[i] = []float32{
			float32(h%101) + 1,
			float32(h%53) + 1,
			float32(h%29) + 1,
		}
	}
	return out, nil
}

func mustChunker(t *testing.T, size, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestIngestStoresAllChunks(t *testing.T) {
	store := memory.NewStore(3)
	ing := NewIngestor(
		&stubExtractor{text: strings.Repeat("searchable text ", 200)}, // 3200 chars
		mustChunker(t, 1000, 200),
		&stubEmbedder{},
		store, nil, nil,
	)

	result, err := ing.IngestFile(context.Background(), "report.pdf", "/tmp/report.pdf", "")
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.DocumentID == "" {
		t.Fatal("missing document id")
	}
	// 3200 chars, stride 800: starts 0..2400 -> 4 chunks
	if result.ChunkCount != 4 {
		t.Fatalf("expected 4 chunks, got %d", result.ChunkCount)
	}
	if store.Count() != 4 {
		t.Fatalf("store holds %d records, want 4", store.Count())
	}
}

func TestIngestExtractionFailureLeavesStoreEmpty(t *testing.T) {
	store := memory.NewStore(3)
	ing := NewIngestor(
		&stubExtractor{err: faults.New(faults.KindExtraction, "", "unreadable pdf")},
		mustChunker(t, 1000, 200),
		&stubEmbedder{},
		store, nil, nil,
	)

	_, err := ing.IngestFile(context.Background(), "bad.pdf", "/tmp/bad.pdf", "")
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("error kind must pass through unchanged, got %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("failed ingest left %d records behind", store.Count())
	}
}

func TestIngestEmbeddingFailureLeavesStoreEmpty(t *testing.T) {
	store := memory.NewStore(3)
	emb := &stubEmbedder{err: faults.New(faults.KindEmbedding, faults.CodeQuotaExceeded, "quota exceeded")}
	ing := NewIngestor(
		&stubExtractor{text: "some document text"},
		mustChunker(t, 1000, 200),
		emb,
		store, nil, nil,
	)

	_, err := ing.IngestFile(context.Background(), "doc.pdf", "/tmp/doc.pdf", "")
	if !faults.Is(err, faults.KindEmbedding) {
		t.Fatalf("error kind must pass through unchanged, got %v", err)
	}
	if faults.CodeOf(err) != faults.CodeQuotaExceeded {
		t.Fatalf("error code must pass through unchanged, got %q", faults.CodeOf(err))
	}
	if store.Count() != 0 {
		t.Fatalf("failed ingest left %d records behind", store.Count())
	}
}

func TestIngestStoreFailurePropagates(t *testing.T) {
	// Store fixed at 2 dims while the embedder emits 3: upsert must reject
	// and the pipeline must surface the store fault.
	store := memory.NewStore(2)
	ing := NewIngestor(
		&stubExtractor{text: "some document text"},
		mustChunker(t, 1000, 200),
		&stubEmbedder{},
		store, nil, nil,
	)

	_, err := ing.IngestFile(context.Background(), "doc.pdf", "/tmp/doc.pdf", "")
	if !faults.Is(err, faults.KindStore) {
		t.Fatalf("expected store fault, got %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("failed upsert left %d records behind", store.Count())
	}
}

func TestIngestURLDownloadFailureLeavesStoreEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	store := memory.NewStore(3)
	extractor := NewPDFExtractor(&config.Config{
		FileStorageDir: t.TempDir(),
		FetchTimeout:   5,
		MaxFileSize:    1 << 20,
	})
	ing := NewIngestor(extractor, mustChunker(t, 1000, 200), &stubEmbedder{}, store, nil, nil)

	_, err := ing.IngestURL(context.Background(), srv.URL+"/gone.pdf")
	if !faults.Is(err, faults.KindExtraction) {
		t.Fatalf("404 download must surface an extraction fault, got %v", err)
	}
	if store.Count() != 0 {
		t.Fatalf("failed URL ingest left %d records behind", store.Count())
	}
}

func TestReingestReplacesDocumentChunks(t *testing.T) {
	store := memory.NewStore(3)
	extractor := &stubExtractor{text: "original content about apples"}
	ing := NewIngestor(extractor, mustChunker(t, 1000, 200), &stubEmbedder{}, store, nil, nil)

	first, err := ing.IngestFile(context.Background(), "doc.pdf", "/tmp/doc.pdf", "")
	if err != nil {
		t.Fatalf("first ingest: %v", err)
	}

	// Same document id is what triggers replacement; re-upsert directly.
	extractor.text = "revised content about oranges"
	second := ing.chunker.Chunk(first.DocumentID, extractor.text)
	emb := &stubEmbedder{}
	texts := make([]string, len(second))
	for i, ch := range second {
		texts[i] = ch.Text
	}
	vectors, _ := emb.Embed(context.Background(), texts, ai.KindDocument)
	records := make([]vectorstore.Record, len(second))
	for i, ch := range second {
		records[i] = vectorstore.Record{DocumentID: ch.DocumentID, ChunkIndex: ch.Index, Text: ch.Text, Vector: vectors[i]}
	}
	if err := store.Upsert(context.Background(), first.DocumentID, records); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	results, err := store.Search(context.Background(), vectors[0], 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if strings.Contains(r.Text, "apples") {
			t.Fatal("stale chunk from prior ingest still retrievable")
		}
	}
}
