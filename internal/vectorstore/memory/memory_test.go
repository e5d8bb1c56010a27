package memory

import (
	"context"
	"testing"

	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/vectorstore"
)

func rec(doc string, idx int, text string, vec ...float32) vectorstore.Record {
	return vectorstore.Record{DocumentID: doc, ChunkIndex: idx, Text: text, Vector: vec}
}

func TestUpsertThenSearch(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	err := s.Upsert(ctx, "doc-1", []vectorstore.Record{
		rec("doc-1", 0, "about cats", 1, 0, 0),
		rec("doc-1", 1, "about dogs", 0, 1, 0),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Text != "about cats" {
		t.Fatalf("expected closest chunk 'about cats', got %q", results[0].Text)
	}
	if results[0].Score < 0.99 {
		t.Fatalf("identical direction should score ~1, got %f", results[0].Score)
	}
}

func TestSearchOrderedDescending(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	err := s.Upsert(ctx, "doc-1", []vectorstore.Record{
		rec("doc-1", 0, "far", 0, 1),
		rec("doc-1", 1, "near", 1, 0.1),
		rec("doc-1", 2, "exact", 1, 0),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not in descending score order: %v then %v",
				results[i-1].Score, results[i].Score)
		}
	}
	if results[0].Text != "exact" {
		t.Fatalf("expected 'exact' first, got %q", results[0].Text)
	}
}

func TestTiesBrokenByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	// Same vector three times: scores tie, insertion order must win.
	err := s.Upsert(ctx, "doc-1", []vectorstore.Record{
		rec("doc-1", 0, "first", 1, 1),
		rec("doc-1", 1, "second", 1, 1),
		rec("doc-1", 2, "third", 1, 1),
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if results[i].Text != w {
			t.Fatalf("tie order broken at %d: got %q, want %q", i, results[i].Text, w)
		}
	}
}

func TestReupsertReplacesPriorChunks(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	if err := s.Upsert(ctx, "doc-1", []vectorstore.Record{rec("doc-1", 0, "old content", 1, 0)}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.Upsert(ctx, "doc-1", []vectorstore.Record{rec("doc-1", 0, "new content", 1, 0)}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.Text == "old content" {
			t.Fatal("stale chunk retrievable after re-upsert")
		}
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly the replacement chunk, got %d results", len(results))
	}
}

func TestTopKLargerThanStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	if err := s.Upsert(ctx, "doc-1", []vectorstore.Record{rec("doc-1", 0, "only", 1, 0)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := s.Search(ctx, []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("top_k=3 on store with 1 record must return 1 result, got %d", len(results))
	}
}

func TestSearchEmptyStore(t *testing.T) {
	s := NewStore(2)
	_, err := s.Search(context.Background(), []float32{1, 0}, 1)
	if !faults.Is(err, faults.KindStore) {
		t.Fatalf("expected store fault on empty store, got %v", err)
	}
	if faults.CodeOf(err) != faults.CodeEmptyStore {
		t.Fatalf("expected empty_store code, got %q", faults.CodeOf(err))
	}
}

func TestDimensionMismatchRejected(t *testing.T) {
	ctx := context.Background()
	s := NewStore(0)

	if err := s.Upsert(ctx, "doc-1", []vectorstore.Record{rec("doc-1", 0, "a", 1, 0, 0)}); err != nil {
		t.Fatalf("establishing upsert: %v", err)
	}

	err := s.Upsert(ctx, "doc-2", []vectorstore.Record{rec("doc-2", 0, "b", 1, 0)})
	if !faults.Is(err, faults.KindStore) {
		t.Fatalf("expected store fault on dimension mismatch, got %v", err)
	}
	if faults.CodeOf(err) != faults.CodeDimension {
		t.Fatalf("expected dimension_mismatch code, got %q", faults.CodeOf(err))
	}

	// Failed upsert must not leave partial records behind.
	if s.Count() != 1 {
		t.Fatalf("failed upsert changed store state: %d records", s.Count())
	}

	_, err = s.Search(ctx, []float32{1, 0}, 1)
	if faults.CodeOf(err) != faults.CodeDimension {
		t.Fatalf("query dimension mismatch: got %v", err)
	}
}

func TestNonPositiveTopK(t *testing.T) {
	s := NewStore(2)
	_ = s.Upsert(context.Background(), "doc-1", []vectorstore.Record{rec("doc-1", 0, "a", 1, 0)})

	_, err := s.Search(context.Background(), []float32{1, 0}, 0)
	if !faults.Is(err, faults.KindConfig) {
		t.Fatalf("expected config fault for top_k=0, got %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()
	s := NewStore(2)

	_ = s.Upsert(ctx, "doc-1", []vectorstore.Record{rec("doc-1", 0, "a", 1, 0)})
	_ = s.Upsert(ctx, "doc-2", []vectorstore.Record{rec("doc-2", 0, "b", 0, 1)})

	if err := s.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Count() != 1 {
		t.Fatalf("expected 1 record after delete, got %d", s.Count())
	}
}
