// Package memory is an in-process vector store using brute-force cosine
// similarity. It backs local development and tests; semantics mirror the
// Atlas-backed store.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/vectorstore"
)

type entry struct {
	rec vectorstore.Record
	seq uint64 // insertion order, used for stable tie-breaking
}

// Store holds all records behind a single RWMutex; upserts replace a
// document's entries in one critical section so readers never see a mix of
// old and new chunks.
type Store struct {
	mu        sync.RWMutex
	dimension int
	seq       uint64
	entries   []entry
}

// NewStore creates an empty store. A dimension of 0 means the store adopts
// the dimensionality of the first upserted vector.
func NewStore(dimension int) *Store {
	return &Store{dimension: dimension}
}

func (s *Store) Upsert(ctx context.Context, documentID string, records []vectorstore.Record) error {
	if documentID == "" {
		return faults.New(faults.KindStore, "", "document id is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimension
	for _, r := range records {
		if dim == 0 {
			dim = len(r.Vector)
		}
		if len(r.Vector) != dim || dim == 0 {
			return faults.New(faults.KindStore, faults.CodeDimension,
				"vector has %d dims, store expects %d", len(r.Vector), dim)
		}
	}
	s.dimension = dim

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.rec.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	s.entries = kept

	for _, r := range records {
		s.seq++
		s.entries = append(s.entries, entry{rec: r, seq: s.seq})
	}
	return nil
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]vectorstore.SearchResult, error) {
	if topK <= 0 {
		return nil, faults.New(faults.KindConfig, "", "top_k must be positive, got %d", topK)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.entries) == 0 {
		return nil, faults.New(faults.KindStore, faults.CodeEmptyStore, "vector store is empty")
	}
	if len(vector) != s.dimension {
		return nil, faults.New(faults.KindStore, faults.CodeDimension,
			"query vector has %d dims, store expects %d", len(vector), s.dimension)
	}

	type scored struct {
		e     entry
		score float64
	}
	scores := make([]scored, len(s.entries))
	for i, e := range s.entries {
		scores[i] = scored{e: e, score: cosine(e.rec.Vector, vector)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].e.seq < scores[j].e.seq
	})

	if topK > len(scores) {
		topK = len(scores)
	}
	results := make([]vectorstore.SearchResult, 0, topK)
	for _, sc := range scores[:topK] {
		results = append(results, vectorstore.SearchResult{Record: sc.e.rec, Score: sc.score})
	}
	return results, nil
}

func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.rec.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	return nil
}

// Count reports the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
