package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pdf-search-service/internal/ai"
	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/logger"
	"pdf-search-service/internal/telemetry"
	"pdf-search-service/internal/vectorstore"
	"pdf-search-service/models"
)

// Embedder is the slice of the embedding client the pipeline needs; tests
// substitute a deterministic stub.
type Embedder interface {
	Embed(ctx context.Context, texts []string, kind ai.Kind) ([][]float32, error)
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID string
	ChunkCount int
	Duplicate  bool
}

// Ingestor runs one document through extract -> chunk -> embed -> store. A
// run moves strictly forward through those stages and terminates either
// stored or failed; the first stage error ends the run and no stored records
// survive a failure (the vector store rolls back partial writes itself).
type Ingestor struct {
	extractor TextExtractor
	chunker   *Chunker
	embedder  Embedder
	store     vectorstore.Store
	documents DocumentRecorder   // optional
	metrics   *telemetry.Metrics // optional
}

func NewIngestor(extractor TextExtractor, chunker *Chunker, embedder Embedder, store vectorstore.Store, documents DocumentRecorder, metrics *telemetry.Metrics) *Ingestor {
	return &Ingestor{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		documents: documents,
		metrics:   metrics,
	}
}

// IngestFile ingests a PDF already on disk. contentHash (sha256 of the file)
// enables dedup: a hash already stored short-circuits to the existing
// document.
func (ing *Ingestor) IngestFile(ctx context.Context, origin, path, contentHash string) (*IngestResult, error) {
	if contentHash != "" && ing.documents != nil {
		existing, err := ing.documents.FindByHash(ctx, contentHash)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Info("Duplicate upload, reusing document", "document_id", existing.ID, "origin", origin)
			return &IngestResult{DocumentID: existing.ID, ChunkCount: existing.ChunkCount, Duplicate: true}, nil
		}
	}

	doc := &models.Document{
		ID:          uuid.NewString(),
		Origin:      origin,
		OriginType:  models.OriginUpload,
		ContentHash: contentHash,
		Status:      models.StatusReceived,
		ReceivedAt:  time.Now(),
	}
	return ing.run(ctx, doc, func(ctx context.Context) (*Extraction, error) {
		return ing.extractor.ExtractFile(ctx, path)
	})
}

// IngestURL downloads and ingests a PDF from a URL.
func (ing *Ingestor) IngestURL(ctx context.Context, url string) (*IngestResult, error) {
	doc := &models.Document{
		ID:         uuid.NewString(),
		Origin:     url,
		OriginType: models.OriginURL,
		Status:     models.StatusReceived,
		ReceivedAt: time.Now(),
	}
	return ing.run(ctx, doc, func(ctx context.Context) (*Extraction, error) {
		return ing.extractor.ExtractURL(ctx, url)
	})
}

func (ing *Ingestor) run(ctx context.Context, doc *models.Document, extract func(context.Context) (*Extraction, error)) (*IngestResult, error) {
	start := time.Now()

	if ing.documents != nil {
		if err := ing.documents.Create(ctx, doc); err != nil {
			return nil, err
		}
	}
	logger.Info("Ingestion started", "document_id", doc.ID, "origin", doc.Origin)

	extraction, err := extract(ctx)
	if err != nil {
		return nil, ing.fail(ctx, doc.ID, start, err)
	}
	ing.advance(ctx, doc.ID, models.StatusExtracted)

	chunks := ing.chunker.Chunk(doc.ID, extraction.Text)
	ing.advance(ctx, doc.ID, models.StatusChunked)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := ing.embedder.Embed(ctx, texts, ai.KindDocument)
	if err != nil {
		return nil, ing.fail(ctx, doc.ID, start, err)
	}
	ing.advance(ctx, doc.ID, models.StatusEmbedded)

	records := make([]vectorstore.Record, len(chunks))
	for i, ch := range chunks {
		records[i] = vectorstore.Record{
			DocumentID: ch.DocumentID,
			ChunkIndex: ch.Index,
			Text:       ch.Text,
			Vector:     vectors[i],
		}
	}
	if err := ing.store.Upsert(ctx, doc.ID, records); err != nil {
		return nil, ing.fail(ctx, doc.ID, start, err)
	}

	if ing.documents != nil {
		charCount := len([]rune(extraction.Text))
		if err := ing.documents.MarkStored(ctx, doc.ID, len(chunks), charCount, extraction.Pages); err != nil {
			logger.Error("Failed to mark document stored", "document_id", doc.ID, "error", err)
		}
	}
	if ing.metrics != nil {
		ing.metrics.RecordIngest("stored", len(chunks), time.Since(start).Seconds())
	}
	logger.Info("Ingestion stored", "document_id", doc.ID, "chunks", len(chunks), "pages", extraction.Pages)

	return &IngestResult{DocumentID: doc.ID, ChunkCount: len(chunks)}, nil
}

// advance records a stage transition; losing a status write never aborts a
// run, the stored chunks are the source of truth.
func (ing *Ingestor) advance(ctx context.Context, id, status string) {
	if ing.documents == nil {
		return
	}
	if err := ing.documents.SetStatus(ctx, id, status); err != nil {
		logger.Warn("Failed to record ingest stage", "document_id", id, "status", status, "error", err)
	}
}

// fail marks the document failed with the originating error kind and passes
// the error through unchanged.
func (ing *Ingestor) fail(ctx context.Context, id string, start time.Time, err error) error {
	if ing.documents != nil {
		if markErr := ing.documents.MarkFailed(ctx, id, faults.KindOf(err).String(), faults.MessageOf(err)); markErr != nil {
			logger.Error("Failed to mark document failed", "document_id", id, "error", markErr)
		}
	}
	if ing.metrics != nil {
		ing.metrics.RecordIngest("failed", 0, time.Since(start).Seconds())
	}
	logger.Error("Ingestion failed", "document_id", id, "kind", faults.KindOf(err).String(), "error", err)
	return err
}
