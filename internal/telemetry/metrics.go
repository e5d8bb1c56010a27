package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	DocumentsIngested metric.Int64Counter
	ChunksStored      metric.Int64Counter
	IngestDuration    metric.Float64Histogram
	EmbeddingRetries  metric.Int64Counter
	SearchRequests    metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("pdf-search-service")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"ingest.documents.total",
		metric.WithDescription("Documents ingested, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	chunksStored, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Chunk records written to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.duration",
		metric.WithDescription("End-to-end ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	embeddingRetries, err := meter.Int64Counter(
		"embeddings.retries.total",
		metric.WithDescription("Transient embedding failures that were retried"),
	)
	if err != nil {
		return nil, err
	}

	searchRequests, err := meter.Int64Counter(
		"search.requests.total",
		metric.WithDescription("Semantic search requests, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		DocumentsIngested: documentsIngested,
		ChunksStored:      chunksStored,
		IngestDuration:    ingestDuration,
		EmbeddingRetries:  embeddingRetries,
		SearchRequests:    searchRequests,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngest records a completed or failed ingestion run
func (m *Metrics) RecordIngest(outcome string, chunks int, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.outcome", outcome),
	}

	m.DocumentsIngested.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.IngestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	if chunks > 0 {
		m.ChunksStored.Add(context.Background(), int64(chunks), metric.WithAttributes(attrs...))
	}
}

// RecordEmbeddingRetry records a retried transient embedding failure
func (m *Metrics) RecordEmbeddingRetry(model string) {
	m.EmbeddingRetries.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("gemini.model", model),
	))
}

// RecordSearch records a search request outcome
func (m *Metrics) RecordSearch(outcome string) {
	m.SearchRequests.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("search.outcome", outcome),
	))
}
