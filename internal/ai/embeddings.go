package ai

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"pdf-search-service/internal/config"
	"pdf-search-service/internal/faults"
	"pdf-search-service/internal/logger"
	"pdf-search-service/internal/retry"
	"pdf-search-service/internal/telemetry"
)

// Kind selects the task hint sent to the embedding model. Document content
// and search queries embed differently; callers must state which one they
// hold.
type Kind string

const (
	KindDocument Kind = "document"
	KindQuery    Kind = "query"
)

// Client produces embedding vectors via Google Generative AI. Remote calls go
// through a rate limiter and a circuit breaker; transient failures get exactly
// one retry, auth and quota failures none.
type Client struct {
	genai   *genai.Client
	model   string
	timeout time.Duration

	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	policy  retry.Policy

	cache   *Cache
	metrics *telemetry.Metrics

	// seam for the remote batch call, replaced in tests
	embed func(ctx context.Context, texts []string, kind Kind) ([][]float32, error)
}

// NewClient builds an embedding client. cache and metrics may be nil.
func NewClient(ctx context.Context, cfg *config.Config, cache *Cache, metrics *telemetry.Metrics) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, faults.New(faults.KindConfig, "", "missing GEMINI_API_KEY for embeddings")
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, faults.Wrap(faults.KindEmbedding, "", err, "failed to create genai client")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiEmbeddings",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	c := &Client{
		genai:   gc,
		model:   cfg.GoogleEmbeddingsModel,
		timeout: time.Duration(cfg.EmbedTimeout) * time.Second,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(2), 5),
		policy:  retry.OneTransientRetry(isTransient),
		cache:   cache,
		metrics: metrics,
	}
	c.embed = c.embedRemote
	return c, nil
}

func (c *Client) Close() error {
	if c.genai != nil {
		return c.genai.Close()
	}
	return nil
}

// Embed returns one vector per input text, preserving input order. Cached
// vectors are reused; only misses hit the remote model.
func (c *Client) Embed(ctx context.Context, texts []string, kind Kind) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("embedding-client")
	ctx, span := tracer.Start(ctx, "embeddings.embed_batch")
	defer span.End()
	span.SetAttributes(
		attribute.Int("embeddings.batch_size", len(texts)),
		attribute.String("embeddings.kind", string(kind)),
		attribute.String("embeddings.model", c.model),
	)

	vectors := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if c.cache != nil {
			if vec, ok := c.cache.Get(ctx, Key(c.model, kind, text)); ok {
				vectors[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	span.SetAttributes(attribute.Int("embeddings.cache_misses", len(missTexts)))

	if len(missTexts) == 0 {
		return vectors, nil
	}

	var fetched [][]float32
	attempt := 0
	err := c.policy.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			logger.Warn("Retrying embedding batch after transient failure", "attempt", attempt)
			if c.metrics != nil {
				c.metrics.RecordEmbeddingRetry(c.model)
			}
		}
		var callErr error
		fetched, callErr = c.embed(ctx, missTexts, kind)
		return callErr
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("embeddings.error", true))
		return nil, classify(err)
	}

	if len(fetched) != len(missTexts) {
		return nil, faults.New(faults.KindEmbedding, "",
			"embedding count mismatch: sent %d texts, got %d vectors", len(missTexts), len(fetched))
	}

	for j, i := range missIdx {
		vectors[i] = fetched[j]
		if c.cache != nil {
			c.cache.Set(ctx, Key(c.model, kind, texts[i]), fetched[j])
		}
	}
	return vectors, nil
}

// embedRemote performs one batch call against the Gemini embeddings API.
func (c *Client) embedRemote(ctx context.Context, texts []string, kind Kind) ([][]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		em := c.genai.EmbeddingModel(c.model)
		switch kind {
		case KindQuery:
			em.TaskType = genai.TaskTypeRetrievalQuery
		default:
			em.TaskType = genai.TaskTypeRetrievalDocument
		}

		batch := em.NewBatch()
		for _, text := range texts {
			batch.AddContent(genai.Text(text))
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}

	resp := result.(*genai.BatchEmbedContentsResponse)
	vectors := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, errors.New("empty embedding in batch response")
		}
		vectors = append(vectors, emb.Values)
	}
	return vectors, nil
}

// isTransient reports whether a remote failure is worth one retry: network
// timeouts and 5xx responses qualify, everything else is permanent for the
// request's lifetime.
func isTransient(err error) bool {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code >= 500
	}
	return false
}

// classify maps a remote failure onto the embedding fault taxonomy.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == 401 || gerr.Code == 403:
			return faults.Wrap(faults.KindEmbedding, faults.CodeAuthFailed, err, "embedding auth failed")
		case gerr.Code == 429:
			return faults.Wrap(faults.KindEmbedding, faults.CodeQuotaExceeded, err, "embedding quota exceeded")
		}
	}
	return faults.Wrap(faults.KindEmbedding, "", err, "embedding request failed")
}
