package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/Aleph-Alpha/vecdocs/v1/observability"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// Pipeline turns texts into vectors through a Provider.
//
// It deduplicates texts, serves repeats from a TTL+LRU cache, splits misses
// into provider-sized batches and dispatches them concurrently. At most
// MaxConcurrency batches are in flight and at most RequestsPerSecond batch
// calls start per second, across all concurrent Embed calls on the same
// Pipeline. Output order always equals input order.
//
// A Pipeline is safe for concurrent use.
type Pipeline struct {
	provider     Provider
	cache        *Cache
	defaultModel string
	batchSize    int

	slots   *semaphore.Weighted
	limiter *rate.Limiter
	window  *startWindow

	logger   Logger
	observer observability.Observer
}

// NewPipeline validates cfg and builds a pipeline around provider.
//
// Example:
//
//	provider, err := embedding.NewInferenceProvider(cfg)
//	if err != nil {
//	    return err
//	}
//	pipeline, err := embedding.NewPipeline(cfg, provider)
//	if err != nil {
//	    return err
//	}
//	vectors, err := pipeline.Embed(ctx, []string{"hello", "world"}, "")
func NewPipeline(cfg *Config, provider Provider) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("embedding: invalid config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("embedding: provider is required")
	}

	return &Pipeline{
		provider:     provider,
		cache:        NewCache(cfg.CacheSize, cfg.CacheTTL),
		defaultModel: cfg.Model,
		batchSize:    cfg.BatchSize,
		slots:        semaphore.NewWeighted(int64(cfg.MaxConcurrency)),
		limiter:      rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		window:       newStartWindow(cfg.RequestsPerSecond),
		logger:       nopLogger{},
	}, nil
}

// WithLogger sets the logger for this pipeline and returns it for method chaining.
func (p *Pipeline) WithLogger(logger Logger) *Pipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithObserver sets the observer for this pipeline and returns it for method chaining.
// The observer receives one "embed" event per call and one "embed_batch" event per provider call.
func (p *Pipeline) WithObserver(observer observability.Observer) *Pipeline {
	p.observer = observer
	return p
}

// DefaultModel returns the model used when callers pass an empty model name.
func (p *Pipeline) DefaultModel() string {
	return p.defaultModel
}

// Embed returns one vector per text, in input order.
//
// An empty model selects the default model. A failed provider call is
// returned as a *vectordb.EmbeddingError naming the failing batch range over
// the deduplicated cache misses; vectors from that batch are not cached.
// Cancelling ctx stops dispatching new batches and aborts in-flight ones.
func (p *Pipeline) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	model = p.resolveModel(model)
	if model == "" {
		return nil, &vectordb.ValidationError{Field: "model", Reason: "no embedding model given and no default configured"}
	}

	started := time.Now()
	out := make([][]float32, len(texts))

	// misses holds each uncached text once; positions maps it to every output slot
	var misses []string
	positions := make(map[string][]int)
	for i, text := range texts {
		if vec, ok := p.cache.Get(model, text); ok {
			out[i] = vec
			continue
		}
		if _, seen := positions[text]; !seen {
			misses = append(misses, text)
		}
		positions[text] = append(positions[text], i)
	}
	hits := len(texts) - countPositions(positions)

	vectors, err := p.dispatch(ctx, model, misses)
	p.observe("embed", model, time.Since(started), err, int64(len(texts)), map[string]interface{}{
		"cache_hits":   hits,
		"cache_misses": len(misses),
		"batches":      batchCount(len(misses), p.batchSize),
	})
	if err != nil {
		return nil, err
	}

	for j, text := range misses {
		for n, idx := range positions[text] {
			if n == 0 {
				out[idx] = vectors[j]
			} else {
				out[idx] = cloneVector(vectors[j])
			}
		}
	}
	return out, nil
}

// EmbedSingle embeds one text.
func (p *Pipeline) EmbedSingle(ctx context.Context, text string, model string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text}, model)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// ClearCache empties the embedding cache.
func (p *Pipeline) ClearCache() {
	p.cache.Purge()
}

// CacheLen returns the number of cached vectors.
func (p *Pipeline) CacheLen() int {
	return p.cache.Len()
}

// Close clears the cache and releases provider resources if the provider
// implements Close.
func (p *Pipeline) Close() error {
	p.cache.Purge()
	if closer, ok := p.provider.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// dispatch embeds texts in batches and returns vectors aligned with texts.
//
// Batches are started in order. Each one first takes a concurrency slot and
// then a rate token, so the limiter paces batch starts, not queued work.
// The start window is checked again right before the provider call.
func (p *Pipeline) dispatch(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)

	var dispatchErr error
	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))

		if err := p.acquire(gctx); err != nil {
			dispatchErr = &vectordb.EmbeddingError{Model: model, Start: start, End: end, Err: err}
			break
		}

		g.Go(func() error {
			defer p.slots.Release(1)
			return p.embedBatch(gctx, model, texts, start, end, results)
		})
	}

	// a failed batch cancels gctx, so its error explains a failed acquire
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if dispatchErr != nil {
		return nil, dispatchErr
	}
	return results, nil
}

func (p *Pipeline) acquire(ctx context.Context) error {
	if err := p.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		p.slots.Release(1)
		return err
	}
	return nil
}

// embedBatch calls the provider for texts[start:end], writes the vectors to
// results[start:end] and caches them. Nothing is cached on failure.
func (p *Pipeline) embedBatch(ctx context.Context, model string, texts []string, start, end int, results [][]float32) error {
	batch := texts[start:end]
	if err := p.window.wait(ctx); err != nil {
		return &vectordb.EmbeddingError{Model: model, Start: start, End: end, Err: err}
	}
	began := time.Now()

	vectors, err := p.provider.Create(ctx, model, batch...)
	if err == nil && len(vectors) != len(batch) {
		err = fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(batch))
	}
	p.observe("embed_batch", model, time.Since(began), err, int64(len(batch)), map[string]interface{}{
		"start": start,
		"end":   end,
	})
	if err != nil {
		p.logger.Error("[Embedding] batch failed", err, map[string]interface{}{
			"model": model,
			"start": start,
			"end":   end,
		})
		return &vectordb.EmbeddingError{Model: model, Start: start, End: end, Err: err}
	}

	for i, vec := range vectors {
		results[start+i] = vec
		p.cache.Add(model, batch[i], vec)
	}

	p.logger.Debug("[Embedding] batch completed", nil, map[string]interface{}{
		"model":    model,
		"start":    start,
		"end":      end,
		"duration": time.Since(began).String(),
	})
	return nil
}

func (p *Pipeline) resolveModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

func (p *Pipeline) observe(operation, model string, duration time.Duration, err error, size int64, metadata map[string]interface{}) {
	if p.observer == nil {
		return
	}
	p.observer.ObserveOperation(observability.OperationContext{
		Component: "embedding",
		Operation: operation,
		Resource:  model,
		Duration:  duration,
		Error:     err,
		Size:      size,
		Metadata:  metadata,
	})
}

func countPositions(positions map[string][]int) int {
	n := 0
	for _, idx := range positions {
		n += len(idx)
	}
	return n
}

func batchCount(n, size int) int {
	return (n + size - 1) / size
}
