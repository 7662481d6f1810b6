// Package embedding turns text into vectors for vecdocs collections.
//
// # Overview
//
// The package exposes one public entrypoint, Pipeline, which sits in front of
// a Provider (any service that maps a model name and a list of texts to one
// vector per text) and adds:
//
//   - a bounded (model, text) cache with LRU eviction and a TTL counted from insertion
//   - deduplication of repeated texts within a call
//   - batching of cache misses (100 texts per provider call by default)
//   - a dispatch gate: at most 5 batches in flight and 20 batch starts per second
//   - strict order preservation: output[i] is always the vector for texts[i]
//
// A pipeline is constructed using:
//
//	cfg := embedding.NewConfig()
//	provider, err := embedding.NewInferenceProvider(cfg)
//	pipeline, err := embedding.NewPipeline(cfg, provider)
//
// and used via:
//
//	vectors, err := pipeline.Embed(ctx, []string{"a", "b", "a"}, "my-model")
//	vector, err := pipeline.EmbedSingle(ctx, "hello", "")   // default model
//	pipeline.ClearCache()
//
// # Failures
//
// Provider failures are never retried. A failing batch is returned as a
// *vectordb.EmbeddingError whose Start and End identify the batch within the
// deduplicated misses, and none of its vectors are cached. Batches that
// completed before the failure stay cached. Cancelling the context stops
// dispatch and aborts in-flight provider calls.
//
// # Configuration
//
// Configuration is sourced from environment variables:
//
//   - EMBEDDING_ENDPOINT: base URL of an OpenAI-compatible service (required by InferenceProvider)
//   - EMBEDDING_SERVICE_TOKEN: bearer token (optional)
//   - EMBEDDING_MODEL: default model
//   - EMBEDDING_HTTP_TIMEOUT_SECONDS (30)
//   - EMBEDDING_BATCH_SIZE (100), EMBEDDING_CACHE_SIZE (1000), EMBEDDING_CACHE_TTL (1h)
//   - EMBEDDING_MAX_CONCURRENCY (5), EMBEDDING_REQUESTS_PER_SECOND (20)
//
// # Dependency Injection (Fx)
//
//	app := fx.New(
//	    embedding.FXModule,
//	    fx.Invoke(func(p *embedding.Pipeline) {
//	        // Use embeddings
//	    }),
//	)
//
// The lifecycle hook clears the cache and closes idle HTTP connections on shutdown.
package embedding
