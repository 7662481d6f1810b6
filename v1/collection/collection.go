package collection

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/filter"
	"github.com/Aleph-Alpha/vecdocs/v1/observability"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// Collection is a vectordb.Service bound to one collection table.
//
// Every operation is scoped to a single namespace and issues its statements
// sequentially. Text is embedded through the Embedder with the collection's
// embedding model. A Collection is safe for concurrent use.
type Collection struct {
	name     string
	table    string
	config   vectordb.CollectionConfig
	client   database.Client
	embedder Embedder
	inst     instrumentation
}

var _ vectordb.Service = (*Collection)(nil)

// NewCollection binds an existing collection table. Most callers obtain a
// Collection from Manager.Collection, which loads cfg from the registry.
// embedder may be nil when every document and query carries a vector.
func NewCollection(name string, cfg vectordb.CollectionConfig, client database.Client, embedder Embedder) (*Collection, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("collection: database client is required")
	}
	return &Collection{
		name:     name,
		table:    tableIdent(name),
		config:   cfg,
		client:   client,
		embedder: embedder,
		inst:     newInstrumentation(),
	}, nil
}

// WithLogger sets the logger and returns the collection for method chaining.
func (c *Collection) WithLogger(logger Logger) *Collection {
	if logger != nil {
		c.inst.logger = logger
	}
	return c
}

// WithObserver sets the observer and returns the collection for method chaining.
func (c *Collection) WithObserver(observer observability.Observer) *Collection {
	c.inst.observer = observer
	return c
}

// WithTracer sets the span source and returns the collection for method chaining.
// Without one, spans go to the global OpenTelemetry provider.
func (c *Collection) WithTracer(tracer Tracer) *Collection {
	if tracer != nil {
		c.inst.tracer = tracer
	}
	return c
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Config returns the immutable collection configuration.
func (c *Collection) Config() vectordb.CollectionConfig { return c.config }

// ── Upsert ────────────────────────────────────────────────────

// Upsert inserts or overwrites documents keyed by (id, namespace).
//
// Text-only documents are embedded in a single Embed call. Every document is
// validated and every vector checked against the collection dimension before
// anything is written; the first failure aborts the whole request. A repeated
// id within one request keeps the last document.
func (c *Collection) Upsert(ctx context.Context, req vectordb.UpsertRequest) (resp vectordb.UpsertResponse, err error) {
	ns := vectordb.NamespaceOrDefault(req.Namespace)
	ctx, op := c.inst.begin(ctx, "upsert", c.name, ns)
	defer func() { op.finish(err, int64(resp.UpsertedCount)) }()

	if len(req.Documents) == 0 {
		return vectordb.UpsertResponse{}, nil
	}

	// explicit vectors are checked before any embedding call
	vectors := make([]pgvector.Vector, len(req.Documents))
	var texts []string
	var textSlots []int
	for i, doc := range req.Documents {
		if err := doc.Validate(); err != nil {
			return vectordb.UpsertResponse{}, err
		}
		if doc.NeedsEmbedding() {
			texts = append(texts, doc.Text)
			textSlots = append(textSlots, i)
			continue
		}
		vec, err := c.vectorArg(doc.Vector, "vector", doc.ID)
		if err != nil {
			return vectordb.UpsertResponse{}, err
		}
		vectors[i] = vec
	}

	if len(texts) > 0 {
		embedded, err := c.embed(ctx, texts)
		if err != nil {
			return vectordb.UpsertResponse{}, &vectordb.CollectionError{Op: "upsert", Collection: c.name, Err: err}
		}
		for j, slot := range textSlots {
			vec, err := c.vectorArg(embedded[j], "text", req.Documents[slot].ID)
			if err != nil {
				return vectordb.UpsertResponse{}, err
			}
			vectors[slot] = vec
		}
	}

	argSets := make([][]any, len(req.Documents))
	for i, doc := range req.Documents {
		meta, err := encodeMetadata(doc.Metadata)
		if err != nil {
			return vectordb.UpsertResponse{}, &vectordb.ValidationError{Field: "metadata", DocumentID: doc.ID, Reason: err.Error()}
		}
		argSets[i] = []any{ns, doc.ID, nullableText(doc.Text), meta, vectors[i]}
	}

	if _, err := c.client.ExecuteMany(ctx, upsertSQL(c.table), argSets); err != nil {
		return vectordb.UpsertResponse{}, &vectordb.CollectionError{Op: "upsert", Collection: c.name, Err: err}
	}
	return vectordb.UpsertResponse{UpsertedCount: len(req.Documents)}, nil
}

// ── Search ────────────────────────────────────────────────────

// Search returns up to TopK documents nearest to the query, best first.
//
// Exactly one of Vector or Query must be set. Every failure is returned as a
// *vectordb.SearchError; request problems wrap a *vectordb.ValidationError.
func (c *Collection) Search(ctx context.Context, req vectordb.SearchRequest) (resp vectordb.SearchResponse, err error) {
	ns := vectordb.NamespaceOrDefault(req.Namespace)
	ctx, op := c.inst.begin(ctx, "search", c.name, ns)
	defer func() { op.finish(err, int64(len(resp.Matches))) }()

	fail := func(err error) (vectordb.SearchResponse, error) {
		return vectordb.SearchResponse{}, &vectordb.SearchError{Collection: c.name, Namespace: ns, Err: err}
	}

	hasVector, hasQuery := len(req.Vector) > 0, req.Query != ""
	if hasVector == hasQuery {
		return fail(&vectordb.ValidationError{Field: "query", Reason: "exactly one of vector or query must be provided"})
	}

	topK, err := vectordb.ResolveTopK(req.TopK)
	if err != nil {
		return fail(err)
	}

	queryVector := req.Vector
	if hasQuery {
		embedded, err := c.embed(ctx, []string{req.Query})
		if err != nil {
			return fail(err)
		}
		queryVector = embedded[0]
	}
	vec, err := c.vectorArg(queryVector, "vector", "")
	if err != nil {
		return fail(err)
	}

	predicate, err := filter.Compile(req.Filter)
	if err != nil {
		return fail(err)
	}

	args := make([]any, 0, len(predicate.Args)+3)
	args = append(args, vec, ns)
	args = append(args, predicate.Args...)
	args = append(args, topK)

	rows, err := c.client.Execute(ctx, searchSQL(c.table, c.config.Metric, req, predicate.SQL), args)
	if err != nil {
		return fail(err)
	}

	candidates := make([]vectordb.Candidate, 0, len(rows))
	for _, row := range rows {
		doc, err := documentFromRow(row)
		if err != nil {
			return fail(err)
		}
		distance, err := floatValue(row, "distance")
		if err != nil {
			return fail(err)
		}
		candidates = append(candidates, vectordb.Candidate{
			Match: vectordb.QueryMatch{
				ID:       doc.ID,
				Metadata: doc.Metadata,
				Vector:   doc.Vector,
				Text:     doc.Text,
			},
			Distance: distance,
		})
	}

	matches, err := vectordb.Rank(c.config.Metric, candidates, topK)
	if err != nil {
		return fail(err)
	}
	return vectordb.SearchResponse{Namespace: ns, Matches: matches}, nil
}

// ── Fetch ─────────────────────────────────────────────────────

// Fetch returns the requested documents in request order. Ids that do not
// exist in the namespace are left out; repeated ids are returned once.
func (c *Collection) Fetch(ctx context.Context, req vectordb.FetchRequest) (resp vectordb.FetchResponse, err error) {
	ns := vectordb.NamespaceOrDefault(req.Namespace)
	ctx, op := c.inst.begin(ctx, "fetch", c.name, ns)
	defer func() { op.finish(err, int64(len(resp.Documents))) }()

	ids := uniqueIDs(req.IDs)
	if len(ids) == 0 {
		return vectordb.FetchResponse{Namespace: ns, Documents: []vectordb.Document{}}, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, ns)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := c.client.Execute(ctx, fetchSQL(c.table, len(ids)), args)
	if err != nil {
		return vectordb.FetchResponse{}, &vectordb.CollectionError{Op: "fetch", Collection: c.name, Err: err}
	}

	byID := make(map[string]vectordb.Document, len(rows))
	for _, row := range rows {
		doc, err := documentFromRow(row)
		if err != nil {
			return vectordb.FetchResponse{}, &vectordb.CollectionError{Op: "fetch", Collection: c.name, Err: err}
		}
		byID[doc.ID] = doc
	}

	docs := make([]vectordb.Document, 0, len(byID))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			docs = append(docs, doc)
		}
	}
	return vectordb.FetchResponse{Namespace: ns, Documents: docs}, nil
}

// ── Update ────────────────────────────────────────────────────

// Update changes the text and/or metadata of one document. New text is
// re-embedded and replaces the stored vector. Metadata replaces the stored
// object. A missing document yields a CollectionError wrapping
// vectordb.ErrDocumentNotFound.
func (c *Collection) Update(ctx context.Context, req vectordb.UpdateRequest) (err error) {
	ns := vectordb.NamespaceOrDefault(req.Namespace)
	ctx, op := c.inst.begin(ctx, "update", c.name, ns)
	defer func() { op.finish(err, 1) }()

	if req.ID == "" {
		return &vectordb.ValidationError{Field: "id", Reason: "document id cannot be empty"}
	}
	if req.Text == nil && req.Metadata == nil {
		return &vectordb.ValidationError{Field: "update", DocumentID: req.ID, Reason: "at least one of text or metadata must be provided"}
	}
	if req.Text != nil && *req.Text == "" {
		return &vectordb.ValidationError{Field: "text", DocumentID: req.ID, Reason: "text cannot be empty"}
	}

	var args []any
	if req.Text != nil {
		embedded, err := c.embed(ctx, []string{*req.Text})
		if err != nil {
			return &vectordb.CollectionError{Op: "update", Collection: c.name, DocumentID: req.ID, Err: err}
		}
		vec, err := c.vectorArg(embedded[0], "text", req.ID)
		if err != nil {
			return err
		}
		args = append(args, *req.Text, vec)
	}
	if req.Metadata != nil {
		meta, err := encodeMetadata(req.Metadata)
		if err != nil {
			return &vectordb.ValidationError{Field: "metadata", DocumentID: req.ID, Reason: err.Error()}
		}
		args = append(args, meta)
	}
	args = append(args, ns, req.ID)

	rows, err := c.client.Execute(ctx, updateSQL(c.table, req.Text != nil, req.Metadata != nil), args)
	if err != nil {
		return &vectordb.CollectionError{Op: "update", Collection: c.name, DocumentID: req.ID, Err: err}
	}
	if len(rows) == 0 {
		return &vectordb.CollectionError{Op: "update", Collection: c.name, DocumentID: req.ID, Err: vectordb.ErrDocumentNotFound}
	}
	return nil
}

// ── Delete ────────────────────────────────────────────────────

// Delete removes documents by ids, by filter and/or the whole namespace.
// Every requested mode runs, in that order, and the counts are summed.
func (c *Collection) Delete(ctx context.Context, req vectordb.DeleteRequest) (resp vectordb.DeleteResponse, err error) {
	ns := vectordb.NamespaceOrDefault(req.Namespace)
	ctx, op := c.inst.begin(ctx, "delete", c.name, ns)
	defer func() { op.finish(err, resp.DeletedCount) }()

	ids := uniqueIDs(req.IDs)
	hasFilter := len(req.Filter) > 0
	if len(ids) == 0 && !hasFilter && !req.DeleteAll {
		return vectordb.DeleteResponse{}, &vectordb.ValidationError{Field: "delete", Reason: "one of ids, filter or deleteAll must be provided"}
	}

	// Compile before the first statement so a bad filter deletes nothing.
	var predicate filter.Predicate
	if hasFilter {
		predicate, err = filter.Compile(req.Filter)
		if err != nil {
			return vectordb.DeleteResponse{}, err
		}
	}

	var total int64
	if len(ids) > 0 {
		args := make([]any, 0, len(ids)+1)
		args = append(args, ns)
		for _, id := range ids {
			args = append(args, id)
		}
		n, err := c.deleteCount(ctx, deleteByIDsSQL(c.table, len(ids)), args)
		if err != nil {
			return vectordb.DeleteResponse{DeletedCount: total}, err
		}
		total += n
	}
	if hasFilter && !predicate.Empty() {
		args := append([]any{ns}, predicate.Args...)
		n, err := c.deleteCount(ctx, deleteByFilterSQL(c.table, predicate.SQL), args)
		if err != nil {
			return vectordb.DeleteResponse{DeletedCount: total}, err
		}
		total += n
	}
	if req.DeleteAll {
		n, err := c.deleteCount(ctx, deleteAllSQL(c.table), []any{ns})
		if err != nil {
			return vectordb.DeleteResponse{DeletedCount: total}, err
		}
		total += n
	}
	return vectordb.DeleteResponse{DeletedCount: total}, nil
}

func (c *Collection) deleteCount(ctx context.Context, statement string, args []any) (int64, error) {
	rows, err := c.client.Execute(ctx, statement, args)
	if err != nil {
		return 0, &vectordb.CollectionError{Op: "delete", Collection: c.name, Err: err}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := intValue(rows[0], "n")
	if err != nil {
		return 0, &vectordb.CollectionError{Op: "delete", Collection: c.name, Err: err}
	}
	return n, nil
}

// ── Stats ─────────────────────────────────────────────────────

// Stats returns the document count of every non-empty namespace.
func (c *Collection) Stats(ctx context.Context) (stats vectordb.Stats, err error) {
	ctx, op := c.inst.begin(ctx, "stats", c.name, "")
	defer func() { op.finish(err, stats.TotalCount) }()

	rows, err := c.client.Execute(ctx, statsSQL(c.table), nil)
	if err != nil {
		return vectordb.Stats{}, &vectordb.CollectionError{Op: "stats", Collection: c.name, Err: err}
	}

	stats = vectordb.Stats{
		Dimension:  c.config.Dimension,
		Metric:     c.config.Metric,
		Namespaces: make(map[string]int64, len(rows)),
	}
	for _, row := range rows {
		ns, err := stringValue(row, "namespace")
		if err != nil {
			return vectordb.Stats{}, &vectordb.CollectionError{Op: "stats", Collection: c.name, Err: err}
		}
		n, err := intValue(row, "n")
		if err != nil {
			return vectordb.Stats{}, &vectordb.CollectionError{Op: "stats", Collection: c.name, Err: err}
		}
		stats.Namespaces[ns] = n
		stats.TotalCount += n
	}
	return stats, nil
}

// ── Helpers ───────────────────────────────────────────────────

func (c *Collection) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embedder == nil {
		return nil, &vectordb.ValidationError{Field: "text", Reason: "no embedder configured for text input"}
	}
	vectors, err := c.embedder.Embed(ctx, texts, c.config.EmbeddingModel)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}
	return vectors, nil
}

// vectorArg checks v against the collection dimension and encodes it.
func (c *Collection) vectorArg(v []float32, field, id string) (pgvector.Vector, error) {
	if err := c.checkDimension(v, field, id); err != nil {
		return pgvector.Vector{}, err
	}
	vec, err := encodeVector(v)
	if err != nil {
		return pgvector.Vector{}, &vectordb.ValidationError{Field: field, DocumentID: id, Reason: err.Error()}
	}
	return vec, nil
}

func (c *Collection) checkDimension(v []float32, field, id string) error {
	if len(v) != c.config.Dimension {
		return &vectordb.ValidationError{
			Field:      field,
			DocumentID: id,
			Reason:     fmt.Sprintf("vector has dimension %d, collection %s expects %d", len(v), c.name, c.config.Dimension),
		}
	}
	return nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
