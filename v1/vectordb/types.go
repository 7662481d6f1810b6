package vectordb

import "time"

const (
	// DefaultNamespace is used whenever a request leaves Namespace empty.
	DefaultNamespace = "default"

	// DefaultTopK is the number of matches returned when SearchRequest.TopK is nil.
	DefaultTopK = 10
)

// Filter is a MongoDB-style metadata filter object.
//
// Keys are metadata field names (dotted names address nested objects). A
// value is either a literal (implicit $eq) or an operator map using
// $eq, $ne, $gt, $gte, $lt, $lte or $in:
//
//	vectordb.Filter{
//	    "genre": "fiction",
//	    "price": map[string]any{"$gte": 100, "$lte": 200},
//	}
//
// The filter package parses and compiles it.
type Filter map[string]any

// Document is a single record stored in a collection.
//
// Either Text or Vector must be set. When both are present Vector wins and
// no embedding call is made.
type Document struct {
	// ID is unique within a namespace
	ID string `json:"id"`

	// Text is the source text, embedded when Vector is empty
	Text string `json:"text,omitempty"`

	// Metadata is arbitrary JSON-like data used for filtering
	Metadata map[string]any `json:"metadata,omitempty"`

	// Vector is the dense embedding; its length must equal the collection dimension
	Vector []float32 `json:"vector,omitempty"`
}

// NewTextDocument creates a document whose vector is computed from text on upsert.
func NewTextDocument(id, text string, metadata map[string]any) Document {
	return Document{ID: id, Text: text, Metadata: metadata}
}

// NewVectorDocument creates a document carrying an explicit vector.
func NewVectorDocument(id string, vector []float32, metadata map[string]any) Document {
	return Document{ID: id, Vector: vector, Metadata: metadata}
}

// NeedsEmbedding reports whether the document's vector has to be computed from its text.
func (d Document) NeedsEmbedding() bool {
	return len(d.Vector) == 0
}

// Validate rejects documents that can never be stored.
func (d Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Reason: "document id cannot be empty"}
	}
	if len(d.Vector) == 0 && d.Text == "" {
		return &ValidationError{Field: "text", DocumentID: d.ID, Reason: "document needs either text or vector"}
	}
	return nil
}

// CollectionConfig is fixed when a collection is created.
type CollectionConfig struct {
	// Dimension is the length of every vector in the collection
	Dimension int `json:"dimension" yaml:"dimension"`

	// Metric is the distance function used for search
	Metric Metric `json:"metric" yaml:"metric"`

	// EmbeddingModel is the model used to embed document and query text
	EmbeddingModel string `json:"embeddingModel,omitempty" yaml:"embedding_model"`
}

// Validate checks dimension and metric.
func (c CollectionConfig) Validate() error {
	if c.Dimension <= 0 {
		return &ValidationError{Field: "dimension", Reason: "dimension must be a positive integer"}
	}
	return c.Metric.Validate()
}

// Collection describes an existing collection.
type Collection struct {
	Name      string           `json:"name"`
	Config    CollectionConfig `json:"config"`
	CreatedAt time.Time        `json:"createdAt"`
}

// UpsertRequest inserts or overwrites documents keyed by (id, namespace).
type UpsertRequest struct {
	Namespace string     `json:"namespace,omitempty"`
	Documents []Document `json:"documents"`
}

// UpsertResponse reports how many documents were written.
type UpsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// SearchRequest represents a single similarity search.
// Exactly one of Vector or Query must be set.
type SearchRequest struct {
	Namespace string `json:"namespace,omitempty"`

	// Vector is an explicit query embedding
	Vector []float32 `json:"vector,omitempty"`

	// Query is embedded with the collection's model when Vector is empty
	Query string `json:"query,omitempty"`

	// TopK is the maximum number of matches; nil means DefaultTopK
	TopK *int `json:"topK,omitempty"`

	// Filter restricts matches by metadata
	Filter Filter `json:"filter,omitempty"`

	IncludeMetadata bool `json:"includeMetadata,omitempty"`
	IncludeVector   bool `json:"includeVector,omitempty"`
	IncludeText     bool `json:"includeText,omitempty"`
}

// QueryMatch is a ranked search hit. Score is higher for more similar documents.
type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Vector   []float32      `json:"vector,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// SearchResponse holds ranked matches for one namespace.
type SearchResponse struct {
	Namespace string       `json:"namespace"`
	Matches   []QueryMatch `json:"matches"`
}

// FetchRequest looks documents up by id.
type FetchRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	IDs       []string `json:"ids"`
}

// FetchResponse lists the documents that exist, in request order.
type FetchResponse struct {
	Namespace string     `json:"namespace"`
	Documents []Document `json:"documents"`
}

// UpdateRequest changes the text and/or metadata of one document.
type UpdateRequest struct {
	Namespace string `json:"namespace,omitempty"`
	ID        string `json:"id"`

	// Text replaces the stored text and triggers re-embedding
	Text *string `json:"text,omitempty"`

	// Metadata replaces the stored metadata object
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DeleteRequest removes documents. Every mode that is set is applied.
type DeleteRequest struct {
	Namespace string   `json:"namespace,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	Filter    Filter   `json:"filter,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
}

// DeleteResponse reports the number of removed documents across all modes.
type DeleteResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

// Stats summarises a collection.
type Stats struct {
	Dimension  int              `json:"dimension"`
	Metric     Metric           `json:"metric"`
	Namespaces map[string]int64 `json:"namespaces"`
	TotalCount int64            `json:"totalCount"`
}

// NamespaceOrDefault returns ns, or DefaultNamespace when ns is empty.
func NamespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// TopK returns a pointer to k for use in SearchRequest.
func TopK(k int) *int {
	return &k
}
