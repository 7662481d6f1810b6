// Package vectordb defines the database-agnostic types shared by every vecdocs package.
//
// # Overview
//
// A collection holds documents (id, optional text, metadata, vector) that are
// partitioned by namespace. The same id may exist independently in two
// namespaces. This package contains:
//
//   - Document, CollectionConfig and the request/response types used by [Service]
//   - The error kinds returned across the library (ValidationError,
//     EmbeddingError, SearchError, CollectionError)
//   - The similarity scorer: [Metric.Score] and [Rank]
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    Application Layer                        │
//	│              (depends on vectordb.Service)                  │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                           ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│                  collection.Collection                      │
//	│     filter.Compile · embedding.Pipeline · vectordb.Rank     │
//	└──────────────────────────┬──────────────────────────────────┘
//	                           │
//	                           ▼
//	┌─────────────────────────────────────────────────────────────┐
//	│          database.Client (postgres + pgvector)              │
//	└─────────────────────────────────────────────────────────────┘
//
// # Scores
//
// The store reports a distance (lower is closer). Callers always see a score
// where higher means more similar:
//
//	| Metric      | Store operator | Score        |
//	|-------------|----------------|--------------|
//	| cosine      | <=>            | 1 - d        |
//	| euclidean   | <->            | 1 / (1 + d)  |
//	| dot_product | <#>            | -d           |
//
// # Errors
//
// Every error kind supports errors.As:
//
//	var verr *vectordb.ValidationError
//	if errors.As(err, &verr) {
//	    log.Printf("bad request field=%s doc=%s: %s", verr.Field, verr.DocumentID, verr.Reason)
//	}
//
// A search with neither vector nor query returns a SearchError wrapping a
// ValidationError, so both checks succeed.
package vectordb
