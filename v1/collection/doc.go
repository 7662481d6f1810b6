// Package collection stores and searches documents in PostgreSQL with
// pgvector, behind the vectordb.Service API.
//
// # Layout
//
// Every collection is one table named after the collection:
//
//	namespace  text        ┐ primary key
//	id         text        ┘
//	text       text
//	metadata   jsonb
//	embedding  vector(dimension)
//	created_at, updated_at timestamptz
//
// plus an HNSW index using the operator class of the collection's metric.
// The vecdocs_collections table records each collection's dimension,
// metric and embedding model.
//
// # Usage
//
//	manager, err := collection.NewManager(collection.DefaultConfig(), database.NewPostgresClient(pg), pipeline)
//	if err != nil {
//	    return err
//	}
//
//	docs, err := manager.CreateCollection(ctx, "articles", vectordb.CollectionConfig{
//	    Dimension: 1536,
//	    Metric:    vectordb.MetricCosine,
//	})
//
//	_, err = docs.Upsert(ctx, vectordb.UpsertRequest{
//	    Namespace: "tenant-a",
//	    Documents: []vectordb.Document{
//	        vectordb.NewTextDocument("a1", "Postgres can do vector search", map[string]any{"lang": "en"}),
//	    },
//	})
//
//	resp, err := docs.Search(ctx, vectordb.SearchRequest{
//	    Namespace:       "tenant-a",
//	    Query:           "vector databases",
//	    TopK:            vectordb.TopK(5),
//	    Filter:          vectordb.Filter{"lang": "en"},
//	    IncludeMetadata: true,
//	})
//
// # Statements
//
// Each operation issues its statements one after another through
// database.Client. Upsert writes all documents with one ExecuteMany, which the
// postgres client runs in a single transaction. Search is a single
// SELECT ordered by the pgvector distance operator (<=>, <-> or <#>) and
// limited to topK; the metadata filter is compiled by the filter package and
// every value is a bound parameter. Table names are validated and quoted.
//
// # Instrumentation
//
// Every operation starts a span (through the configured Tracer or the global
// OpenTelemetry provider), reports an observability event with component
// "collection", and logs failures.
package collection
