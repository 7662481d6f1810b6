package vectordb

import "context"

// Service is the Pinecone-style API exposed by a single collection.
// Application code should depend on this interface rather than on the
// concrete adapter so that it can be mocked in tests.
//
// Example usage:
//
//	func NewSearchService(db vectordb.Service) *SearchService {
//	    return &SearchService{db: db}
//	}
//
//	resp, err := db.Search(ctx, vectordb.SearchRequest{
//	    Namespace:       "tenant-a",
//	    Query:           "how do I reset my password",
//	    TopK:            vectordb.TopK(5),
//	    Filter:          vectordb.Filter{"lang": "en"},
//	    IncludeMetadata: true,
//	})
type Service interface {
	// Upsert inserts or overwrites documents keyed by (id, namespace).
	// Documents without a vector are embedded from their text first.
	Upsert(ctx context.Context, req UpsertRequest) (UpsertResponse, error)

	// Search returns the nearest documents to a vector or query text,
	// restricted to one namespace and an optional metadata filter.
	Search(ctx context.Context, req SearchRequest) (SearchResponse, error)

	// Fetch returns documents by id. Missing ids are simply absent.
	Fetch(ctx context.Context, req FetchRequest) (FetchResponse, error)

	// Update changes text and/or metadata of a single document.
	Update(ctx context.Context, req UpdateRequest) error

	// Delete removes documents by id, by filter, or the whole namespace.
	Delete(ctx context.Context, req DeleteRequest) (DeleteResponse, error)

	// Stats returns document counts per namespace.
	Stats(ctx context.Context) (Stats, error)
}
