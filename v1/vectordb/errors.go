package vectordb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDocumentNotFound is returned by Update when no row matches (id, namespace)
	ErrDocumentNotFound = errors.New("document not found")

	// ErrCollectionNotFound is returned when a collection is not registered
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned when creating a collection that is already registered
	ErrCollectionExists = errors.New("collection already exists")
)

// ValidationError reports a malformed request: missing fields, a dimension
// mismatch, an unsupported filter operator and similar.
type ValidationError struct {
	Field      string
	DocumentID string
	Reason     string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("vecdocs: validation failed")
	if e.Field != "" {
		fmt.Fprintf(&b, " on %s", e.Field)
	}
	if e.DocumentID != "" {
		fmt.Fprintf(&b, " (document %q)", e.DocumentID)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// EmbeddingError reports a failed provider call for the batch [Start, End)
// of the deduplicated texts sent to the provider.
type EmbeddingError struct {
	Model string
	Start int
	End   int
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("vecdocs: embedding batch [%d:%d] with model %q failed: %v", e.Start, e.End, e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// SearchError reports a search that could not be executed, either because
// the request named no query or because the store query failed.
type SearchError struct {
	Collection string
	Namespace  string
	Err        error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("vecdocs: search in %s/%s failed: %v", e.Collection, e.Namespace, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// CollectionError reports a store failure during upsert, update, delete,
// fetch, stats or collection management.
type CollectionError struct {
	Op         string
	Collection string
	DocumentID string
	Err        error
}

func (e *CollectionError) Error() string {
	if e.DocumentID != "" {
		return fmt.Sprintf("vecdocs: %s on %s (document %q) failed: %v", e.Op, e.Collection, e.DocumentID, e.Err)
	}
	return fmt.Sprintf("vecdocs: %s on %s failed: %v", e.Op, e.Collection, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
