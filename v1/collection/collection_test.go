package collection

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Aleph-Alpha/vecdocs/v1/database"
	"github.com/Aleph-Alpha/vecdocs/v1/observability"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// fakeEmbedder maps each text to a fixed vector and records calls.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   [][]string
	models  []string
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string, model string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string(nil), texts...))
	f.models = append(f.models, model)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (r *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ctx)
}

func newTestCollection(t *testing.T, metric vectordb.Metric, dim int, embedder Embedder) (*Collection, *database.MockClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	client := database.NewMockClient(ctrl)

	coll, err := NewCollection("docs", vectordb.CollectionConfig{
		Dimension:      dim,
		Metric:         metric,
		EmbeddingModel: "test-model",
	}, client, embedder)
	require.NoError(t, err)
	return coll, client
}

func TestNewCollectionValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := database.NewMockClient(ctrl)

	_, err := NewCollection("1bad", vectordb.CollectionConfig{Dimension: 2, Metric: vectordb.MetricCosine}, client, nil)
	assert.True(t, vectordb.IsValidation(err))

	_, err = NewCollection("docs", vectordb.CollectionConfig{Dimension: 0, Metric: vectordb.MetricCosine}, client, nil)
	assert.True(t, vectordb.IsValidation(err))

	_, err = NewCollection("docs", vectordb.CollectionConfig{Dimension: 2, Metric: "manhattan"}, client, nil)
	assert.True(t, vectordb.IsValidation(err))

	_, err = NewCollection("docs", vectordb.CollectionConfig{Dimension: 2, Metric: vectordb.MetricCosine}, nil, nil)
	assert.Error(t, err)
}

// ── Upsert ────────────────────────────────────────────────────

func TestUpsert_WritesAllDocumentsInOneBatch(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"hello": {0.5, 0.25},
		"world": {1, 0},
	}}
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, embedder)

	client.EXPECT().
		ExecuteMany(gomock.Any(), upsertSQL(`"docs"`), [][]any{
			{"tenant", "a", "hello", `{"genre":"drama"}`, pgvector.NewVector([]float32{0.5, 0.25})},
			{"tenant", "b", nil, "{}", pgvector.NewVector([]float32{0.1, 0.2})},
			{"tenant", "c", "world", "{}", pgvector.NewVector([]float32{1, 0})},
		}).
		Return(int64(3), nil)

	resp, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Namespace: "tenant",
		Documents: []vectordb.Document{
			vectordb.NewTextDocument("a", "hello", map[string]any{"genre": "drama"}),
			vectordb.NewVectorDocument("b", []float32{0.1, 0.2}, nil),
			vectordb.NewTextDocument("c", "world", nil),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.UpsertedCount)

	require.Len(t, embedder.calls, 1, "text documents are embedded in a single call")
	assert.Equal(t, []string{"hello", "world"}, embedder.calls[0])
	assert.Equal(t, []string{"test-model"}, embedder.models)
}

func TestUpsert_VectorWinsOverText(t *testing.T) {
	embedder := &fakeEmbedder{}
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, embedder)

	client.EXPECT().
		ExecuteMany(gomock.Any(), gomock.Any(), [][]any{{"default", "a", "ignored for embedding", "{}", pgvector.NewVector([]float32{1, 2})}}).
		Return(int64(1), nil)

	_, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Documents: []vectordb.Document{{ID: "a", Text: "ignored for embedding", Vector: []float32{1, 2}}},
	})
	require.NoError(t, err)
	assert.Empty(t, embedder.calls)
}

func TestUpsert_FailFastOnDimensionMismatch(t *testing.T) {
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 3, nil)

	// No ExecuteMany expectation: any write fails the test.
	_, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Documents: []vectordb.Document{
			vectordb.NewVectorDocument("ok", []float32{1, 2, 3}, nil),
			vectordb.NewVectorDocument("short", []float32{1, 2}, nil),
		},
	})

	var vErr *vectordb.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "short", vErr.DocumentID)
}

func TestUpsert_ChecksExplicitVectorsBeforeEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"hello": {1, 2, 3}}}
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 3, embedder)

	for name, vector := range map[string][]float32{
		"wrong dimension": {1, 2},
		"not finite":      {1, 2, float32(math.Inf(1))},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
				Documents: []vectordb.Document{
					vectordb.NewTextDocument("text", "hello", nil),
					vectordb.NewVectorDocument("explicit", vector, nil),
				},
			})

			var vErr *vectordb.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, "explicit", vErr.DocumentID)
			assert.Empty(t, embedder.calls)
		})
	}
}

func TestUpsert_RejectsInvalidDocuments(t *testing.T) {
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 2, nil)

	_, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Documents: []vectordb.Document{{ID: "empty"}},
	})
	assert.True(t, vectordb.IsValidation(err))

	_, err = coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Documents: []vectordb.Document{vectordb.NewTextDocument("t", "needs an embedder", nil)},
	})
	assert.True(t, vectordb.IsValidation(err))
}

func TestUpsert_EmbeddingFailureWritesNothing(t *testing.T) {
	providerErr := &vectordb.EmbeddingError{Model: "test-model", Start: 0, End: 1, Err: errors.New("503")}
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 2, &fakeEmbedder{err: providerErr})

	_, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Documents: []vectordb.Document{vectordb.NewTextDocument("a", "hello", nil)},
	})

	var embErr *vectordb.EmbeddingError
	require.True(t, errors.As(err, &embErr))
	var collErr *vectordb.CollectionError
	require.True(t, errors.As(err, &collErr))
	assert.Equal(t, "upsert", collErr.Op)
}

func TestUpsert_StoreFailure(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 1, nil)
	storeErr := errors.New("connection reset")
	client.EXPECT().ExecuteMany(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), storeErr)

	_, err := coll.Upsert(context.Background(), vectordb.UpsertRequest{
		Documents: []vectordb.Document{vectordb.NewVectorDocument("a", []float32{1}, nil)},
	})
	assert.ErrorIs(t, err, storeErr)
	var collErr *vectordb.CollectionError
	assert.True(t, errors.As(err, &collErr))
}

// ── Search ────────────────────────────────────────────────────

func TestSearch_CosineIdenticalVectorScoresOne(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, nil)

	client.EXPECT().
		Execute(gomock.Any(), gomock.Any(), []any{pgvector.NewVector([]float32{1, 0}), "default", 1}).
		DoAndReturn(func(_ context.Context, stmt string, _ []any) ([]database.Row, error) {
			assert.Contains(t, stmt, "(embedding <=> ?::vector) AS distance")
			assert.Contains(t, stmt, "WHERE namespace = ?")
			assert.True(t, strings.HasSuffix(stmt, "ORDER BY distance LIMIT ?"))
			return []database.Row{{"id": "x", "distance": float64(0)}}, nil
		})

	resp, err := coll.Search(context.Background(), vectordb.SearchRequest{
		Vector: []float32{1, 0},
		TopK:   vectordb.TopK(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "default", resp.Namespace)
	assert.Equal(t, []vectordb.QueryMatch{{ID: "x", Score: 1.0}}, resp.Matches)
}

func TestSearch_MetricOperators(t *testing.T) {
	tests := []struct {
		metric   vectordb.Metric
		operator string
		distance float64
		score    float64
	}{
		{vectordb.MetricCosine, "<=>", 0.25, 0.75},
		{vectordb.MetricEuclidean, "<->", 1, 0.5},
		{vectordb.MetricDotProduct, "<#>", -3, 3},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			coll, client := newTestCollection(t, tt.metric, 1, nil)
			client.EXPECT().
				Execute(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, stmt string, _ []any) ([]database.Row, error) {
					assert.Contains(t, stmt, "embedding "+tt.operator+" ?::vector")
					return []database.Row{{"id": "a", "distance": tt.distance}}, nil
				})

			resp, err := coll.Search(context.Background(), vectordb.SearchRequest{Vector: []float32{1}})
			require.NoError(t, err)
			require.Len(t, resp.Matches, 1)
			assert.InDelta(t, tt.score, resp.Matches[0].Score, 1e-12)
		})
	}
}

func TestSearch_QueryTextFilterAndIncludes(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"cheap books": {0, 1}}}
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, embedder)

	client.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, stmt string, args []any) ([]database.Row, error) {
			assert.Contains(t, stmt, "SELECT id, text, metadata::text AS metadata, embedding::text AS embedding, ")
			assert.Contains(t, stmt, "WHERE namespace = ? AND ")
			assert.Equal(t, strings.Count(stmt, "?"), len(args))

			require.GreaterOrEqual(t, len(args), 3)
			assert.Equal(t, pgvector.NewVector([]float32{0, 1}), args[0])
			assert.Equal(t, "shop", args[1])
			assert.Equal(t, vectordb.DefaultTopK, args[len(args)-1])
			assert.Contains(t, args, int64(200))
			return []database.Row{
				{"id": "far", "text": "b", "metadata": `{"price":150}`, "embedding": "[1,0]", "distance": 0.9},
				{"id": "near", "text": "a", "metadata": `{"price":120}`, "embedding": "[0,1]", "distance": 0.1},
			}, nil
		})

	resp, err := coll.Search(context.Background(), vectordb.SearchRequest{
		Namespace:       "shop",
		Query:           "cheap books",
		Filter:          vectordb.Filter{"price": map[string]any{"$lt": 200}},
		IncludeMetadata: true,
		IncludeVector:   true,
		IncludeText:     true,
	})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "near", resp.Matches[0].ID)
	assert.Equal(t, "a", resp.Matches[0].Text)
	assert.Equal(t, map[string]any{"price": int64(120)}, resp.Matches[0].Metadata)
	assert.Equal(t, []float32{0, 1}, resp.Matches[0].Vector)
	assert.Greater(t, resp.Matches[0].Score, resp.Matches[1].Score)
}

func TestSearch_RequestErrorsAreSearchErrors(t *testing.T) {
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 2, &fakeEmbedder{})

	tests := []struct {
		name string
		req  vectordb.SearchRequest
	}{
		{"neither vector nor query", vectordb.SearchRequest{}},
		{"both vector and query", vectordb.SearchRequest{Vector: []float32{1, 0}, Query: "q"}},
		{"zero topK", vectordb.SearchRequest{Vector: []float32{1, 0}, TopK: vectordb.TopK(0)}},
		{"negative topK", vectordb.SearchRequest{Vector: []float32{1, 0}, TopK: vectordb.TopK(-3)}},
		{"dimension mismatch", vectordb.SearchRequest{Vector: []float32{1, 0, 0}}},
		{"unknown operator", vectordb.SearchRequest{Vector: []float32{1, 0}, Filter: vectordb.Filter{"a": map[string]any{"$regex": "x"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.Search(context.Background(), tt.req)
			var sErr *vectordb.SearchError
			require.True(t, errors.As(err, &sErr))
			assert.Equal(t, "docs", sErr.Collection)
			assert.True(t, vectordb.IsValidation(err))
		})
	}
}

func TestSearch_StoreFailure(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 1, nil)
	storeErr := errors.New("statement timeout")
	client.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, storeErr)

	_, err := coll.Search(context.Background(), vectordb.SearchRequest{Namespace: "n", Vector: []float32{1}})
	var sErr *vectordb.SearchError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, "n", sErr.Namespace)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, vectordb.IsValidation(err))
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 1, nil)
	client.EXPECT().
		Execute(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]database.Row{
			{"id": "a", "distance": 0.3},
			{"id": "b", "distance": 0.1},
			{"id": "c", "distance": 0.2},
		}, nil)

	resp, err := coll.Search(context.Background(), vectordb.SearchRequest{Vector: []float32{1}, TopK: vectordb.TopK(2)})
	require.NoError(t, err)
	require.Len(t, resp.Matches, 2)
	assert.Equal(t, "b", resp.Matches[0].ID)
	assert.Equal(t, "c", resp.Matches[1].ID)
}

// ── Fetch ─────────────────────────────────────────────────────

func TestFetch_RequestOrderAndMissingIDs(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, nil)

	client.EXPECT().
		Execute(gomock.Any(), fetchSQL(`"docs"`, 3), []any{"ns", "b", "missing", "a"}).
		Return([]database.Row{
			{"id": "a", "text": nil, "metadata": `{"k":"v"}`, "embedding": "[1,2]"},
			{"id": "b", "text": "hello", "metadata": `{}`, "embedding": "[0.5,-1]"},
		}, nil)

	resp, err := coll.Fetch(context.Background(), vectordb.FetchRequest{
		Namespace: "ns",
		IDs:       []string{"b", "missing", "a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 2)
	assert.Equal(t, vectordb.Document{ID: "b", Text: "hello", Metadata: map[string]any{}, Vector: []float32{0.5, -1}}, resp.Documents[0])
	assert.Equal(t, vectordb.Document{ID: "a", Metadata: map[string]any{"k": "v"}, Vector: []float32{1, 2}}, resp.Documents[1])
}

func TestFetch_NoIDs(t *testing.T) {
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 2, nil)

	resp, err := coll.Fetch(context.Background(), vectordb.FetchRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Documents)
	assert.Equal(t, vectordb.DefaultNamespace, resp.Namespace)
}

// ── Update ────────────────────────────────────────────────────

func TestUpdate_TextReembeds(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{"new text": {3, 4}}}
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, embedder)

	text := "new text"
	client.EXPECT().
		Execute(gomock.Any(), updateSQL(`"docs"`, true, true), []any{"new text", pgvector.NewVector([]float32{3, 4}), `{"v":2}`, "default", "a"}).
		Return([]database.Row{{"id": "a"}}, nil)

	err := coll.Update(context.Background(), vectordb.UpdateRequest{
		ID:       "a",
		Text:     &text,
		Metadata: map[string]any{"v": 2},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"new text"}}, embedder.calls)
}

func TestUpdate_MetadataOnly(t *testing.T) {
	embedder := &fakeEmbedder{}
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, embedder)

	client.EXPECT().
		Execute(gomock.Any(), updateSQL(`"docs"`, false, true), []any{`{"tag":"x"}`, "ns", "a"}).
		Return([]database.Row{{"id": "a"}}, nil)

	err := coll.Update(context.Background(), vectordb.UpdateRequest{Namespace: "ns", ID: "a", Metadata: map[string]any{"tag": "x"}})
	require.NoError(t, err)
	assert.Empty(t, embedder.calls)
}

func TestUpdate_NotFound(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, nil)
	client.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	err := coll.Update(context.Background(), vectordb.UpdateRequest{ID: "ghost", Metadata: map[string]any{}})
	assert.ErrorIs(t, err, vectordb.ErrDocumentNotFound)

	var collErr *vectordb.CollectionError
	require.True(t, errors.As(err, &collErr))
	assert.Equal(t, "ghost", collErr.DocumentID)
}

func TestUpdate_Validation(t *testing.T) {
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 2, &fakeEmbedder{})
	empty := ""

	assert.True(t, vectordb.IsValidation(coll.Update(context.Background(), vectordb.UpdateRequest{ID: "a"})))
	assert.True(t, vectordb.IsValidation(coll.Update(context.Background(), vectordb.UpdateRequest{Metadata: map[string]any{}})))
	assert.True(t, vectordb.IsValidation(coll.Update(context.Background(), vectordb.UpdateRequest{ID: "a", Text: &empty})))
}

// ── Delete ────────────────────────────────────────────────────

func TestDelete_AllModesInOrder(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, nil)

	gomock.InOrder(
		client.EXPECT().
			Execute(gomock.Any(), deleteByIDsSQL(`"docs"`, 2), []any{"ns", "a", "b"}).
			Return([]database.Row{{"n": int64(2)}}, nil),
		client.EXPECT().
			Execute(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, stmt string, args []any) ([]database.Row, error) {
				assert.Contains(t, stmt, "WHERE namespace = ? AND (")
				assert.Equal(t, "ns", args[0])
				return []database.Row{{"n": int64(3)}}, nil
			}),
		client.EXPECT().
			Execute(gomock.Any(), deleteAllSQL(`"docs"`), []any{"ns"}).
			Return([]database.Row{{"n": int64(5)}}, nil),
	)

	resp, err := coll.Delete(context.Background(), vectordb.DeleteRequest{
		Namespace: "ns",
		IDs:       []string{"a", "b", "a"},
		Filter:    vectordb.Filter{"genre": "drama"},
		DeleteAll: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.DeletedCount)
}

func TestDelete_Validation(t *testing.T) {
	coll, _ := newTestCollection(t, vectordb.MetricCosine, 2, nil)

	_, err := coll.Delete(context.Background(), vectordb.DeleteRequest{})
	assert.True(t, vectordb.IsValidation(err))

	// A bad filter aborts before the id delete runs.
	_, err = coll.Delete(context.Background(), vectordb.DeleteRequest{
		IDs:    []string{"a"},
		Filter: vectordb.Filter{"a": map[string]any{"$nin": []any{1}}},
	})
	assert.True(t, vectordb.IsValidation(err))
}

func TestDelete_StoreFailure(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 2, nil)
	client.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("lock timeout"))

	_, err := coll.Delete(context.Background(), vectordb.DeleteRequest{DeleteAll: true})
	var collErr *vectordb.CollectionError
	require.True(t, errors.As(err, &collErr))
	assert.Equal(t, "delete", collErr.Op)
}

// ── Stats ─────────────────────────────────────────────────────

func TestStats(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricEuclidean, 4, nil)
	client.EXPECT().
		Execute(gomock.Any(), statsSQL(`"docs"`), gomock.Nil()).
		Return([]database.Row{
			{"namespace": "a", "n": int64(2)},
			{"namespace": "default", "n": int64(5)},
		}, nil)

	stats, err := coll.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, vectordb.Stats{
		Dimension:  4,
		Metric:     vectordb.MetricEuclidean,
		Namespaces: map[string]int64{"a": 2, "default": 5},
		TotalCount: 7,
	}, stats)
}

// ── Instrumentation ───────────────────────────────────────────

func TestObserverReceivesOperations(t *testing.T) {
	coll, client := newTestCollection(t, vectordb.MetricCosine, 1, nil)
	obs := &recordingObserver{}
	coll.WithObserver(obs)

	client.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return([]database.Row{{"id": "a", "distance": 0.0}}, nil)
	client.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("down"))

	_, err := coll.Search(context.Background(), vectordb.SearchRequest{Namespace: "n", Vector: []float32{1}})
	require.NoError(t, err)
	_, err = coll.Stats(context.Background())
	require.Error(t, err)

	require.Len(t, obs.ops, 2)
	assert.Equal(t, "collection", obs.ops[0].Component)
	assert.Equal(t, "search", obs.ops[0].Operation)
	assert.Equal(t, "docs", obs.ops[0].Resource)
	assert.Equal(t, "n", obs.ops[0].SubResource)
	assert.Equal(t, int64(1), obs.ops[0].Size)
	assert.NoError(t, obs.ops[0].Error)

	assert.Equal(t, "stats", obs.ops[1].Operation)
	assert.Error(t, obs.ops[1].Error)
}
