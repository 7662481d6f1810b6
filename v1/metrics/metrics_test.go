package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/vecdocs/v1/observability"
)

func TestObserveOperation(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test"})

	m.ObserveOperation(observability.OperationContext{
		Component: "collection",
		Operation: "search",
		Resource:  "docs",
		Duration:  20 * time.Millisecond,
		Size:      3,
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "collection",
		Operation: "search",
		Resource:  "docs",
		Duration:  time.Millisecond,
		Error:     errors.New("boom"),
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("collection", "search", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("collection", "search", StatusError)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.operationSize))
	assert.Equal(t, 0, testutil.CollectAndCount(m.cacheLookups))
}

func TestObserveOperation_CacheLookups(t *testing.T) {
	m := NewMetrics(Config{})

	m.ObserveOperation(observability.OperationContext{
		Component: "embedding",
		Operation: "embed",
		Resource:  "mini",
		Size:      5,
		Metadata:  map[string]interface{}{"cache_hits": 3, "cache_misses": 2},
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "embedding",
		Operation: "embed",
		Resource:  "mini",
		Size:      1,
		Metadata:  map[string]interface{}{"cache_hits": int64(1), "cache_misses": 0},
	})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("mini", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("mini", "miss")))
}

func TestServiceLabelAndNamespace(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc", Namespace: "custom"})
	m.RecordOperation("embedding", "embed_batch", StatusSuccess, time.Second)

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	var found bool
	for _, family := range families {
		if family.GetName() != "custom_operations_total" {
			continue
		}
		found = true
		labels := map[string]string{}
		for _, pair := range family.GetMetric()[0].GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		assert.Equal(t, "svc", labels["service"])
		assert.Equal(t, "embed_batch", labels["operation"])
	}
	assert.True(t, found)
}

func TestCreateMetrics(t *testing.T) {
	m := NewMetrics(Config{})

	counter := m.CreateCounter("imports_total", "Imported files", []string{"source"})
	counter.WithLabelValues("cli").Add(2)
	gauge := m.CreateGauge("collections", "Known collections", nil)
	gauge.WithLabelValues().Set(4)
	hist := m.CreateHistogram("payload_bytes", "Payload size", []string{"kind"}, []float64{10, 100})
	hist.WithLabelValues("json").Observe(42)

	assert.Equal(t, 2.0, testutil.ToFloat64(counter))
	assert.Equal(t, 4.0, testutil.ToFloat64(gauge))

	assert.Panics(t, func() {
		m.CreateCounter("imports_total", "Imported files", []string{"source"})
	})
}

func TestHandler(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "svc"})
	m.RecordCacheLookups("mini", 1, 0)

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `vecdocs_embedding_cache_lookups_total{model="mini",result="hit",service="svc"} 1`))
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
}

func TestFXModule(t *testing.T) {
	var (
		m        *Metrics
		observer observability.Observer
	)
	app := fxtest.New(t,
		fx.Provide(func() Config { return Config{Address: "127.0.0.1:0"} }),
		FXModule,
		fx.Populate(&m, &observer),
	)
	app.RequireStart()

	require.NotNil(t, m)
	assert.Same(t, m, observer)
	observer.ObserveOperation(observability.OperationContext{Component: "collection", Operation: "upsert"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("collection", "upsert", StatusSuccess)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Stop(ctx))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{Address: ":9090"}.Validate())
	assert.Error(t, Config{Address: "9090"}.Validate())
}
