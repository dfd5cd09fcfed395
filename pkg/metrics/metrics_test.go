package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, m *Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			require.NotEmpty(t, f.GetMetric())
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.DocsIndexedTotal.Add(3)
	assert.Equal(t, 3.0, counterValue(t, a, "boolir_docs_indexed_total"))
	assert.Equal(t, 0.0, counterValue(t, b, "boolir_docs_indexed_total"))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.SearchQueriesTotal.WithLabelValues("match").Inc()
	m.CacheHitsTotal.WithLabelValues("local").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `boolir_search_queries_total{result_type="match"} 1`)
	assert.Contains(t, body, `boolir_cache_hits_total{tier="local"} 1`)
}
