package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := New()

	m.PageFetched("commits")
	m.PageFetched("commits")
	m.PageFetched("branches")
	m.CeilingReached("repositories")
	m.RepositoryFailed()
	m.RunFinished("finalized", 1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("commits")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesFetched.WithLabelValues("branches")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaginationCeilings.WithLabelValues("repositories")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RepositoryFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("finalized")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.PageFetched("commits")
		m.CeilingReached("commits")
		m.RepositoryFailed()
		m.RunFinished("failed", 1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.PageFetched("repositories")

	server := httptest.NewServer(m.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `giteastats_pages_fetched_total{kind="repositories"} 1`)
}
