package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travetto/travetto-sub016/internal/adapters/metrics"
	"github.com/travetto/travetto-sub016/internal/core/ports"
)

var _ ports.Metrics = (*metrics.Collector)(nil)

func TestCollector_FileCompiled(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.FileCompiled(ports.OutcomeCompiled, 20*time.Millisecond)
	m.FileCompiled(ports.OutcomeCompiled, 5*time.Millisecond)
	m.FileCompiled(ports.OutcomeCached, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.FilesTotal.WithLabelValues("compiled")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FilesTotal.WithLabelValues("cached")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.FilesTotal.WithLabelValues("failed")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.FileDuration))
}

func TestCollector_CacheAndBatches(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	m.CacheLookup("hit")
	m.CacheLookup("miss")
	m.CacheLookup("miss")
	m.BatchFinished("ok", 3)
	m.BatchFinished("superseded", 3)
	m.BatchFinished("ok", 4)

	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.BatchesTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.Generation), 0)

	expected := `
# HELP trv_cache_lookups_total Total number of cache lookups, by result
# TYPE trv_cache_lookups_total counter
trv_cache_lookups_total{result="hit"} 1
trv_cache_lookups_total{result="miss"} 2
`
	require.NoError(t, testutil.CollectAndCompare(m.CacheLookups, strings.NewReader(expected)))
}

func TestCollector_Handler(t *testing.T) {
	m := metrics.New()
	m.BatchFinished("ok", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `trv_batches_total{status="ok"} 1`)
	assert.Contains(t, string(body), "trv_manifest_generation 1")
	assert.Contains(t, string(body), "go_goroutines")
}
