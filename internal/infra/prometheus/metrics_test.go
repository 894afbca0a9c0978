package prometheus

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sifan077/PowerRead/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.FetchCompleted("succeeded")
	m.FetchCompleted("succeeded")
	m.FetchCompleted("degraded")
	m.TagsSwept(3)
	m.TagsSwept(0)
	m.EventPublished("entry.saved", nil)
	m.EventPublished("entry.saved", errors.New("nats down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetches.WithLabelValues("succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("degraded")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tagsSwept))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("entry.saved", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("entry.saved", "error")))
}

func TestServerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.TagsSwept(1)

	srv := NewServer(config.PrometheusConfig{Port: 9191}, m.Registry())
	assert.Equal(t, ":9191", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "powerread_tags_swept_total 1")
}
