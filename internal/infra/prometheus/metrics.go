package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "powerread"

// Metrics holds the application counters and satisfies the service layer's
// Recorder interface.
type Metrics struct {
	registry        *prometheus.Registry
	fetches         *prometheus.CounterVec
	tagsSwept       prometheus.Counter
	eventsPublished *prometheus.CounterVec
}

// NewMetrics registers the counters, plus Go runtime and process collectors,
// on a registry of their own.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Content fetches by outcome.",
		}, []string{"outcome"}),
		tagsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tags_swept_total",
			Help:      "Orphaned tags deleted.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Entry events published by event name and result.",
		}, []string{"event", "result"}),
	}

	m.registry.MustRegister(
		m.fetches,
		m.tagsSwept,
		m.eventsPublished,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to serve on /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) FetchCompleted(outcome string) {
	m.fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) TagsSwept(count int64) {
	if count > 0 {
		m.tagsSwept.Add(float64(count))
	}
}

func (m *Metrics) EventPublished(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.eventsPublished.WithLabelValues(name, result).Inc()
}
