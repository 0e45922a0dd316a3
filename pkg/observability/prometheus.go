package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/crateview/pkg/errors"
)

const namespace = "crateview"

// Prometheus records hook events as Prometheus metrics.
type Prometheus struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	entities     prometheus.Histogram
	searches     prometheus.Counter
	searchTime   prometheus.Histogram
	cacheEvents  *prometheus.CounterVec
	cacheBytes   *prometheus.CounterVec
	requests     *prometheus.CounterVec
	responseTime *prometheus.HistogramVec
	requestErrs  *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "package_loads_total",
			Help:      "Package loads by outcome code.",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "package_load_duration_seconds",
			Help:      "Time to fetch and derive a package.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		entities: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "package_entities",
			Help:      "Entities per successfully loaded package.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches over session indexes.",
		}),
		searchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Cache lookups and writes.",
		}, []string{"key_type", "event"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_set_size_total",
			Help:      "Accumulated size of cache writes.",
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outgoing HTTP requests.",
		}, []string{"method", "host"}),
		responseTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_duration_seconds",
			Help:      "Outgoing HTTP request latency by status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host", "code"}),
		requestErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Outgoing HTTP requests that failed without a response.",
		}, []string{"method", "host"}),
	}
	if reg != nil {
		reg.MustRegister(p.collectors()...)
	}
	return p
}

func (p *Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.loads, p.loadDuration, p.entities, p.searches, p.searchTime,
		p.cacheEvents, p.cacheBytes, p.requests, p.responseTime, p.requestErrs,
	}
}

func (p *Prometheus) OnLoadStart(context.Context, string) {}

func (p *Prometheus) OnLoadComplete(_ context.Context, _ string, entityCount int, d time.Duration, err error) {
	result := resultLabel(err)
	p.loads.WithLabelValues(result).Inc()
	p.loadDuration.WithLabelValues(result).Observe(d.Seconds())
	if err == nil {
		p.entities.Observe(float64(entityCount))
	}
}

func (p *Prometheus) OnSearch(_ context.Context, _ int, d time.Duration) {
	p.searches.Inc()
	p.searchTime.Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(_ context.Context, method, host, _ string) {
	p.requests.WithLabelValues(method, host).Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, host, _ string, code int, d time.Duration) {
	p.responseTime.WithLabelValues(method, host, strconv.Itoa(code)).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, method, host, _ string, _ error) {
	p.requestErrs.WithLabelValues(method, host).Inc()
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return string(code)
	}
	if _, ok := errors.AsAlreadyIndexed(err); ok {
		return string(errors.ErrCodeAlreadyIndexed)
	}
	return string(errors.ErrCodeInternal)
}

var _ Hooks = (*Prometheus)(nil)
