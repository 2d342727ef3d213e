package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Prometheus struct {
	scopeOutcomes   *prometheus.CounterVec
	scopeDuration   *prometheus.HistogramVec
	sessionsOpened  *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	useCaseTotal    *prometheus.CounterVec
	useCaseDuration *prometheus.HistogramVec
	httpDuration    *prometheus.HistogramVec
	grpcDuration    *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	eventsTotal     *prometheus.CounterVec
}

var latencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

func NewPrometheusMetrics(reg prometheus.Registerer, serviceName string) *Prometheus {
	constLabels := prometheus.Labels{"service": serviceName}
	m := &Prometheus{
		scopeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gocommon_uow_scopes_total",
			Help:        "Root unit of work scopes by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		scopeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "gocommon_uow_scope_duration_seconds",
			Help:        "Lifetime of root unit of work scopes.",
			Buckets:     latencyBuckets,
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		sessionsOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "gocommon_sessions_opened_total",
			Help:        "Sessions opened through the resolver.",
			ConstLabels: constLabels,
		}, []string{"factory"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "gocommon_repository_query_duration_seconds",
			Help:        "Repository round trip latency.",
			Buckets:     latencyBuckets,
			ConstLabels: constLabels,
		}, []string{"entity", "operation", "status"}),
		useCaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_usecase_total",
			Help:        "Total number of Use Case executions.",
			ConstLabels: constLabels,
		}, []string{"use_case", "status"}),
		useCaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_usecase_duration_seconds",
			Help:        "Use Case execution latency.",
			Buckets:     latencyBuckets,
			ConstLabels: constLabels,
		}, []string{"use_case", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "app_http_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     latencyBuckets,
			ConstLabels: constLabels,
		}, []string{"method", "path", "status_code"}),
		grpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "grpc_duration_seconds",
			Help:        "Duration of gRPC requests.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}, []string{"grpc_service", "grpc_method", "status_code"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_cache_hits_total",
			Help:        "Lookups answered from a registry or cache.",
			ConstLabels: constLabels,
		}, []string{"cache_type"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_cache_misses_total",
			Help:        "Lookups that found nothing.",
			ConstLabels: constLabels,
		}, []string{"cache_type"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "app_domain_events_total",
			Help:        "Domain events dispatched.",
			ConstLabels: constLabels,
		}, []string{"event", "status"}),
	}

	reg.MustRegister(
		m.scopeOutcomes,
		m.scopeDuration,
		m.sessionsOpened,
		m.queryDuration,
		m.useCaseTotal,
		m.useCaseDuration,
		m.httpDuration,
		m.grpcDuration,
		m.cacheHits,
		m.cacheMisses,
		m.eventsTotal,
	)
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (p *Prometheus) RecordScopeOutcome(outcome string, duration time.Duration) {
	p.scopeOutcomes.WithLabelValues(outcome).Inc()
	p.scopeDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (p *Prometheus) RecordSessionOpened(factory string) {
	p.sessionsOpened.WithLabelValues(factory).Inc()
}

func (p *Prometheus) ObserveQueryDuration(entity, operation string, success bool, duration time.Duration) {
	p.queryDuration.WithLabelValues(entity, operation, status(success)).Observe(duration.Seconds())
}

func (p *Prometheus) RecordUseCaseExecution(useCase string, success bool, duration time.Duration) {
	s := status(success)
	p.useCaseTotal.WithLabelValues(useCase, s).Inc()
	p.useCaseDuration.WithLabelValues(useCase, s).Observe(duration.Seconds())
}

func (p *Prometheus) ObserveHTTPRequestDuration(method, path, code string, duration float64) {
	p.httpDuration.WithLabelValues(method, path, code).Observe(duration)
}

func (p *Prometheus) ObserveGRPCRequestDuration(service, method, code string, duration float64) {
	p.grpcDuration.WithLabelValues(service, method, code).Observe(duration)
}

func (p *Prometheus) IncCacheHit(cacheType string) {
	p.cacheHits.WithLabelValues(cacheType).Inc()
}

func (p *Prometheus) IncCacheMiss(cacheType string) {
	p.cacheMisses.WithLabelValues(cacheType).Inc()
}

func (p *Prometheus) IncEventsDispatched(eventName, st string) {
	p.eventsTotal.WithLabelValues(eventName, st).Inc()
}
