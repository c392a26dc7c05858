package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements every hook interface on top of Prometheus collectors.
type Prometheus struct {
	resolveRuns      *prometheus.CounterVec
	resolveDuration  prometheus.Histogram
	resolvedPackages prometheus.Histogram
	discoverySteps   *prometheus.CounterVec
	installRuns      *prometheus.CounterVec
	installDuration  prometheus.Histogram
	cacheEvents      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		resolveRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugable",
			Name:      "resolve_runs_total",
			Help:      "Dependency resolution runs by outcome.",
		}, []string{"outcome"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plugable",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of dependency resolution runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		resolvedPackages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plugable",
			Name:      "resolve_packages",
			Help:      "Number of packages ordered per resolution run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		discoverySteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugable",
			Name:      "discovery_steps_total",
			Help:      "Dependency discovery results by step.",
		}, []string{"step"}),
		installRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugable",
			Name:      "install_runs_total",
			Help:      "Installer invocations by outcome.",
		}, []string{"outcome"}),
		installDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "plugable",
			Name:      "install_duration_seconds",
			Help:      "Duration of installer invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugable",
			Name:      "cache_events_total",
			Help:      "Cache hits, misses and writes by key type.",
		}, []string{"event", "key_type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugable",
			Name:      "http_client_requests_total",
			Help:      "Outgoing HTTP requests by host and status.",
		}, []string{"host", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "plugable",
			Name:      "http_client_duration_seconds",
			Help:      "Outgoing HTTP request latency by host.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
	}
	if reg != nil {
		reg.MustRegister(
			p.resolveRuns, p.resolveDuration, p.resolvedPackages, p.discoverySteps,
			p.installRuns, p.installDuration, p.cacheEvents, p.httpRequests, p.httpDuration,
		)
	}
	return p
}

// Install registers p as the global resolve, install, cache and HTTP hooks.
func (p *Prometheus) Install() {
	SetResolveHooks(p)
	SetInstallHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *Prometheus) OnResolveStart(context.Context, string, int) {}

func (p *Prometheus) OnPackageDiscovered(_ context.Context, _ string, step string, _ int) {
	p.discoverySteps.WithLabelValues(step).Inc()
}

func (p *Prometheus) OnResolveComplete(_ context.Context, _ string, packages int, d time.Duration, err error) {
	p.resolveRuns.WithLabelValues(outcome(err)).Inc()
	p.resolveDuration.Observe(d.Seconds())
	if err == nil {
		p.resolvedPackages.Observe(float64(packages))
	}
}

func (p *Prometheus) OnInstallStart(context.Context, []string) {}

func (p *Prometheus) OnInstallComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.installRuns.WithLabelValues(outcome(err)).Inc()
	p.installDuration.Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues("hit", keyType).Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues("miss", keyType).Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.cacheEvents.WithLabelValues("set", keyType).Inc()
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _ string, host, _ string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(host, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _ string, host, _ string, _ error) {
	p.httpRequests.WithLabelValues(host, "error").Inc()
}
