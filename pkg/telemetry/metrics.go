package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for the API.
type Metrics struct {
	apiRequests      *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	orgMutations     *prometheus.CounterVec
	titleCardRenders *prometheus.CounterVec
	hookFailures     *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "richhabits_api_requests_total",
		Help: "Counts API requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "richhabits_api_duration_seconds",
		Help:    "API request latency per method/route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	orgMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "richhabits_organization_mutations_total",
		Help: "Counts organization create/update/delete operations by outcome.",
	}, []string{"op", "outcome"})

	titleCardRenders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "richhabits_title_card_renders_total",
		Help: "Counts title-card generation attempts by outcome.",
	}, []string{"outcome"})

	hookFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "richhabits_post_commit_hook_failures_total",
		Help: "Counts post-commit hooks that exhausted their retries.",
	}, []string{"hook"})

	reg.MustRegister(apiRequests, apiDuration, orgMutations, titleCardRenders, hookFailures)
	return &Metrics{
		apiRequests:      apiRequests,
		apiDuration:      apiDuration,
		orgMutations:     orgMutations,
		titleCardRenders: titleCardRenders,
		hookFailures:     hookFailures,
	}
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// OrgMutation records an organization write operation outcome.
func (m *Metrics) OrgMutation(op, outcome string) {
	m.orgMutations.WithLabelValues(op, outcome).Inc()
}

// TitleCardRender records a title-card generation outcome.
func (m *Metrics) TitleCardRender(outcome string) {
	m.titleCardRenders.WithLabelValues(outcome).Inc()
}

// HookFailure records a post-commit hook that failed after all retries.
func (m *Metrics) HookFailure(hook string) {
	m.hookFailures.WithLabelValues(hook).Inc()
}
