package prometrics

import (
	"sync"

	"github.com/rbritto/stockflow/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type metricSpec struct {
	help    string
	labels  []string
	buckets []float64
}

// Every metric the application emits is declared up front so label sets stay
// consistent across call sites.
var specs = map[observability.MetricKey]metricSpec{
	observability.MUsecaseRequests: {
		help:   "Total number of use case invocations.",
		labels: []string{"use_case", "outcome"},
	},
	observability.MUsecaseDuration: {
		help:    "Duration of use case execution in seconds.",
		labels:  []string{"use_case"},
		buckets: prometheus.DefBuckets,
	},
	observability.MStockAdjustments: {
		help:   "Committed stock adjustments.",
		labels: []string{"direction"},
	},
	observability.MNotificationSent: {
		help:   "Notifications delivered, per channel.",
		labels: []string{"channel"},
	},
	observability.MNotificationFailed: {
		help:   "Notification delivery failures, per channel.",
		labels: []string{"channel"},
	},
	observability.MRestockNotified: {
		help:   "Restock notifications produced by the monitor.",
		labels: []string{"outcome"},
	},
	observability.MEventPublishFailed: {
		help:   "Event publish failures, per event name.",
		labels: []string{"event"},
	},
}

// Provider registers metrics lazily against a prometheus registerer.
type Provider struct {
	reg        prometheus.Registerer
	namespace  string
	mu         sync.Mutex
	counters   map[observability.MetricKey]*prometheus.CounterVec
	histograms map[observability.MetricKey]*prometheus.HistogramVec
}

func New(namespace string, reg prometheus.Registerer) *Provider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Provider{
		reg:        reg,
		namespace:  namespace,
		counters:   make(map[observability.MetricKey]*prometheus.CounterVec),
		histograms: make(map[observability.MetricKey]*prometheus.HistogramVec),
	}
}

type counter struct{ v *prometheus.CounterVec }

func (c counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func (p *Provider) Counter(name observability.MetricKey) observability.Counter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.counters[name]; ok {
		return counter{v: v}
	}
	spec := specs[name]
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: p.namespace, Name: string(name), Help: spec.help,
	}, spec.labels)
	p.reg.MustRegister(cv)
	p.counters[name] = cv
	return counter{v: cv}
}

func (p *Provider) Histogram(name observability.MetricKey) observability.Histogram {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.histograms[name]; ok {
		return histogram{v: v}
	}
	spec := specs[name]
	buckets := spec.buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: p.namespace, Name: string(name), Help: spec.help, Buckets: buckets,
	}, spec.labels)
	p.reg.MustRegister(hv)
	p.histograms[name] = hv
	return histogram{v: hv}
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}
