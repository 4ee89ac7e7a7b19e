package chain

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationGetAccount  = "get_account"
	operationKeyAccounts = "key_accounts"

	outcomeSuccess = "success"
)

// Metrics instruments directory lookups.
type Metrics struct {
	Lookups        *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
}

// NewMetrics registers the resolver metrics with the default registerer.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(nil)
}

// NewMetricsWithRegistry registers the resolver metrics with registry, or the
// default registerer when registry is nil.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "eosauth_directory_lookups_total",
			Help: "Directory lookups by operation and outcome",
		}, []string{"operation", "outcome"}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eosauth_directory_lookup_duration_seconds",
			Help:    "Directory lookup latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// observe is safe on a nil receiver so the resolver can run without metrics.
func (m *Metrics) observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}

	outcome := outcomeSuccess
	if lookupErr, ok := err.(*AccountLookupError); ok {
		outcome = lookupErr.Kind.String()
	} else if err != nil {
		outcome = LookupTransport.String()
	}

	m.Lookups.WithLabelValues(operation, outcome).Inc()
	m.LookupDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
