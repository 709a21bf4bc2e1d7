package interceptor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by its interceptor.
type Metrics struct {
	callsTotal   *prometheus.CounterVec
	callErrors   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors under namespace and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_calls_total",
				Help:      "Total number of proxied method calls",
			},
			[]string{"method"},
		),
		callErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "proxy_call_errors_total",
				Help:      "Total number of proxied method calls that returned an error",
			},
			[]string{"method"},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "proxy_call_duration_seconds",
				Help:      "Proxied method call latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.callsTotal, m.callErrors, m.callDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// Interceptor returns the interceptor recording into m.
func (m *Metrics) Interceptor() Interceptor {
	return func(method string, next Handler) Handler {
		calls := m.callsTotal.WithLabelValues(method)
		errs := m.callErrors.WithLabelValues(method)
		duration := m.callDuration.WithLabelValues(method)

		return func(args []interface{}) []interface{} {
			start := time.Now()
			calls.Inc()

			rets := next(args)

			duration.Observe(time.Since(start).Seconds())
			if ErrorOf(rets) != nil {
				errs.Inc()
			}

			return rets
		}
	}
}
