package boundedbuffer

import (
	"github.com/prometheus/client_golang/prometheus"
)

type bufferMetrics struct {
	produced prometheus.Counter
	consumed prometheus.Counter
	waits    *prometheus.CounterVec
	size     prometheus.Gauge
}

func newBufferMetrics(registerer prometheus.Registerer, name string, backend Backend) (*bufferMetrics, error) {
	labels := prometheus.Labels{"buffer": name, "backend": backend.String()}

	m := &bufferMetrics{
		produced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedbuffer",
			Name:        "produced_total",
			ConstLabels: labels,
			Help:        "Total number of items inserted by producers",
		}),
		consumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "boundedbuffer",
			Name:        "consumed_total",
			ConstLabels: labels,
			Help:        "Total number of items removed by consumers",
		}),
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "boundedbuffer",
			Name:        "waits_total",
			ConstLabels: labels,
			Help:        "Total number of operations that had to block, by operation",
		}, []string{"op"}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "boundedbuffer",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of occupied slots",
		}),
	}

	collectors := []prometheus.Collector{m.produced, m.consumed, m.waits, m.size}
	for i, c := range collectors {
		if err := registerer.Register(c); err != nil {
			for _, registered := range collectors[:i] {
				registerer.Unregister(registered)
			}
			return nil, err
		}
	}

	return m, nil
}

func (m *bufferMetrics) recordProduce(size int) {
	m.produced.Inc()
	m.size.Set(float64(size))
}

func (m *bufferMetrics) recordConsume(size int) {
	m.consumed.Inc()
	m.size.Set(float64(size))
}

func (m *bufferMetrics) recordWait(op string) {
	m.waits.WithLabelValues(op).Inc()
}
