package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 用于 Prometheus 监控缓存命中、丢失、驱逐等指标。
type Metrics struct {
	Hits      prometheus.Counter // 命中次数
	Misses    prometheus.Counter // 丢失次数
	Evictions prometheus.Counter // 驱逐次数
	Refreshes prometheus.Counter // 刷新次数
}

// NewMetrics 创建一组缓存指标，namespace用于区分多个缓存实例。
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache evictions.",
		}),
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_refreshes_total",
			Help:      "Total number of async cache refreshes.",
		}),
	}
}

// MustRegister 将指标注册到指定的registry，r为nil时使用默认registry。
func (m *Metrics) MustRegister(r prometheus.Registerer) {
	if r == nil {
		r = prometheus.DefaultRegisterer
	}
	r.MustRegister(m.Hits, m.Misses, m.Evictions, m.Refreshes)
}

func (m *Metrics) addHit() {
	if m != nil && m.Hits != nil {
		m.Hits.Inc()
	}
}

func (m *Metrics) addMiss() {
	if m != nil && m.Misses != nil {
		m.Misses.Inc()
	}
}

func (m *Metrics) addEvictions(n int) {
	if m != nil && m.Evictions != nil && n > 0 {
		m.Evictions.Add(float64(n))
	}
}

func (m *Metrics) addRefresh() {
	if m != nil && m.Refreshes != nil {
		m.Refreshes.Inc()
	}
}
