// Package metrics 把分页驱动与 dispatch 的事件导出为 Prometheus 指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/John-Robertt/aptekar/internal/source"
)

const namespace = "aptekar"

// Metrics 同时实现 source.Observer；所有指标注册到构造时传入的 Registerer。
type Metrics struct {
	PagesFetched   *prometheus.CounterVec
	PageDuration   *prometheus.HistogramVec
	SearchesTotal  *prometheus.CounterVec
	SearchOffers   *prometheus.HistogramVec
	SearchDuration *prometheus.HistogramVec
	RequestsTotal  *prometheus.CounterVec
}

var _ source.Observer = (*Metrics)(nil)

// New 创建并注册全部指标；reg 为 nil 时使用 prometheus.DefaultRegisterer。
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "pages_fetched_total",
			Help:      "Pages fetched and parsed successfully, per source",
		}, []string{"source"}),
		PageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "page_duration_seconds",
			Help:      "Fetch+parse duration of a single page",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"source"}),
		SearchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "searches_total",
			Help:      "Completed searches by outcome (ok or error kind)",
		}, []string{"source", "outcome"}),
		SearchOffers: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "search_offers",
			Help:      "Number of offers returned by a successful search",
			Buckets:   []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		}, []string{"source"}),
		SearchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "search_duration_seconds",
			Help:      "Duration of a whole search across all pages",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 13),
		}, []string{"source"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatch",
			Name:      "requests_total",
			Help:      "Dispatch calls by operation, pharmacy and outcome",
		}, []string{"op", "pharmacy", "outcome"}),
	}
}

func (m *Metrics) OnPage(src string, _ int, _ int, dur time.Duration) {
	m.PagesFetched.WithLabelValues(src).Inc()
	m.PageDuration.WithLabelValues(src).Observe(dur.Seconds())
}

func (m *Metrics) OnSearchDone(src string, offers int, _ int, err error, dur time.Duration) {
	m.SearchesTotal.WithLabelValues(src, Outcome(err)).Inc()
	m.SearchDuration.WithLabelValues(src).Observe(dur.Seconds())
	if err == nil {
		m.SearchOffers.WithLabelValues(src).Observe(float64(offers))
	}
}

// ObserveRequest 记录一次 dispatch 调用（op 为 search / item）。
func (m *Metrics) ObserveRequest(op, pharmacy string, err error) {
	m.RequestsTotal.WithLabelValues(op, pharmacy, Outcome(err)).Inc()
}

// Outcome 把错误映射为低基数的标签值：成功为 ok，失败为错误类别。
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(source.KindOf(err))
}

// Handler 暴露 g 中的指标（/metrics）。
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
