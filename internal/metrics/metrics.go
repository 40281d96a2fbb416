// Package metrics はゲートウェイのPrometheusメトリクスを提供する。
//
// メトリクスはプロセス共通のレジストリではなくMetricsごとのレジストリに登録する。
// テストごとに独立したインスタンスを生成できるようにするためである。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "authgate"

// 結果ラベルの値。
const (
	OutcomeOK                = "ok"
	OutcomeMissingCredential = "missing_credential"
	OutcomeInvalidToken      = "invalid_token"
	OutcomeUpstreamError     = "upstream_error"
	OutcomeClientCanceled    = "client_canceled"
)

// Metrics はゲートウェイのメトリクス一式を保持する。
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    *prometheus.CounterVec
	upstreamDuration prometheus.Histogram
	upstreamErrors   prometheus.Counter
}

// New は新しいレジストリにメトリクスを登録して返す。
// GoランタイムとプロセスのCollectorも合わせて登録する。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests handled by the gateway, by route and outcome.",
			},
			[]string{"route", "outcome"},
		),
		upstreamDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "duration_seconds",
				Help:      "Time until the backend returned response headers.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		upstreamErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "upstream",
				Name:      "errors_total",
				Help:      "Total number of failures while contacting the backend.",
			},
		),
	}
}

// ObserveRequest はリクエスト1件の結果を記録する。
func (m *Metrics) ObserveRequest(route, outcome string) {
	m.requestsTotal.WithLabelValues(route, outcome).Inc()
}

// ObserveUpstream はバックエンド呼び出し1件の所要時間と成否を記録する。
func (m *Metrics) ObserveUpstream(d time.Duration, err error) {
	m.upstreamDuration.Observe(d.Seconds())
	if err != nil {
		m.upstreamErrors.Inc()
	}
}

// Handler はメトリクスを公開するHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}
