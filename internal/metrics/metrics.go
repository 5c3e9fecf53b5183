// Package metrics はゲートウェイのPrometheusメトリクスを提供する。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promptgate"

var (
	// AuthRequestsTotal は認証判定の回数を結果・理由ごとにカウントする。
	// reasonは内部ログ専用の分類（"ok", "missing_header", "malformed_header",
	// "invalid_key"）であり、クライアント応答には現れない。
	AuthRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_requests_total",
			Help:      "Total number of authentication checks by result and reason",
		},
		[]string{"result", "reason"},
	)

	// ProbesTotal はOllama到達性プローブの回数を結果ごとにカウントする。
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ollama_probes_total",
			Help:      "Total number of Ollama reachability probes by result",
		},
		[]string{"result"},
	)

	// QueryRequestsTotal は/queryの処理結果をステータス分類ごとにカウントする。
	QueryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_requests_total",
			Help:      "Total number of query requests by outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamDuration はOllamaへの転送1回あたりの所要時間。
	UpstreamDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Time spent waiting for the Ollama upstream",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
)
