package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamRequestsTotal 按最终结果统计 getStreams 调用。
	// outcome: served / no_metadata / no_candidate / detail_failed / no_offers
	StreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dmstream_stream_requests_total",
		Help: "Total getStreams calls by outcome",
	}, []string{"outcome"})

	// OffersTotal 按解析结果统计单条画质入口。
	OffersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dmstream_offers_total",
		Help: "Total offers resolved by result",
	}, []string{"result"})

	// ChainFailuresTotal 按失败阶段统计跳转链解析失败。
	ChainFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dmstream_chain_failures_total",
		Help: "Redirect-chain resolution failures by stage",
	}, []string{"stage"})

	// ChainHopDuration 记录跳转链中每一跳的网络耗时。
	ChainHopDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dmstream_chain_hop_duration_seconds",
		Help:    "Duration of a single redirect-chain fetch",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 20},
	}, []string{"state"})

	// HTTPRequestDuration 按路由模板记录 HTTP 请求耗时（路由模板避免高基数）。
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dmstream_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// OfferResolveDuration 记录单条画质入口从网关到最终地址的总耗时。
	OfferResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dmstream_offer_resolve_duration_seconds",
		Help:    "End-to-end duration of resolving one offer",
		Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 20, 30, 60},
	})
)

// ObserveStreamRequest 记录一次 getStreams 的结果。
func ObserveStreamRequest(outcome string) {
	StreamRequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveOffer 记录一条画质入口的解析结果与耗时。
func ObserveOffer(ok bool, d time.Duration) {
	result := "ok"
	if !ok {
		result = "unavailable"
	}
	OffersTotal.WithLabelValues(result).Inc()
	OfferResolveDuration.Observe(d.Seconds())
}

// ObserveChainFailure 记录一次在 stage 阶段的失败。
func ObserveChainFailure(stage string) {
	ChainFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveHop 记录 state 状态下一次抓取的耗时。
func ObserveHop(state string, d time.Duration) {
	ChainHopDuration.WithLabelValues(state).Observe(d.Seconds())
}

// ObserveHTTP 记录一次 HTTP 请求。
func ObserveHTTP(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
