package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "LLM completion requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	llmDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "Wall time of LLM completion requests that reached the provider.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"provider"})
)

// ObserveLLMRequest records one adapter call. duration is only recorded for
// calls that went out to the provider.
func ObserveLLMRequest(provider, outcome string, duration time.Duration) {
	llmRequests.WithLabelValues(provider, outcome).Inc()
	if duration > 0 {
		llmDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
