package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// AIRequests AI 补全调用次数，purpose 为 recommendation / generation
	AIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_completion_requests_total",
			Help: "Total number of AI completion calls",
		},
		[]string{"provider", "purpose", "outcome"},
	)

	AIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_completion_duration_seconds",
			Help:    "Duration of AI completion calls",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"provider", "purpose"},
	)

	// AssessmentCache 测验缓存结果：hit / miss / conflict / redis_hit
	AssessmentCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_assessment_cache_total",
			Help: "Roadmap assessment cache lookups by result",
		},
		[]string{"result"},
	)

	RecommendationSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "career_recommendations_total",
			Help: "Finalized career recommendations by source",
		},
		[]string{"source"},
	)

	AttemptOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roadmap_assessment_attempts_total",
			Help: "Scored roadmap assessment attempts by status",
		},
		[]string{"status"},
	)

	registerOnce sync.Once
)

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AIRequests)
		prometheus.MustRegister(AIDuration)
		prometheus.MustRegister(AssessmentCache)
		prometheus.MustRegister(RecommendationSource)
		prometheus.MustRegister(AttemptOutcomes)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
