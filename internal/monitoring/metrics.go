package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 分类指标
	ClassificationsTotal    *prometheus.CounterVec
	ClassificationDuration  prometheus.Histogram
	ClassificationCacheHits prometheus.Counter
	FeedbackTotal           *prometheus.CounterVec

	// 用户指标
	UsersRegistered prometheus.Counter
	LoginsTotal     *prometheus.CounterVec

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spamguard_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "spamguard_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		ClassificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spamguard_classifications_total",
				Help: "Total number of classifications by label",
			},
			[]string{"label", "source"},
		),

		ClassificationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "spamguard_classification_duration_seconds",
				Help:    "Classification inference duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
		),

		ClassificationCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spamguard_classification_cache_hits_total",
				Help: "Total number of classification cache hits",
			},
		),

		FeedbackTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spamguard_feedback_total",
				Help: "Total number of feedback submissions",
			},
			[]string{"correct"},
		),

		UsersRegistered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spamguard_users_registered_total",
				Help: "Total number of users registered",
			},
		),

		LoginsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spamguard_logins_total",
				Help: "Total number of login attempts",
			},
			[]string{"result"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spamguard_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "spamguard_panics_total",
				Help: "Total number of panics",
			},
		),

		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spamguard_rate_limit_blocks_total",
				Help: "Total number of rate limit blocks",
			},
			[]string{"endpoint"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordClassification 记录分类结果（source: model 或 cache）
func (m *Metrics) RecordClassification(label, source string, duration time.Duration) {
	m.ClassificationsTotal.WithLabelValues(label, source).Inc()
	if source == "model" {
		m.ClassificationDuration.Observe(duration.Seconds())
	} else {
		m.ClassificationCacheHits.Inc()
	}
}

// RecordFeedback 记录反馈提交
func (m *Metrics) RecordFeedback(correct bool) {
	if correct {
		m.FeedbackTotal.WithLabelValues("true").Inc()
	} else {
		m.FeedbackTotal.WithLabelValues("false").Inc()
	}
}

// RecordUserRegistered 记录用户注册
func (m *Metrics) RecordUserRegistered() {
	m.UsersRegistered.Inc()
}

// RecordLogin 记录登录尝试（result: success 或 failure）
func (m *Metrics) RecordLogin(result string) {
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(endpoint string) {
	m.RateLimitBlocks.WithLabelValues(endpoint).Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
