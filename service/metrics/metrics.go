package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// It is passed explicitly to every component that records metrics; a nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Fetch source metrics
	fetchCallsTotal   *prometheus.CounterVec
	fetchCallDuration *prometheus.HistogramVec
	fetchRateLimits   *prometheus.CounterVec
	fetchRetries      *prometheus.CounterVec

	// Transaction metrics
	transactionsFetchedTotal *prometheus.CounterVec
	transactionsParsedTotal  *prometheus.CounterVec

	// Summary metrics
	eventsClassifiedTotal *prometheus.CounterVec
	summariesTotal        *prometheus.CounterVec
	summaryDuration       *prometheus.HistogramVec

	// Workflow metrics
	workflowActivityDuration *prometheus.HistogramVec

	// Database metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		fetchCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "source_fetch_calls_total",
				Help: "Total number of transaction source calls by source, method and status",
			},
			[]string{"source", "method", "status"},
		),
		fetchCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "source_fetch_call_duration_seconds",
				Help:    "Duration of transaction source calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"source", "method"},
		),
		fetchRateLimits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "source_rate_limit_hits_total",
				Help: "Total number of rate limit responses (429) from transaction sources",
			},
			[]string{"source"},
		),
		fetchRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "source_retries_total",
				Help: "Total number of transaction source retry attempts",
			},
			[]string{"source", "reason"},
		),

		transactionsFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_fetched_total",
				Help: "Total number of raw transactions fetched",
			},
			[]string{"source"},
		),
		transactionsParsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_parsed_total",
				Help: "Total number of RPC transactions converted to raw transactions",
			},
			[]string{"status"},
		),

		eventsClassifiedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_events_classified_total",
				Help: "Total number of activity events produced by kind",
			},
			[]string{"kind"},
		),
		summariesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "summaries_total",
				Help: "Total number of summaries built by outcome",
			},
			[]string{"status"},
		),
		summaryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "summary_duration_seconds",
				Help:    "Duration of fetch plus summarize in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"source"},
		),

		workflowActivityDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_activity_duration_seconds",
				Help:    "Duration of Temporal activities in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"activity", "status"},
		),

		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations by type and status",
			},
			[]string{"operation", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of messages published to NATS",
			},
			[]string{"status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"status"},
		),
	}
}

// Fetch metric helpers

// RecordFetchCall records a call to a transaction source.
func (m *Metrics) RecordFetchCall(source, method, status string, duration float64) {
	if m == nil {
		return
	}
	m.fetchCallsTotal.WithLabelValues(source, method, status).Inc()
	m.fetchCallDuration.WithLabelValues(source, method).Observe(duration)
}

// RecordRateLimitHit records a 429 from a source.
func (m *Metrics) RecordRateLimitHit(source string) {
	if m == nil {
		return
	}
	m.fetchRateLimits.WithLabelValues(source).Inc()
}

// RecordRetry records a retry attempt.
func (m *Metrics) RecordRetry(source, reason string) {
	if m == nil {
		return
	}
	m.fetchRetries.WithLabelValues(source, reason).Inc()
}

// RecordTransactionsFetched records raw transactions returned by a source.
func (m *Metrics) RecordTransactionsFetched(source string, count int) {
	if m == nil {
		return
	}
	m.transactionsFetchedTotal.WithLabelValues(source).Add(float64(count))
}

// RecordTransactionParsed records a conversion of an RPC transaction.
func (m *Metrics) RecordTransactionParsed(status string) {
	if m == nil {
		return
	}
	m.transactionsParsedTotal.WithLabelValues(status).Inc()
}

// Summary metric helpers

// RecordEventsClassified records produced activity events of one kind.
func (m *Metrics) RecordEventsClassified(kind string, count int) {
	if m == nil {
		return
	}
	m.eventsClassifiedTotal.WithLabelValues(kind).Add(float64(count))
}

// RecordSummary records a summary build.
func (m *Metrics) RecordSummary(source, status string, duration float64) {
	if m == nil {
		return
	}
	m.summariesTotal.WithLabelValues(status).Inc()
	m.summaryDuration.WithLabelValues(source).Observe(duration)
}

// RecordActivityDuration records a Temporal activity execution.
func (m *Metrics) RecordActivityDuration(activity, status string, duration float64) {
	if m == nil {
		return
	}
	m.workflowActivityDuration.WithLabelValues(activity, status).Observe(duration)
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	if m == nil {
		return
	}
	status := statusCodeToString(statusCode)
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(status string, duration float64) {
	if m == nil {
		return
	}
	m.natsMessagesPublished.WithLabelValues(status).Inc()
	m.natsPublishDuration.WithLabelValues(status).Observe(duration)
}

func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "unknown"
	}
}
