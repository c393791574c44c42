package metrics

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jobhunter"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "notifications_total",
			Help:      "Notifications pushed to websocket sessions.",
		},
		[]string{"delivered"},
	)

	websocketSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "sessions",
			Help:      "Open websocket sessions.",
		},
	)

	mailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "messages_total",
			Help:      "Mails handed to the SMTP relay.",
		},
		[]string{"template", "success"},
	)

	schedulerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Scheduled task executions.",
		},
		[]string{"task", "success"},
	)

	schedulerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "run_duration_seconds",
			Help:      "Duration of scheduled task executions.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"task"},
	)

	chatbotRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chatbot",
			Name:      "requests_total",
			Help:      "Assistant completions requested upstream.",
		},
		[]string{"outcome"},
	)

	chatbotDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chatbot",
			Name:      "request_duration_seconds",
			Help:      "Duration of assistant completions.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "File uploads by storage provider.",
		},
		[]string{"provider", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		notifications,
		websocketSessions,
		mailsSent,
		schedulerRuns,
		schedulerDuration,
		chatbotRequests,
		chatbotDuration,
		uploads,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

type routeKey struct{}

// routeLabel carries the matched template from LabelRoute back out to
// InstrumentHandler.
type routeLabel struct {
	template string
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Paths are reported as mux route templates so ids do not explode cardinality.
// Outside the router, LabelRoute must be installed on the router to see them;
// requests answered before routing (preflight, 429) use canonicalPath.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		label := &routeLabel{}
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, label))
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := label.template
		if path == "" {
			path = routePath(r)
		}
		RecordHTTPRequest(r.Method, path, rec.status, time.Since(start))
	})
}

// LabelRoute is a mux middleware that reports the matched route template to
// an enclosing InstrumentHandler.
func LabelRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					label.template = tpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordNotification counts a realtime push; delivered is false when the
// user had no open session.
func RecordNotification(delivered bool) {
	notifications.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}

// SessionOpened and SessionClosed track websocket sessions.
func SessionOpened() { websocketSessions.Inc() }

func SessionClosed() { websocketSessions.Dec() }

// RecordMail counts a mail send attempt.
func RecordMail(template string, success bool) {
	mailsSent.WithLabelValues(template, strconv.FormatBool(success)).Inc()
}

// RecordSchedulerRun records metrics for scheduled task executions.
func RecordSchedulerRun(task string, duration time.Duration, success bool) {
	if task == "" {
		task = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	schedulerRuns.WithLabelValues(task, strconv.FormatBool(success)).Inc()
	schedulerDuration.WithLabelValues(task).Observe(duration.Seconds())
}

// RecordChatbotRequest records an upstream completion; outcome is ok,
// fallback or error.
func RecordChatbotRequest(outcome string, duration time.Duration) {
	chatbotRequests.WithLabelValues(outcome).Inc()
	chatbotDuration.Observe(duration.Seconds())
}

// RecordUpload counts a file upload.
func RecordUpload(provider string, success bool) {
	uploads.WithLabelValues(provider, strconv.FormatBool(success)).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func routePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return canonicalPath(r.URL.Path)
}

// canonicalPath keeps the first two segments of unrouted paths.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}
