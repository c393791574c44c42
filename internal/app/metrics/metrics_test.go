package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                    "/",
		"/":                   "/",
		"/api":                "/api",
		"/api/v1/jobs/12":     "/api/v1",
		"/actuator/health///": "/actuator/health",
	}
	for in, want := range cases {
		if got := canonicalPath(in); got != want {
			t.Fatalf("canonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInstrumentHandlerUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/v1/jobs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/jobs/{id}", "418"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/42", nil))

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/jobs/{id}", "418"))
	if after-before != 1 {
		t.Fatalf("expected one request recorded under the template, got %v", after-before)
	}
}

func TestRecordersExposeSeries(t *testing.T) {
	RecordMail("hired", true)
	RecordSchedulerRun("", 0, false)
	RecordChatbotRequest("ok", 20*time.Millisecond)
	RecordUpload("cloudinary", true)
	RecordNotification(false)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{
		"jobhunter_mail_messages_total",
		`jobhunter_scheduler_runs_total{success="false",task="unknown"}`,
		"jobhunter_chatbot_requests_total",
		"jobhunter_media_uploads_total",
		"jobhunter_realtime_notifications_total",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestInstrumentHandlerOutsideRouter(t *testing.T) {
	r := mux.NewRouter()
	r.Use(LabelRoute)
	r.HandleFunc("/api/v1/skills/{id}", func(w http.ResponseWriter, _ *http.Request) {})

	limited := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("X-Block") != "" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		r.ServeHTTP(w, req)
	})
	h := InstrumentHandler(limited)

	routed := httpRequests.WithLabelValues("GET", "/api/v1/skills/{id}", "200")
	rejected := httpRequests.WithLabelValues("GET", "/api/v1", "429")
	beforeRouted, beforeRejected := testutil.ToFloat64(routed), testutil.ToFloat64(rejected)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/skills/7", nil))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/skills/7", nil)
	req.Header.Set("X-Block", "1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(routed) - beforeRouted; got != 1 {
		t.Fatalf("routed requests recorded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rejected) - beforeRejected; got != 1 {
		t.Fatalf("rejected requests recorded = %v, want 1", got)
	}
}
