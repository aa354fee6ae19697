package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestsTotal counts served requests by normalized route.
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blog_http_requests_total",
		Help: "Total number of HTTP requests served",
	}, []string{"route", "method", "status"})

	// requestDuration tracks request latency in seconds.
	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blog_http_request_duration_seconds",
		Help:    "Histogram of HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestDuration.Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(routeLabel(r.URL.Path), r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

// routeLabel collapses paths onto their route pattern so the counter's
// label set stays bounded no matter what clients request.
func routeLabel(path string) string {
	switch {
	case path == "/":
		return "/"
	case strings.HasPrefix(path, "/post/"):
		return "/post/{id}"
	case strings.HasPrefix(path, "/edit-post/"):
		return "/edit-post/{id}"
	case strings.HasPrefix(path, "/delete/"):
		return "/delete/{id}"
	case strings.HasPrefix(path, "/static/"):
		return "/static/"
	}
	switch path {
	case "/register", "/login", "/logout", "/new-post", "/about", "/contact", "/healthz", "/metrics":
		return path
	}
	return "other"
}
