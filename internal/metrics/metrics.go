// Package metrics содержит prometheus-метрики рассылки напоминаний и HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Результаты прохода рассылки.
const (
	SweepSucceeded    = "success"
	SweepUnauthorized = "unauthorized"
	SweepFailed       = "failed"
)

// Этапы, на которых письмо может не дойти до получателя.
const (
	StageCompose  = "compose"
	StageDispatch = "dispatch"
)

// Metrics хранит все метрики сервиса.
type Metrics struct {
	SweepsTotal         *prometheus.CounterVec
	SweepDuration       prometheus.Histogram
	EmailsSentTotal     prometheus.Counter
	EmailsFailedTotal   *prometheus.CounterVec
	EmailsDedupedTotal  prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SweepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subtrack_reminder_sweeps_total",
				Help: "Total number of reminder sweeps by result",
			},
			[]string{"result"},
		),
		SweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "subtrack_reminder_sweep_duration_seconds",
				Help:    "Reminder sweep duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		EmailsSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subtrack_reminder_emails_sent_total",
				Help: "Total number of reminder emails handed to the mailer",
			},
		),
		EmailsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subtrack_reminder_emails_failed_total",
				Help: "Total number of reminder emails that failed by stage",
			},
			[]string{"stage"},
		),
		EmailsDedupedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "subtrack_reminder_emails_deduplicated_total",
				Help: "Total number of reminders skipped because one was already sent that day",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subtrack_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subtrack_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.SweepsTotal,
		m.SweepDuration,
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.EmailsDedupedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Middleware считает HTTP-запросы по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
