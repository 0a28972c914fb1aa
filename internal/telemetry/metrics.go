// Package telemetry provides Prometheus metrics for the bot and a small
// HTTP server exposing /metrics and /healthz.
package telemetry

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// Counters
	SessionsStarted         prometheus.Counter
	SessionsFlushed         prometheus.Counter
	SecondsAccrued          prometheus.Counter
	NotificationsSent       prometheus.Counter
	NotificationsSuppressed prometheus.Counter
	StoreErrors             prometheus.Counter
	NotifierErrors          prometheus.Counter
	CommandsHandled         *prometheus.CounterVec

	// Gauges
	LiveSessionsGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_sessions_started_total", Help: "Voice sessions begun"})
		SessionsFlushed = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_sessions_flushed_total", Help: "Voice sessions ended and flushed to the store"})
		SecondsAccrued = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_voice_seconds_accrued_total", Help: "Total voice seconds written to the store"})
		NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_notifications_sent_total", Help: "Empty-channel notifications dispatched"})
		NotificationsSuppressed = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_notifications_suppressed_total", Help: "Notifications suppressed by the debounce gate"})
		StoreErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_store_errors_total", Help: "Failed session store writes"})
		NotifierErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "vcwarden_notifier_errors_total", Help: "Failed notification sends"})
		CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{Name: "vcwarden_commands_handled_total", Help: "Chat commands handled"}, []string{"command"})
		LiveSessionsGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "vcwarden_live_sessions", Help: "Currently tracked voice sessions"})
	})
}

// All helpers below are nil-safe so code paths exercised in tests work
// without Init having been called.

func IncSessionsStarted() {
	if SessionsStarted != nil {
		SessionsStarted.Inc()
	}
}

func IncSessionsFlushed() {
	if SessionsFlushed != nil {
		SessionsFlushed.Inc()
	}
}

func AddSecondsAccrued(n int64) {
	if SecondsAccrued != nil && n > 0 {
		SecondsAccrued.Add(float64(n))
	}
}

func IncNotificationsSent() {
	if NotificationsSent != nil {
		NotificationsSent.Inc()
	}
}

func IncNotificationsSuppressed() {
	if NotificationsSuppressed != nil {
		NotificationsSuppressed.Inc()
	}
}

func IncStoreErrors() {
	if StoreErrors != nil {
		StoreErrors.Inc()
	}
}

func IncNotifierErrors() {
	if NotifierErrors != nil {
		NotifierErrors.Inc()
	}
}

func IncCommand(name string) {
	if CommandsHandled != nil {
		CommandsHandled.WithLabelValues(name).Inc()
	}
}

// SetLiveSessions records the current tracked session count.
func SetLiveSessions(n int) {
	if LiveSessionsGauge != nil {
		LiveSessionsGauge.Set(float64(n))
	}
}

// Serve exposes /metrics and /healthz on addr. Blocks until the server
// fails; meant to run in its own goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server failed", slog.Any("err", err))
	}
}
