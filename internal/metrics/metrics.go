package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ErlanBelekov/chirp/internal/health"
)

var (
	// Auth metrics

	LoginCodesIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chirp",
		Name:      "login_codes_issued_total",
		Help:      "Total one time passwords generated and emailed.",
	})

	AuthenticationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chirp",
		Name:      "authentications_total",
		Help:      "Total code redemption attempts, by outcome.",
	}, []string{"outcome"})

	TokenRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chirp",
		Name:      "token_refreshes_total",
		Help:      "Total refresh calls, by outcome.",
	}, []string{"outcome"})

	LogoutsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chirp",
		Name:      "logouts_total",
		Help:      "Total logout calls.",
	})

	LiveTokens = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "chirp",
		Name:      "live_tokens",
		Help:      "Valid, unexpired tokens in the store, by type.",
	}, []string{"type"})

	// HTTP metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chirp",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chirp",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		LoginCodesIssuedTotal,
		AuthenticationsTotal,
		TokenRefreshesTotal,
		LogoutsTotal,
		LiveTokens,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer exposes /metrics plus liveness and readiness probes on a
// port separate from the API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		result := checker.Readiness(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if result.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(result)
	})
	return &http.Server{Addr: addr, Handler: mux}
}
