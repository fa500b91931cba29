package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Data source
	FetchesTotal *prometheus.CounterVec   // labels: kind=price|comparison, outcome=ok|error|canceled
	FetchDur     *prometheus.HistogramVec // labels: kind
	StaleResults *prometheus.CounterVec   // labels: kind, action=applied|dropped

	// View state
	NavOpsTotal    *prometheus.CounterVec // labels: op, effect=changed|noop
	SnapshotsTotal prometheus.Counter
	SeriesLength   prometheus.Gauge
	VisibleWidth   prometheus.Gauge

	// Backpressure
	FanoutDropsTotal     *prometheus.CounterVec // labels: subscriber
	ChannelSaturationPct *prometheus.GaugeVec   // labels: channel_name

	// Gateway
	WSClients      prometheus.Gauge
	WSCommandTotal *prometheus.CounterVec // labels: type

	// Redis mirror
	MirrorPublishTotal       *prometheus.CounterVec // labels: outcome=ok|error|circuit_open
	RedisCircuitBreakerState prometheus.Gauge       // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter

	// Market session state
	MarketState prometheus.Gauge // 0=closed, 1=open
}

// NewMetrics registers all metrics on the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers all metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Series fetches by kind and outcome",
		}, []string{"kind", "outcome"}),
		FetchDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Series fetch latency including simulated delay",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		StaleResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_stale_results_total",
			Help: "Fetch results that resolved after a newer request was issued",
		}, []string{"kind", "action"}),

		NavOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_nav_ops_total",
			Help: "Window navigation commands by op and whether they changed the window",
		}, []string{"op", "effect"}),
		SnapshotsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_snapshots_total",
			Help: "View snapshots published",
		}),
		SeriesLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_series_length",
			Help: "Number of bars in the current price series",
		}),
		VisibleWidth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_visible_width",
			Help: "Number of bars in the visible window",
		}),

		FanoutDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fanout_drops_total",
			Help: "Snapshots dropped by the FanOut bus per subscriber",
		}, []string{"subscriber"}),
		ChannelSaturationPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_channel_saturation_pct",
			Help: "Channel fill percentage (len/cap * 100)",
		}, []string{"channel_name"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		WSCommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_ws_commands_total",
			Help: "Commands received over WebSocket by type",
		}, []string{"type"}),

		MirrorPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_mirror_publish_total",
			Help: "Snapshot events published to Redis by outcome",
		}, []string{"outcome"}),
		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),

		MarketState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_market_state",
			Help: "FCPO session state (0=closed, 1=open)",
		}),
	}

	reg.MustRegister(
		m.FetchesTotal,
		m.FetchDur,
		m.StaleResults,
		m.NavOpsTotal,
		m.SnapshotsTotal,
		m.SeriesLength,
		m.VisibleWidth,
		m.FanoutDropsTotal,
		m.ChannelSaturationPct,
		m.WSClients,
		m.WSCommandTotal,
		m.MirrorPublishTotal,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
		m.MarketState,
	)

	return m
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	SourceOK       bool      `json:"source_ok"`
	LastFetchAt    time.Time `json:"last_fetch_at"`
	LastSnapshotAt time.Time `json:"last_snapshot_at"`
	MirrorEnabled  bool      `json:"mirror_enabled"`
	RedisConnected bool      `json:"redis_connected"`

	// Liveness probe results
	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
		SourceOK:  true,
	}
}

// SetFetchResult records the outcome of the latest price-series fetch.
func (h *HealthStatus) SetFetchResult(ok bool, at time.Time) {
	h.mu.Lock()
	h.SourceOK = ok
	h.LastFetchAt = at
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastSnapshotTime(t time.Time) {
	h.mu.Lock()
	h.LastSnapshotAt = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetMirrorEnabled(v bool) {
	h.mu.Lock()
	h.MirrorEnabled = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks. rdb may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	if rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckRedis(probeCtx, rdb)
				cancel()
			}
		}
	}()
}

// Report is the JSON body served by the health endpoints.
type Report struct {
	Status         string  `json:"status"`
	Uptime         string  `json:"uptime"`
	SourceOK       bool    `json:"source_ok"`
	LastFetchAt    string  `json:"last_fetch_at"`
	SnapshotAge    string  `json:"snapshot_age"`
	MirrorEnabled  bool    `json:"mirror_enabled"`
	RedisConnected bool    `json:"redis_connected"`
	RedisLatencyMs float64 `json:"redis_latency_ms"`
	LastCheckAt    string  `json:"last_check_at"`
}

// Report computes the overall status and the HTTP code to serve it with.
// A failed last fetch or an unreachable mirror degrades the service.
func (h *HealthStatus) Report() (Report, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SourceOK || (h.MirrorEnabled && !h.RedisConnected) {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	snapAge := ""
	if !h.LastSnapshotAt.IsZero() {
		snapAge = time.Since(h.LastSnapshotAt).Round(time.Millisecond).String()
	}

	return Report{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		SourceOK:       h.SourceOK,
		LastFetchAt:    h.LastFetchAt.Format(time.RFC3339),
		SnapshotAge:    snapAge,
		MirrorEnabled:  h.MirrorEnabled,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}, httpCode
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, httpCode := h.Report()
	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
