package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/config"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/catalog"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/controller"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/gateway"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/logger"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/markethours"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/metrics"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/mirror"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/mockdata"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/model"
	"github.com/alekseyudovenko-eng/Aleksey-Udovenko-Repository/internal/notification"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[dashboard] starting...")
	start := time.Now()

	// ---- Load config from env ----
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[dashboard] invalid config: %v", err)
	}
	lg := logger.Init("dashboard", logger.ParseLevel(cfg.LogLevel))

	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("[dashboard] catalog: %v", err)
	}
	log.Printf("[dashboard] catalog: %d timeframes, %d comparison options", len(cat.Timeframes), len(cat.Comparisons))

	// ---- Setup metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Data source + controller ----
	src := mockdata.New(cat, mockdata.Options{
		PriceLatency:      cfg.PriceLatency,
		ComparisonLatency: cfg.ComparisonLatency,
		FailureRate:       cfg.FailureRate,
		Seed:              cfg.MockSeed,
	})

	// The hub needs the controller and the controller reports fetches to
	// the hub, so the hook resolves the hub lazily.
	var hub *gateway.Hub
	ctrl := controller.New(src, cat, controller.Options{
		DefaultTimeframe: model.TimeframeID(cfg.DefaultTimeframe),
		DiscardStale:     cfg.DiscardStale,
		Metrics:          prom,
		Health:           health,
		Logger:           lg,
		OnFetch: func(kind string, d time.Duration, err error) {
			if hub != nil {
				hub.RecordFetch(kind, d, err)
			}
		},
	})
	hub = gateway.NewHub(ctrl, prom, start)
	go hub.Run(ctx, ctrl.Subscribe())

	// ---- Optional Redis mirror ----
	var pub *mirror.Publisher
	if cfg.MirrorEnabled() {
		p, rdb, err := mirror.Dial(ctx, mirror.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}, prom)
		if err != nil {
			log.Printf("[dashboard] WARNING: redis mirror init failed: %v (continuing without mirror)", err)
			health.SetRedisConnected(false)
		} else {
			pub = p
			health.SetMirrorEnabled(true)
			health.SetRedisConnected(true)
			health.StartLivenessChecker(ctx, rdb, 10*time.Second)
			go pub.Run(ctx, ctrl.Subscribe())
			log.Printf("[dashboard] mirroring snapshots to %s channel %q", cfg.RedisAddr, mirror.DefaultChannel)
		}
	}

	// ---- Fetch failure alerts ----
	notifiers := notification.Multi{notification.NewLogNotifier()}
	if cfg.AlertWebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.AlertWebhookURL))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	go notification.NewWatcher(notifiers).Run(ctx, ctrl.Subscribe())
	log.Printf("[dashboard] alerts: %d notifier(s)", len(notifiers))

	if err := hub.StartMetricsBroadcast(ctx, cfg.MetricsBroadcastCron); err != nil {
		log.Fatalf("[dashboard] metrics broadcast: %v", err)
	}

	if err := ctrl.Start(ctx); err != nil {
		log.Fatalf("[dashboard] controller start: %v", err)
	}
	lg.Info("initial fetch issued",
		slog.String("timeframe", cfg.DefaultTimeframe),
		slog.Bool("discard_stale", cfg.DiscardStale))

	// ---- HTTP server ----
	mux := http.NewServeMux()
	gateway.RegisterRoutes(mux, hub, health)
	srv := &http.Server{
		Addr:              cfg.DashboardAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[dashboard] HTTP + WS server listening on %s", cfg.DashboardAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[dashboard] server error: %v", err)
		}
	}()

	log.Printf("[dashboard] page: http://localhost%s/  metrics: %s/metrics", cfg.DashboardAddr, cfg.MetricsAddr)
	log.Printf("[dashboard] %s", markethours.StatusString(time.Now()))

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[dashboard] shutdown signal received, cleaning up...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[dashboard] server shutdown: %v", err)
	}
	// Close cancels every in-flight fetch before the root context goes.
	ctrl.Close()
	cancel()
	metricsSrv.Stop(shutdownCtx)
	if pub != nil {
		pub.Close()
	}

	log.Println("[dashboard] shutdown complete.")
}
