package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cam-gateway/internal/gateway"
	"cam-gateway/internal/platform/config"
	"cam-gateway/internal/platform/logger"
	"cam-gateway/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "3000")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	cfg := gateway.Config{
		UpstreamBase:    config.GetEnv("ESP32_BASE", ""),
		StreamPath:      config.GetEnv("ESP32_STREAM", gateway.DefaultStreamPath),
		SnapshotPath:    config.GetEnv("ESP32_SNAPSHOT", gateway.DefaultSnapshotPath),
		MockSnapshotDir: config.GetEnv("MOCK_DIR", "./mock"),
		MockFramesDir:   config.GetEnv("FRAMES_DIR", "./frames"),
		FrameInterval:   config.GetEnvDuration("FRAME_INTERVAL", gateway.DefaultFrameInterval),
		ProbeTimeout:    config.GetEnvDuration("PROBE_TIMEOUT", gateway.DefaultProbeTimeout),
		SnapshotTimeout: config.GetEnvDuration("SNAPSHOT_TIMEOUT", gateway.DefaultSnapshotTimeout),
		StreamTimeout:   config.GetEnvDuration("STREAM_TIMEOUT", gateway.DefaultStreamTimeout),
	}

	log := logger.New(logLevel, logFormat)

	met := metrics.New()
	h := gateway.NewHandler(cfg, log, met)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))
	r.Use(middleware.Compress(5, "application/json", "application/vnd.apple.mpegurl"))
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))

	r.Method(http.MethodGet, "/metrics", met.Handler())
	r.Get("/api/health", h.Health)
	r.Route("/api/cam", func(r chi.Router) {
		r.Get("/info", h.Info)
		r.Get("/capture", h.Capture)
		r.Get("/stream", h.Stream)
	})
	r.Route("/proxy/hls", func(r chi.Router) {
		r.Use(httprate.LimitByIP(config.GetEnvInt("PROXY_RATE_LIMIT", 600), time.Minute))
		r.Get("/", h.ProxyPlaylist)
		r.Get("/seg", h.ProxySegment)
	})

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	snapshotTarget := "(mock)"
	streamTarget := "(mock frames)"
	if cfg.UpstreamBase != "" {
		snapshotTarget = cfg.UpstreamBase + cfg.SnapshotPath
		streamTarget = cfg.UpstreamBase + cfg.StreamPath
	}

	log.Info("gateway starting",
		"port", port,
		"upstream_base", cfg.UpstreamBase,
		"snapshot", snapshotTarget,
		"stream", streamTarget,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
