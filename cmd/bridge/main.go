package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/bridge"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/config"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/engine"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/server"
	"github.com/nupi-ai/plugin-stt-whisper-bridge/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting bridge",
		"version", adapterinfo.Version(),
		"listen_addr", cfg.ListenAddr,
		"metrics_addr", cfg.MetricsAddr,
		"model_path", cfg.ModelPath,
		"language", cfg.Language,
		"native", engine.NativeAvailable() && !cfg.UseStubEngine,
	)

	recorder := telemetry.NewRecorder(logger, prometheus.DefaultRegisterer)
	sessions := bridge.New(engine.NewOpener(cfg, logger), logger, recorder)
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("failed to release sessions", "error", err)
		}
	}()

	metricsServer := startMetrics(cfg.MetricsAddr, logger)

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		logger.Error("failed to bind listener", "error", err)
		os.Exit(1)
	}
	defer lis.Close()

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthgrpc.RegisterHealthServer(grpcServer, healthServer)

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)
	healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)

	server.Register(grpcServer, server.New(cfg, logger, sessions))

	healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		logger.Info("shutdown requested, stopping gRPC server")
		healthServer.SetServingStatus(server.ServiceName, healthgrpc.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus("", healthgrpc.HealthCheckResponse_NOT_SERVING)

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			logger.Warn("graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}

		if metricsServer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown failed", "error", err)
			}
		}
	}()

	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		logger.Error("gRPC server terminated with error", "error", err)
		os.Exit(1)
	}

	if snapshot := recorder.Snapshot(); snapshot.TotalSessions > 0 {
		logger.Info("telemetry totals",
			"total_sessions", snapshot.TotalSessions,
			"active_sessions", snapshot.ActiveSessions,
			"total_windows", snapshot.TotalWindows,
			"total_completed_windows", snapshot.TotalCompletedWindows,
			"total_failures", snapshot.TotalFailures,
		)
	}

	logger.Info("bridge stopped")
}

// startMetrics serves the default Prometheus registry on addr. It returns nil
// when addr is empty.
func startMetrics(addr string, logger *slog.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server terminated", "error", err)
		}
	}()
	logger.Info("metrics endpoint listening", "addr", addr)
	return srv
}

func newLogger(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
