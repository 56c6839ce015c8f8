// Command joynr-cc runs a joynr cluster controller: the message router with its
// browser window, channel and in-process transports behind an HTTP API.
//
// Configuration is read from JOYNR_* environment variables and .env files; run with -usage to list them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zicheng-pan/joynr/internal/config"
	"github.com/zicheng-pan/joynr/internal/logging"
)

const (
	// Application info
	appName    = "joynr-cc"
	appVersion = "0.1.0"

	shutdownTimeout = 30 * time.Second
)

func main() {
	var (
		envFile     = flag.String("env-file", ".env", "Environment file to load before reading the environment")
		showVersion = flag.Bool("version", false, "Show version and exit")
		showUsage   = flag.Bool("usage", false, "List the supported environment variables and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", appName, appVersion)
		return
	}
	if *showUsage {
		config.Usage(os.Stdout)
		return
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Invalid logging configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("❌ Runtime failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info(fmt.Sprintf("🚀 Starting %s v%s", appName, appVersion))
	logger.Info("📋 Runtime", slog.String("id", cfg.RuntimeID))
	logger.Info("🔌 HTTP API", slog.String("listen", cfg.HTTPListen), slog.Bool("noAuth", cfg.NoAuth))
	logger.Info("🔗 Channel", slog.String("listen", cfg.ChannelListen))

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	logger.Info("▶️  Starting runtime...")
	if err := rt.start(ctx); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = rt.shutdown(shutdownCtx)
		return err
	}

	showStartupInfo(rt)
	logger.Info(fmt.Sprintf("✅ %s %s started successfully!", appName, cfg.RuntimeID))
	logger.Info("💡 Use Ctrl+C to shutdown gracefully")

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("🛑 Received signal, shutting down gracefully...")
	case serveErr = <-rt.serveErrors():
		logger.Error("❌ Server failed, shutting down", slog.Any("error", serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.shutdown(shutdownCtx); err != nil {
		logger.Warn("⚠️  Error during graceful stop", slog.Any("error", err))
	}

	logger.Info(fmt.Sprintf("👋 %s %s stopped", appName, cfg.RuntimeID))
	return serveErr
}

// showStartupInfo logs the router health after startup
func showStartupInfo(rt *runtime) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := rt.router.GetHealth(ctx)
	if err != nil {
		rt.logger.Warn("⚠️  Could not get health status", slog.Any("error", err))
		return
	}

	rt.logger.Info("🏥 Health Status",
		slog.String("overall", healthStatus(health.Healthy)),
		slog.Int("routes", health.Routes),
		slog.Int("queuedMessages", health.QueuedMessages),
		slog.Int("multicastReceivers", health.MulticastReceivers))
}

// healthStatus returns a health status string
func healthStatus(healthy bool) string {
	if healthy {
		return "✅ Healthy"
	}
	return "❌ Unhealthy"
}
