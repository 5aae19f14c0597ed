// Command keyringd runs the vault as a standalone daemon, exposing the
// §6 RPC surface over HTTP+JSON and websocket (internal/rpcserver) and
// Prometheus metrics on a separate listener.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pandoracore/keyring/internal/audit"
	"github.com/pandoracore/keyring/internal/driver"
	"github.com/pandoracore/keyring/internal/driver/redisdelegate"
	"github.com/pandoracore/keyring/internal/metrics"
	"github.com/pandoracore/keyring/internal/ratelimit"
	"github.com/pandoracore/keyring/internal/rpcserver"
	"github.com/pandoracore/keyring/internal/vault"
)

func main() {
	cfgFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*cfgFile)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	defer logger.Sync()

	d, err := openDriver(cfg)
	if err != nil {
		logger.Fatal("opening driver", zap.Error(err))
	}
	defer d.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	v, err := vault.Open(d, logger, m)
	if err != nil {
		logger.Fatal("opening vault", zap.Error(err))
	}
	defer v.Close()

	dispatcher := rpcserver.NewDispatcher(v, logger).
		WithLimiter(ratelimit.New(cfg.RateLimitAttempts, cfg.RateLimitWindow))
	if cfg.AuditLogPath != "" {
		auditLog, err := audit.Open(cfg.AuditLogPath)
		if err != nil {
			logger.Fatal("opening audit log", zap.Error(err))
		}
		dispatcher = dispatcher.WithAudit(auditLog)
	}
	rpcSrv := rpcserver.NewServer(dispatcher, logger)

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           rpcSrv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("rpc listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("rpc server error", zap.Error(err))
		}
	}()
	go func() {
		logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("metrics server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rpc shutdown error", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown error", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return cfg.Build()
}

func openDriver(cfg config) (driver.Driver, error) {
	switch cfg.DriverKind {
	case "file":
		format, err := parseFormat(cfg.FileFormat)
		if err != nil {
			return nil, err
		}
		return driver.Open(driver.Config{
			Kind: driver.KindFile,
			File: driver.FileConfig{Location: cfg.FileLocation, Format: format},
		})
	case "redis":
		return openRedisDriver(cfg)
	default:
		return nil, errUnknownDriverKind(cfg.DriverKind)
	}
}

// openRedisDriver builds the reference Redis-backed delegated driver
// (spec §4.9). The background context lives for the process lifetime;
// shutdown happens via the driver's own Close, not context cancellation.
func openRedisDriver(cfg config) (driver.Driver, error) {
	backend := redisdelegate.New(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKey)
	return redisdelegate.NewDriver(backend), nil
}

type errUnknownDriverKind string

func (e errUnknownDriverKind) Error() string {
	return "unknown driver kind: " + string(e)
}
