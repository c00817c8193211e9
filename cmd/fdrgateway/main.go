// Package main implements the First-Data gateway worker: it wires the
// transport client, operation catalog and gateway facade, connects the
// async job queue, and serves metrics and health probes. Business
// applications embed the gateway packages directly; this binary runs the
// out-of-band job path.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/c360/fdrgateway/config"
	"github.com/c360/fdrgateway/fdr"
	"github.com/c360/fdrgateway/fdr/operations"
	"github.com/c360/fdrgateway/health"
	"github.com/c360/fdrgateway/metric"
	"github.com/c360/fdrgateway/pkg/security"
	"github.com/c360/fdrgateway/pkg/tlsutil"
	"github.com/c360/fdrgateway/queue"
	"github.com/c360/fdrgateway/soap"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "fdrgateway"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	metricsRegistry := metric.NewMetricsRegistry()

	gateway, jobQueue, err := setupGateway(cfg, metricsRegistry.CoreMetrics())
	if err != nil {
		return err
	}

	slog.Info("Connecting job queue", "stream", cfg.NATS.Stream)
	if err := jobQueue.Connect(ctx); err != nil {
		return fmt.Errorf("connect job queue: %w", err)
	}
	defer jobQueue.Close()

	consumer, err := queue.NewConsumer(jobQueue, gateway,
		queue.ConsumerConfig{Workers: cliCfg.Workers},
		metricsRegistry.CoreMetrics(), slog.Default())
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}

	httpServer := startHTTPServer(cliCfg.HTTPPort, metricsRegistry, jobQueue)

	slog.Info("Gateway worker started",
		"workers", cliCfg.Workers,
		"http_port", cliCfg.HTTPPort)

	return waitForShutdown(ctx, consumer, httpServer, cliCfg.ShutdownTimeout)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting FDR gateway worker",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

// setupGateway builds the full synchronous call path: TLS material,
// transport client, auth header provider, operation catalog and facade,
// plus the job queue for the async path.
func setupGateway(cfg config.Config, metrics *metric.Metrics) (*fdr.Gateway, *queue.Queue, error) {
	tlsConfig, err := tlsutil.LoadClientTLSConfig(tlsutil.ClientConfig{
		CertFile: cfg.Security.CertificateFile,
		KeyFile:  cfg.Security.KeyFile,
		CAFiles:  cfg.Security.CAFiles,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load TLS config: %w", err)
	}

	transport, err := soap.NewClient(soap.Config{
		Endpoint:    cfg.Transport.Endpoint,
		OpenTimeout: time.Duration(cfg.Transport.OpenTimeoutSecs) * time.Second,
		ReadTimeout: time.Duration(cfg.Transport.ReadTimeoutSecs) * time.Second,
		RateLimit:   cfg.Transport.RateLimitPerSecond,
		TLS:         tlsConfig,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create transport: %w", err)
	}

	headers, err := loadHeaderProvider(cfg.Security)
	if err != nil {
		return nil, nil, err
	}

	registry := fdr.NewRegistry()
	if err := operations.Register(registry); err != nil {
		return nil, nil, fmt.Errorf("register operations: %w", err)
	}
	slog.Info("Operation catalog registered", "count", len(registry.Keys()), "keys", registry.Keys())

	jobQueue, err := queue.New(queue.Config{
		URL:     cfg.NATS.URL,
		Stream:  cfg.NATS.Stream,
		Subject: cfg.NATS.Subject,
		Durable: cfg.NATS.Durable,
	}, metrics, slog.Default())
	if err != nil {
		return nil, nil, fmt.Errorf("create job queue: %w", err)
	}

	gateway, err := fdr.NewGateway(fdr.GatewayConfig{
		Registry:  registry,
		Transport: transport,
		Headers:   headers,
		Metrics:   metrics,
		Logger:    slog.Default(),
		Queue:     jobQueue,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create gateway: %w", err)
	}

	return gateway, jobQueue, nil
}

// loadHeaderProvider reads the credential files and builds the
// WS-Security header provider.
func loadHeaderProvider(cfg config.SecurityConfig) (security.HeaderProvider, error) {
	certificate, err := os.ReadFile(cfg.CertificateFile)
	if err != nil {
		return nil, fmt.Errorf("read certificate file: %w", err)
	}
	key, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	return security.NewTokenProvider(security.Credentials{
		Certificate: certificate,
		Key:         key,
		Namespace:   cfg.Namespace,
	})
}

// startHTTPServer serves metrics and health probes. Returns nil when the
// port is disabled.
func startHTTPServer(port int, metricsRegistry *metric.MetricsRegistry, jobQueue *queue.Queue) *http.Server {
	if port == 0 {
		return nil
	}

	monitor := health.NewMonitor()
	monitor.Register("nats", health.CheckerFunc(func(_ context.Context) health.Status {
		if !jobQueue.Connected() {
			return health.UnhealthyStatus("nats", "broker connection down")
		}
		return health.HealthyStatus("nats")
	}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsRegistry.Handler())
	mux.Handle("/healthz", monitor.LivenessHandler())
	mux.Handle("/readyz", monitor.ReadinessHandler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// waitForShutdown blocks on termination signals and stops the consumer and
// HTTP server within the timeout.
func waitForShutdown(ctx context.Context, consumer *queue.Consumer, httpServer *http.Server, timeout time.Duration) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	if err := consumer.Stop(timeout); err != nil {
		slog.Error("Consumer shutdown incomplete", "error", err)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}

	slog.Info("Gateway worker shutdown complete")
	return nil
}

// printHelp prints help information
func printHelp() {
	printDetailedHelp()
}
