package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Tyrowin/chatrelay/internal/logging"
	"github.com/Tyrowin/chatrelay/internal/metrics"
	"github.com/Tyrowin/chatrelay/internal/notify"
	"github.com/Tyrowin/chatrelay/internal/server"
	"github.com/Tyrowin/chatrelay/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run builds every component, serves until a signal arrives and then shuts
// down in reverse order.
func run() error {
	// 1. Configuration & Logger
	config, err := server.LoadConfig()
	if err != nil {
		return err
	}
	log, err := logging.New(config.LogLevel, config.LogDevelopment)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// 2. Store
	db, err := store.Open(config.StoreDriver, config.StoreDSN, log)
	if err != nil {
		return fmt.Errorf("store opening failed: %w", err)
	}
	defer func() {
		log.Info("closing store")
		_ = db.Close()
	}()

	if config.ResetPresenceOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), config.StoreTimeout)
		n, err := db.ResetPresence(ctx)
		cancel()
		if err != nil {
			return err
		}
		log.Info("reset stale presence", zap.Int64("users", n))
	}

	// 3. Offline notifications
	var notifier server.OfflineNotifier = notify.Nop{}
	if config.NatsURL != "" {
		pub, err := notify.Connect(config.NatsURL, config.NatsSubjectPrefix, log)
		if err != nil {
			return err
		}
		defer func() { _ = pub.Close() }()
		notifier = pub
		log.Info("publishing offline signals", zap.String("url", config.NatsURL))
	}

	// 4. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// 5. Relay & HTTP
	relay, err := server.NewRelay(server.Options{
		Config:   config,
		Logger:   log,
		Store:    db,
		Notifier: notifier,
		Metrics:  metrics.New(registry),
	})
	if err != nil {
		return err
	}
	httpServer := server.CreateServer(config.Port, server.SetupRoutes(relay, registry))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.StartServer(httpServer, log)
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}

	// 7. Final Cleanup
	if err := server.ShutdownServer(httpServer, config.ShutdownTimeout, log); err != nil {
		log.Warn("http shutdown incomplete", zap.Error(err))
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := relay.Shutdown(shutdownCtx); err != nil {
		log.Warn("sessions still open at shutdown", zap.Error(err))
	}
	log.Info("program stopped cleanly")
	return nil
}
