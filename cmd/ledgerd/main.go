package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kycledger"
	ledgermetrics "kycledger/internal/ledger/metrics"
	"kycledger/internal/platform/config"
	"kycledger/internal/platform/logger"
)

// main wires configuration into an opened ledger, seeds the bootstrap
// manager, and serves metrics until shutdown. Record access and transaction
// submission happen through the embedding host; this binary only keeps the
// ledger's lifecycle and observability running.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ldg, err := kycledger.Open(ctx, cfg,
		kycledger.WithLogger(log),
		kycledger.WithMetrics(ledgermetrics.New()),
	)
	cancel()
	if err != nil {
		log.Error("open ledger", "err", err)
		os.Exit(1)
	}

	if _, err := ldg.Bootstrap(context.Background()); err != nil {
		log.Error("bootstrap ledger", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		log.Info("serving metrics", "addr", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown", "err", err)
	}
	if err := ldg.Close(shutdownCtx); err != nil {
		log.Error("close ledger", "err", err)
	}
}
