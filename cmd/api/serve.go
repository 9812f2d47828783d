package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogomassis/payments-core/cmd/handlers"
	"github.com/diogomassis/payments-core/internal/env"
	"github.com/diogomassis/payments-core/internal/logger"
	"github.com/diogomassis/payments-core/internal/server"
	"github.com/diogomassis/payments-core/internal/services/bank"
	"github.com/diogomassis/payments-core/internal/services/fraud"
	"github.com/diogomassis/payments-core/internal/services/health"
	"github.com/diogomassis/payments-core/internal/services/orchestrator"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the payments API and the gRPC health server",
		Long: `Start the payments API.

Configuration comes from the environment (PORT, GRPC_ADDR, LEDGER_BACKEND,
FRAUD_ORACLE_URL, BANK_ORACLE_URL, ...) or from the file named by CONFIG_FILE.`,
		RunE: runServe,
	}
}

func buildOrchestrator(cfg *env.EnvironmentVariables, ledger *ledgerBackend, log zerolog.Logger) (*orchestrator.PaymentOrchestrator, error) {
	return orchestrator.NewPaymentOrchestratorBuilder().
		WithFraudChecker(fraud.NewFraudClient(cfg.FraudOracleUrl, cfg.OracleTimeout, cfg.FraudFailClosed)).
		WithBank(bank.NewBankClient(cfg.BankOracleUrl, cfg.OracleTimeout)).
		WithLedger(ledger.store).
		WithRefundLocker(ledger.locker).
		WithLogger(log).
		Build()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := env.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := openLedger(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open %s ledger: %w", cfg.LedgerBackend, err)
	}
	defer func() {
		if err := ledger.close(); err != nil {
			log.Error().Err(err).Msg("Failed to close ledger")
		}
	}()

	payments, err := buildOrchestrator(cfg, ledger, log)
	if err != nil {
		return err
	}

	grpcServer := server.NewHealthServer(log)
	monitor := health.NewMonitor(cfg.HealthInterval, log, health.NewPingChecker(server.LedgerService, ledger.pinger))
	monitor.OnUpdate(func(s health.Status) {
		grpcServer.SetServing(s.Name, s.Healthy)
		grpcServer.SetServing("", monitor.Healthy())
	})
	monitor.Start()
	defer monitor.Stop()

	listener, err := net.Listen("tcp", cfg.GrpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GrpcAddr, err)
	}
	go func() {
		if err := grpcServer.Serve(listener); err != nil {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()
	defer grpcServer.GracefulStop()

	app := handlers.NewApp(handlers.New(payments, monitor, log))
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("ledger", cfg.LedgerBackend).Msg("Payments API listening")
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
