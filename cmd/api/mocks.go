package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/diogomassis/payments-core/internal/logger"
	"github.com/diogomassis/payments-core/internal/services/mockoracle"
)

func mocksCmd() *cobra.Command {
	var (
		port     string
		logLevel string
	)
	cmd := &cobra.Command{
		Use:   "mocks",
		Short: "Serve the mock fraud and bank oracles",
		Long: `Serve stand-in oracles for local runs.

Payments above 1000 are flagged as fraudulent; cards ending in 0000 are
declined by the bank; refunds always succeed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New(logLevel, true)
			app := mockoracle.New(log).NewApp()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				_ = app.Shutdown()
			}()

			log.Info().Str("port", port).Msg("Mock oracles listening")
			return app.Listen(":" + port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "8081", "port to listen on")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level")
	return cmd
}
