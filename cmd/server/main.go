/*
main.go - application entry point

PURPOSE:
  Wires config -> AWS client -> Store/Item Factory -> Wallet Engine ->
  HTTP router, and runs the resulting server with graceful shutdown.
  Everything this file builds is an explicit value passed by reference
  to the next stage - see internal/awsx/client.go's header for why that
  replaces the source's global AWSManager singleton (spec section 9).

COMMANDS:
  serve          run the HTTP server
  create-table   one-shot admin command, spec section 6

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for in-flight requests to finish (30s timeout)
  3. Exit

SEE ALSO:
  - createtable.go: the create-table subcommand
  - internal/config/config.go: Settings, loaded once here
  - internal/api/server.go: router construction
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/wallet-service/internal/api"
	"github.com/warp/wallet-service/internal/awsx"
	"github.com/warp/wallet-service/internal/config"
	"github.com/warp/wallet-service/internal/dynamo"
	"github.com/warp/wallet-service/internal/wallet"
)

var log = logrus.New()

func main() {
	root := &cobra.Command{
		Use:   "wallet-service",
		Short: "Wallet transaction engine HTTP service",
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newCreateTableCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the wallet HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	settings, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogging(settings)

	client, err := awsx.New(ctx, settings)
	if err != nil {
		return fmt.Errorf("build AWS client: %w", err)
	}

	store := dynamo.NewStore(client.DynamoDB, settings.WalletTableName)
	items := dynamo.NewItemFactory(settings.WalletTableName)
	engine := wallet.NewEngine(store, items, int64(settings.TransactionTTL.Seconds()), time.Now().Unix)
	handler := api.NewHandler(engine)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         settings.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", settings.Addr()).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func configureLogging(s *config.Settings) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&logrus.JSONFormatter{})
}
