/*
createtable.go - admin command (spec section 6)

PURPOSE:
  One-shot command that creates the wallet table with configured
  capacity, enables the ttl attribute, and returns. Idempotent: a
  pre-existing table is logged as a warning, not treated as failure -
  grounded on the original's src/commands/create_table.py, which
  catches ResourceInUseException and logs rather than raising.

SEE ALSO:
  - internal/dynamo/store.go: CreateTable, the operation this wraps
  - internal/config/config.go: the capacity/table-name settings used here
*/
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/wallet-service/internal/awsx"
	"github.com/warp/wallet-service/internal/config"
	"github.com/warp/wallet-service/internal/dynamo"
)

func newCreateTableCmd() *cobra.Command {
	var enableTTL bool

	cmd := &cobra.Command{
		Use:   "create-table",
		Short: "Create the wallet table if it doesn't already exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateTable(cmd, enableTTL)
		},
	}
	cmd.Flags().BoolVar(&enableTTL, "enable-ttl", true, "enable the ttl attribute on the transaction-record items")
	return cmd
}

func runCreateTable(cmd *cobra.Command, enableTTL bool) error {
	ctx := cmd.Context()

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

	created, err := store.CreateTable(ctx, settings.DynamoDBReadCapacity, settings.DynamoDBWriteCapacity, enableTTL)
	if err != nil {
		return fmt.Errorf("create table %s: %w", settings.WalletTableName, err)
	}
	if !created {
		log.WithField("table", settings.WalletTableName).Warn("table already exists, nothing to do")
		return nil
	}

	log.WithField("table", settings.WalletTableName).Info("table created")
	return nil
}
