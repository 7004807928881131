package main

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/zingest/internal/config"
	zerrors "github.com/zzenonn/zingest/internal/errors"
	"github.com/zzenonn/zingest/internal/repository/db"
	"github.com/zzenonn/zingest/internal/repository/migrate"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Manage the DynamoDB transfer manifest",
}

// manifestClient loads configuration and the DynamoDB client for the table.
func manifestClient(cmd *cobra.Command) (*config.Config, *db.DynamoDb, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	if cfg.ManifestTable == "" {
		return nil, nil, zerrors.ConfigNotSetError("manifest_table")
	}

	awsConfig, err := config.LoadAWSConfig(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, db.NewManifestDatabase(awsConfig), nil
}

var manifestInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the manifest table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, dynamoDb, err := manifestClient(cmd)
		if err != nil {
			return err
		}

		migration := &migrate.CreateTransferManifestTable{Table: cfg.ManifestTable}
		if err := migration.Up(cmd.Context(), dynamoDb.Client); err != nil {
			return fmt.Errorf("failed to create manifest table: %w", err)
		}

		log.Infof("Manifest table %s created", migration.TableName())
		return nil
	},
}

var manifestDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Delete the manifest table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, dynamoDb, err := manifestClient(cmd)
		if err != nil {
			return err
		}

		migration := &migrate.CreateTransferManifestTable{Table: cfg.ManifestTable}
		if err := migration.Down(cmd.Context(), dynamoDb.Client); err != nil {
			return fmt.Errorf("failed to delete manifest table: %w", err)
		}

		log.Infof("Manifest table %s deleted", migration.TableName())
		return nil
	},
}

var manifestShowCmd = &cobra.Command{
	Use:   "show [transfer-id]",
	Short: "Print one transfer record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, dynamoDb, err := manifestClient(cmd)
		if err != nil {
			return err
		}

		repo := db.NewManifestRepository(dynamoDb.Client, cfg.ManifestTable)
		record, err := repo.GetRecord(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	manifestCmd.AddCommand(manifestInitCmd)
	manifestCmd.AddCommand(manifestDownCmd)
	manifestCmd.AddCommand(manifestShowCmd)
	rootCmd.AddCommand(manifestCmd)
}
