package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var provisionCmd = &cobra.Command{
	Use:   "provision [mongo-uri]",
	Short: "Shard and optionally pre-split the GridFS collections without ingesting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd, args)
		if err != nil {
			return err
		}
		if err := cfg.ValidateSettings(); err != nil {
			return err
		}
		cfg.Sharding.Enabled = true

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		mongoDb, err := connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer mongoDb.Disconnect(context.Background())

		if err := newProvisioner(mongoDb, cfg).Ensure(ctx); err != nil {
			return err
		}

		log.Infof("Collections for '%s.%s' provisioned", cfg.Database, cfg.Bucket)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}
