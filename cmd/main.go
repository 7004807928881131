package main

import (
	"errors"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/zzenonn/zingest/internal/config"
	zerrors "github.com/zzenonn/zingest/internal/errors"
	"github.com/zzenonn/zingest/internal/logging"
)

// exitInterrupted follows the shell convention for termination by SIGINT.
const exitInterrupted = 130

var configPath string

var rootCmd = &cobra.Command{
	Use:           "zingest",
	SilenceErrors: true,
	Short:         "Throughput-capped bulk ingest into MongoDB GridFS",
	Long:          "Copies local files and S3 or GCS objects into a GridFS bucket with bounded concurrency under one shared throughput cap.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config.yaml file")
	config.RegisterFlags(rootCmd.PersistentFlags())
	logging.InitFromEnv()
}

// loadConfig reads configuration for cmd and configures logging from it.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	cfg.SetArgs(args)
	logging.InitLogger(cfg)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, zerrors.ErrInterrupted) {
			log.Warnf("Interrupted: %v", err)
			os.Exit(exitInterrupted)
		}
		log.Errorf("%+v", err)
		os.Exit(1)
	}
}
