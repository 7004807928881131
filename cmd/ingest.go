package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zzenonn/zingest/internal/config"
	"github.com/zzenonn/zingest/internal/metrics"
	"github.com/zzenonn/zingest/internal/placement"
	"github.com/zzenonn/zingest/internal/progress"
	"github.com/zzenonn/zingest/internal/repository/db"
	"github.com/zzenonn/zingest/internal/repository/objectstore"
	"github.com/zzenonn/zingest/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [mongo-uri] [file-or-uri]...",
	Short: "Upload files into GridFS under a throughput cap",
	Long:  "Uploads every file once, or repeatedly with --infinite until interrupted. Inputs may be local paths, s3://bucket/key or gs://bucket/key. The connection URI may be an ssm://parameter-name reference.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Connecting with %d thread(s) to collection '%s.%s.*' @ max %s B/s",
		cfg.Threads, cfg.Database, cfg.Bucket, maxRateLabel(cfg.MaxBytesPerSecond))

	mongoDb, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoDb.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect")
		}
	}()

	gridfsRepository, err := db.NewGridFSRepository(mongoDb.Client.Database(cfg.Database), cfg.Bucket)
	if err != nil {
		return err
	}

	sources := objectstore.NewSourceFactory()
	defer sources.Close()

	ingestService := service.NewIngestService(&gridfsRepository, sources, service.IngestOptions{
		Threads:           cfg.Threads,
		ChunkSizeBytes:    cfg.ChunkSizeBytes,
		BufferSizeBytes:   cfg.BufferSizeBytes,
		StatusInterval:    cfg.StatusInterval,
		MaxBytesPerSecond: cfg.MaxBytesPerSecond,
		InfiniteMode:      cfg.InfiniteMode,
		MetadataType:      cfg.MetadataType,
		ProgressBar:       cfg.ProgressBar,
	})

	registry := prometheus.NewRegistry()
	ingestMetrics := metrics.New(registry)
	ingestService.SetMetrics(ingestMetrics)

	if cfg.Sharding.Enabled {
		provisioner := newProvisioner(mongoDb, cfg)
		provisioner.ObserveRetries(func(string) { ingestMetrics.SplitRetried() })
		ingestService.SetProvisioner(provisioner)
	}

	if cfg.ManifestTable != "" {
		awsConfig, err := config.LoadAWSConfig(ctx)
		if err != nil {
			return err
		}
		manifestRepository := db.NewManifestRepository(db.NewManifestDatabase(awsConfig).Client, cfg.ManifestTable)
		ingestService.SetManifest(&manifestRepository)
	}

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddress != "" {
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.MetricsAddress, registry)
		})
	}

	g.Go(func() error {
		// A finished run stops the metrics server.
		defer cancelRun()
		return ingestService.Run(gctx, cfg.Files)
	})

	return g.Wait()
}

// connect resolves the connection URI and opens the client.
func connect(ctx context.Context, cfg *config.Config) (*db.MongoDb, error) {
	uri := cfg.MongoURI
	if config.IsParameterReference(uri) {
		awsConfig, err := config.LoadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		uri, err = config.ResolveParameter(ctx, ssm.NewFromConfig(awsConfig), uri)
		if err != nil {
			return nil, err
		}
	}
	return db.NewDatabase(ctx, uri, uint64(cfg.Threads)+2)
}

func newProvisioner(mongoDb *db.MongoDb, cfg *config.Config) *placement.Provisioner {
	admin := db.NewAdminRepository(mongoDb.Client)
	return placement.NewProvisioner(&admin, placement.Options{
		Database:        cfg.Database,
		Bucket:          cfg.Bucket,
		ShardingEnabled: cfg.Sharding.Enabled,
		PresplitEnabled: cfg.Sharding.PresplitEnabled,
		FilesChunks:     cfg.Sharding.FilesChunks,
		ChunksChunks:    cfg.Sharding.ChunksChunks,
	})
}

func maxRateLabel(bytesPerSecond int64) string {
	if bytesPerSecond <= 0 {
		return "unbounded"
	}
	return progress.FormatCount(float64(bytesPerSecond))
}
