package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zingest/internal/domain"
	zerrors "github.com/zzenonn/zingest/internal/errors"
	"github.com/zzenonn/zingest/internal/metrics"
	"github.com/zzenonn/zingest/internal/progress"
	"github.com/zzenonn/zingest/internal/stream"
	"github.com/zzenonn/zingest/internal/throttle"
)

const defaultStatusInterval = 10 * time.Second

// Uploader stores a stream as one GridFS object.
type Uploader interface {
	UploadStream(ctx context.Context, objectID, displayName string, r io.Reader, chunkSizeBytes int32, metadata domain.FileMetadata) error
}

// SourceOpener opens an input path or URI. Missing inputs are reported with
// an error wrapping fs.ErrNotExist.
type SourceOpener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, domain.SourceInfo, error)
}

// ManifestRecorder persists one audit record per finished transfer.
type ManifestRecorder interface {
	Record(ctx context.Context, record domain.TransferRecord) error
}

// Provisioner prepares the target collections before the first pass.
type Provisioner interface {
	Ensure(ctx context.Context) error
}

// IngestOptions tunes an ingest run.
type IngestOptions struct {
	Threads           int
	ChunkSizeBytes    int32
	BufferSizeBytes   int
	StatusInterval    time.Duration
	MaxBytesPerSecond int64 // 0 means unbounded
	InfiniteMode      bool
	MetadataType      string
	ProgressBar       bool
}

// IngestService copies a list of inputs into GridFS in one or more passes,
// sharing one throughput cap across every concurrent upload.
type IngestService struct {
	uploader    Uploader
	opener      SourceOpener
	provisioner Provisioner
	manifest    ManifestRecorder
	metrics     *metrics.Metrics

	opts     IngestOptions
	throttle *throttle.Throttle
	totals   *domain.ProcessTotals
	registry *progress.Registry
	reporter *progress.Reporter
}

// NewIngestService creates a new IngestService instance
func NewIngestService(uploader Uploader, opener SourceOpener, opts IngestOptions) *IngestService {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.BufferSizeBytes < 1 {
		opts.BufferSizeBytes = stream.DefaultBufferSize
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = defaultStatusInterval
	}

	totals := domain.NewProcessTotals(time.Now())
	registry := progress.NewRegistry(totals, opts.StatusInterval)

	return &IngestService{
		uploader: uploader,
		opener:   opener,
		opts:     opts,
		throttle: throttle.New(float64(opts.MaxBytesPerSecond)),
		totals:   totals,
		registry: registry,
		reporter: progress.NewReporter(registry, opts.StatusInterval),
	}
}

func (s *IngestService) SetProvisioner(p Provisioner) {
	s.provisioner = p
}

func (s *IngestService) SetManifest(m ManifestRecorder) {
	s.manifest = m
}

func (s *IngestService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Totals returns the bytes read by every finished transfer.
func (s *IngestService) Totals() *domain.ProcessTotals {
	return s.totals
}

// Run provisions the target and copies files until a pass completes, or
// until ctx is cancelled in infinite mode. Cancellation returns an error
// wrapping ErrInterrupted.
func (s *IngestService) Run(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return zerrors.ErrMissingRequiredFields
	}

	s.reporter.Start(ctx)
	defer s.reporter.Stop()

	pool := NewPool(s.opts.Threads)
	pool.Start(ctx)
	defer func() {
		pool.Stop()
		s.logSummary(time.Now())
	}()

	if s.provisioner != nil {
		if err := s.provisioner.Ensure(ctx); err != nil {
			if ctx.Err() != nil {
				return pkgerrors.Wrapf(zerrors.ErrInterrupted, "provisioning: %v", err)
			}
			return pkgerrors.WithMessage(err, "failed to provision collections")
		}
	}

	for pass := 1; ; pass++ {
		if err := s.runPass(ctx, pool, pass, files); err != nil {
			return err
		}
		if !s.opts.InfiniteMode {
			return nil
		}
	}
}

func (s *IngestService) runPass(ctx context.Context, pool *Pool, pass int, files []string) error {
	log.Infof("Starting pass %d over %d file(s)", pass, len(files))

	var bar *progressbar.ProgressBar
	if s.opts.ProgressBar {
		bar = progressbar.DefaultBytes(-1, fmt.Sprintf("pass %d", pass))
	}

	barrier := NewBarrier(len(files))
	for i, file := range files {
		index, location := i, file
		err := pool.Submit(ctx, func(taskCtx context.Context) {
			defer barrier.Done()
			s.transfer(taskCtx, pass, index, len(files), location, bar)
		})
		if err != nil {
			return pkgerrors.Wrapf(zerrors.ErrInterrupted, "pass %d: %v", pass, err)
		}
	}

	log.Infof("Awaiting copy to complete for %d files", len(files))
	if err := barrier.Wait(ctx); err != nil {
		return pkgerrors.Wrapf(zerrors.ErrInterrupted, "pass %d: %v", pass, err)
	}

	if bar != nil {
		_ = bar.Finish()
	}
	s.metrics.PassCompleted()
	log.Infof("Completed pass %d", pass)
	return nil
}

// transfer copies one input. Every failure is logged and recorded, never
// returned, so one bad input cannot stop its pass.
func (s *IngestService) transfer(ctx context.Context, pass, index, total int, location string, bar *progressbar.ProgressBar) {
	start := time.Now()
	record := domain.TransferRecord{
		TransferID: uuid.NewString(),
		Pass:       pass,
		Source:     location,
		StartedAt:  start,
	}

	source, info, err := s.opener.Open(ctx, location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Errorf("File '%s' wasn't found. Err: %v", location, err)
			record.Status = domain.TransferMissing
		} else {
			log.WithError(err).Errorf("Encountered failure opening '%s'", location)
			record.Status = domain.TransferFailed
		}
		record.Error = err.Error()
		s.metrics.TransferSkipped(string(record.Status))
		s.recordManifest(ctx, record)
		return
	}

	record.FileName = info.Name
	record.SizeBytes = info.Size
	log.Infof("Saving file %d/%d: '%s', %s bytes", index+1, total, location, progress.FormatCount(float64(info.Size)))

	reader := stream.NewMeteredReader(ctx, source, s.throttle, s.opts.BufferSizeBytes)
	if bar != nil {
		reader.Observe(func(n int64) { _ = bar.Add64(n) })
	}

	s.registry.Put(domain.NewTransfer(record.TransferID, info.Name, info.Size, start, reader))
	s.metrics.TransferStarted()

	metadata := domain.FileMetadata{
		Type:         s.opts.MetadataType,
		LastModified: info.LastModified,
	}
	err = s.upload(ctx, record.TransferID, info.Name, reader, metadata)

	if closeErr := reader.Close(); closeErr != nil {
		log.WithError(closeErr).Warnf("Failed to close '%s'", location)
	}
	s.registry.Remove(record.TransferID)

	elapsed := time.Since(start)
	record.BytesCopied = reader.Count()
	record.DurationMs = elapsed.Milliseconds()

	if err != nil {
		log.WithError(err).Errorf("Encountered failure saving '%s'", location)
		record.Status = domain.TransferFailed
		record.Error = err.Error()
	} else {
		log.WithFields(log.Fields{
			"transfer_id": record.TransferID,
			"bytes":       record.BytesCopied,
		}).Infof("Saved filename %s fileId %s size %s, after %.1f s @ %.1f MB/s",
			info.Name, record.TransferID, progress.FormatCount(float64(record.BytesCopied)),
			elapsed.Seconds(), domain.RatePerSecond(record.BytesCopied, elapsed)/1e6)
		record.Status = domain.TransferSucceeded
	}

	s.metrics.TransferFinished(string(record.Status), record.BytesCopied, elapsed)
	s.recordManifest(ctx, record)
}

// upload converts an uploader panic into an error so the transfer is still
// removed from the registry.
func (s *IngestService) upload(ctx context.Context, id, name string, r io.Reader, metadata domain.FileMetadata) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("upload panicked: %v", rec)
		}
	}()
	return s.uploader.UploadStream(ctx, id, name, r, s.opts.ChunkSizeBytes, metadata)
}

func (s *IngestService) recordManifest(ctx context.Context, record domain.TransferRecord) {
	if s.manifest == nil {
		return
	}
	// The record is written even after cancellation.
	if err := s.manifest.Record(context.WithoutCancel(ctx), record); err != nil {
		log.WithError(err).Warnf("Failed to record transfer %s", record.TransferID)
	}
}

func (s *IngestService) logSummary(now time.Time) {
	elapsed := s.totals.Elapsed(now)
	seconds := int64(elapsed.Seconds())
	log.Infof("Overall performance %.1f MB/s, %s bytes read, over %dmin %dsec",
		s.totals.RatePerSecond(now)/1e6,
		progress.FormatCount(float64(s.totals.Bytes())),
		seconds/60, seconds%60)
	log.Info("Exiting")
}
