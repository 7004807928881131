package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/zzenonn/zingest/internal/config"
	"github.com/zzenonn/zingest/internal/domain"
	zerrors "github.com/zzenonn/zingest/internal/errors"
)

// SourceFactory dispatches locations to the matching backend. Cloud clients
// are created on first use so that local-only runs need no credentials.
type SourceFactory struct {
	local LocalSource

	newS3  func(ctx context.Context) (S3GetObjectAPI, error)
	s3Once sync.Once
	s3     *S3Source
	s3Err  error

	newGCS  func(ctx context.Context) (*storage.Client, error)
	gcsOnce sync.Once
	gcs     *GCSSource
	gcsErr  error
}

// NewSourceFactory creates a factory using the default AWS and GCS
// credential chains.
func NewSourceFactory() *SourceFactory {
	return &SourceFactory{
		newS3: func(ctx context.Context) (S3GetObjectAPI, error) {
			awsConfig, err := config.LoadAWSConfig(ctx)
			if err != nil {
				return nil, err
			}
			return s3.NewFromConfig(awsConfig), nil
		},
		newGCS: config.NewGCSClient,
	}
}

// Open parses location and opens it on its backend.
func (f *SourceFactory) Open(ctx context.Context, location string) (io.ReadCloser, domain.SourceInfo, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, domain.SourceInfo{}, err
	}

	source, err := f.sourceFor(ctx, loc.Type)
	if err != nil {
		return nil, domain.SourceInfo{}, err
	}
	return source.Open(ctx, loc)
}

func (f *SourceFactory) sourceFor(ctx context.Context, sourceType SourceType) (Source, error) {
	switch sourceType {
	case LocalType:
		return f.local, nil
	case S3Type:
		f.s3Once.Do(func() {
			log.Debug("Creating S3 client")
			var client S3GetObjectAPI
			client, f.s3Err = f.newS3(ctx)
			if f.s3Err == nil {
				f.s3 = NewS3Source(client)
			}
		})
		return f.s3, f.s3Err
	case GCSType:
		f.gcsOnce.Do(func() {
			log.Debug("Creating GCS client")
			var client *storage.Client
			client, f.gcsErr = f.newGCS(ctx)
			if f.gcsErr == nil {
				f.gcs = NewGCSSource(client)
			}
		})
		return f.gcs, f.gcsErr
	default:
		return nil, fmt.Errorf("%w: %s", zerrors.ErrUnsupportedScheme, sourceType)
	}
}

// Close releases any cloud clients created so far.
func (f *SourceFactory) Close() error {
	if f.gcs != nil {
		return f.gcs.client.Close()
	}
	return nil
}

// ParseLocation parses an input path or URI
// Formats: "s3://bucket/key", "gs://bucket/key", "file:///path", or a plain path
func ParseLocation(raw string) (Location, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Location{}, fmt.Errorf("location cannot be empty")
	}

	if !strings.Contains(trimmed, "://") {
		return Location{Type: LocalType, Key: trimmed, Raw: raw}, nil
	}

	parts := strings.SplitN(trimmed, "://", 2)
	scheme := strings.ToLower(strings.TrimSpace(parts[0]))
	rest := parts[1]

	var sourceType SourceType
	switch scheme {
	case "file":
		if rest == "" {
			return Location{}, fmt.Errorf("file path cannot be empty: %s", raw)
		}
		return Location{Type: LocalType, Key: rest, Raw: raw}, nil
	case "s3":
		sourceType = S3Type
	case "gs":
		sourceType = GCSType
	default:
		return Location{}, fmt.Errorf("%w: %s", zerrors.ErrUnsupportedScheme, scheme)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("bucket name cannot be empty: %s", raw)
	}
	if key == "" {
		return Location{}, fmt.Errorf("object key cannot be empty: %s", raw)
	}

	return Location{Type: sourceType, Bucket: bucket, Key: key, Raw: raw}, nil
}
