// Package objectstore opens ingest sources on local disk, Amazon S3 and
// Google Cloud Storage behind one interface.
package objectstore

import (
	"context"
	"io"

	"github.com/zzenonn/zingest/internal/domain"
)

// Source opens one object for streaming. A missing object must be reported
// with an error wrapping fs.ErrNotExist.
type Source interface {
	Open(ctx context.Context, loc Location) (io.ReadCloser, domain.SourceInfo, error)
}

// SourceType identifies the backend a location lives on.
type SourceType string

const (
	LocalType SourceType = "file"
	S3Type    SourceType = "s3"
	GCSType   SourceType = "gs"
)

// Location is a parsed input path or URI.
type Location struct {
	Type   SourceType
	Bucket string // Empty for local files
	Key    string // Object key, or the file path for local files
	Raw    string // As given on the command line
}
