package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"cloud.google.com/go/storage"

	"github.com/zzenonn/zingest/internal/domain"
)

// GCSSource streams objects out of Google Cloud Storage.
type GCSSource struct {
	client *storage.Client
}

// NewGCSSource initializes a new GCSSource.
func NewGCSSource(client *storage.Client) *GCSSource {
	return &GCSSource{client: client}
}

func (g *GCSSource) Open(ctx context.Context, loc Location) (io.ReadCloser, domain.SourceInfo, error) {
	reader, err := g.client.Bucket(loc.Bucket).Object(loc.Key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, domain.SourceInfo{}, fmt.Errorf("%s: %w", loc.Raw, fs.ErrNotExist)
		}
		return nil, domain.SourceInfo{}, fmt.Errorf("failed to open %s: %w", loc.Raw, err)
	}

	return reader, domain.SourceInfo{
		Location:     loc.Raw,
		Name:         path.Base(loc.Key),
		Size:         reader.Attrs.Size,
		LastModified: reader.Attrs.LastModified,
	}, nil
}
