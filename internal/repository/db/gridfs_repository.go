package db

import (
	"context"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zzenonn/zingest/internal/domain"
)

// GridFSRepository writes streams into one GridFS bucket.
type GridFSRepository struct {
	bucket *gridfs.Bucket
}

// NewGridFSRepository opens the bucket named bucketName in database.
func NewGridFSRepository(database *mongo.Database, bucketName string) (GridFSRepository, error) {
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return GridFSRepository{}, fmt.Errorf("failed to open bucket %s: %w", bucketName, err)
	}
	return GridFSRepository{bucket: bucket}, nil
}

// UploadStream stores r under objectID. The driver takes no context for
// uploads, so cancellation reaches it through r failing its next read.
func (repo *GridFSRepository) UploadStream(ctx context.Context, objectID, displayName string, r io.Reader, chunkSizeBytes int32, metadata domain.FileMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	opts := options.GridFSUpload().
		SetChunkSizeBytes(chunkSizeBytes).
		SetMetadata(metadata)

	if err := repo.bucket.UploadFromStreamWithID(objectID, displayName, r, opts); err != nil {
		return fmt.Errorf("failed to upload %s: %w", displayName, err)
	}
	return nil
}
