package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/zzenonn/zingest/internal/domain"
)

// S3GetObjectAPI is the subset of the S3 client used to read objects.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source streams objects out of S3.
type S3Source struct {
	client S3GetObjectAPI
}

// NewS3Source initializes a new S3Source.
func NewS3Source(client S3GetObjectAPI) *S3Source {
	return &S3Source{client: client}
}

func (s *S3Source) Open(ctx context.Context, loc Location) (io.ReadCloser, domain.SourceInfo, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var noSuchBucket *types.NoSuchBucket
		if errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) {
			return nil, domain.SourceInfo{}, fmt.Errorf("%s: %w", loc.Raw, fs.ErrNotExist)
		}
		return nil, domain.SourceInfo{}, fmt.Errorf("failed to get %s: %w", loc.Raw, err)
	}

	return result.Body, domain.SourceInfo{
		Location:     loc.Raw,
		Name:         path.Base(loc.Key),
		Size:         aws.ToInt64(result.ContentLength),
		LastModified: aws.ToTime(result.LastModified),
	}, nil
}
