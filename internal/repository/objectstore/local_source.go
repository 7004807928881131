package objectstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zzenonn/zingest/internal/domain"
)

// LocalSource opens files on the local filesystem. The returned reader is
// an *os.File and therefore seekable.
type LocalSource struct{}

func (LocalSource) Open(ctx context.Context, loc Location) (io.ReadCloser, domain.SourceInfo, error) {
	file, err := os.Open(loc.Key)
	if err != nil {
		return nil, domain.SourceInfo{}, err
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, domain.SourceInfo{}, err
	}
	if stat.IsDir() {
		file.Close()
		return nil, domain.SourceInfo{}, fmt.Errorf("%s is a directory", loc.Key)
	}

	return file, domain.SourceInfo{
		Location:     loc.Raw,
		Name:         filepath.Base(loc.Key),
		Size:         stat.Size(),
		LastModified: stat.ModTime(),
	}, nil
}
