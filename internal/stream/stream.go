// Package stream composes the byte-source adapters an upload reads through:
//
//	raw source → bufferedReader → ThrottledReader → CountingReader
//
// Every layer implements io.ReadSeekCloser. Only Read is throttled and
// counted; Seek and Close pass through to the layer beneath.
package stream

import (
	"context"
	"io"
	"sync"

	zerrors "github.com/zzenonn/zingest/internal/errors"
	"github.com/zzenonn/zingest/internal/throttle"
)

// DefaultBufferSize matches the buffer placed over raw file handles.
const DefaultBufferSize = 1 << 16

// NewMeteredReader wraps raw in the full adapter chain. bufferSize <= 0 uses
// DefaultBufferSize.
func NewMeteredReader(ctx context.Context, raw io.Reader, t *throttle.Throttle, bufferSize int) *CountingReader {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	buffered := newBufferedReader(raw, bufferSize)
	return NewCountingReader(NewThrottledReader(ctx, buffered, t))
}

func seek(r io.Reader, offset int64, whence int) (int64, error) {
	s, ok := r.(io.Seeker)
	if !ok {
		return 0, zerrors.ErrNotSeekable
	}
	return s.Seek(offset, whence)
}

// closeOnce closes the wrapped reader at most once.
type closeOnce struct {
	once sync.Once
	err  error
}

func (c *closeOnce) close(r io.Reader) error {
	c.once.Do(func() {
		if closer, ok := r.(io.Closer); ok {
			c.err = closer.Close()
		}
	})
	return c.err
}
