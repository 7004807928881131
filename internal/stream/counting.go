package stream

import (
	"io"
	"sync/atomic"
)

// CountingReader tracks the cumulative number of bytes returned by Read.
// Seeking does not change the count.
type CountingReader struct {
	r        io.Reader
	count    atomic.Int64
	observer func(n int64)
	closer   closeOnce
}

func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Observe registers fn to be called with the size of every non-empty read.
// It must be set before the first Read.
func (c *CountingReader) Observe(fn func(n int64)) {
	c.observer = fn
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.count.Add(int64(n))
		if c.observer != nil {
			c.observer(int64(n))
		}
	}
	return n, err
}

// Count returns the bytes read so far.
func (c *CountingReader) Count() int64 {
	return c.count.Load()
}

func (c *CountingReader) Seek(offset int64, whence int) (int64, error) {
	return seek(c.r, offset, whence)
}

func (c *CountingReader) Close() error {
	return c.closer.close(c.r)
}
